package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestBracketedFileFormat(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(bracketed(&buf, true))

	log.Info().Str("topic", "conversation:c1").Msg("client subscribed")

	line := buf.String()
	for _, want := range []string{"[INFO]", "client subscribed", "topic=conversation:c1"} {
		if !strings.Contains(line, want) {
			t.Fatalf("line %q does not contain %q", line, want)
		}
	}
}

func TestNewLoggerWritesPerChannelFiles(t *testing.T) {
	dir := t.TempDir()
	log := NewLogger(dir)

	log.WS.Error.Error().Msg("socket closed")
	log.Worker.Info.Info().Msg("sweep done")

	for _, name := range []string{"ws.error.log", "worker.info.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s to exist: %v", name, err)
		}
	}
}
