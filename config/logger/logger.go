package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const timeLayout = "2006-01-02 15:04:05.000"

// CommonLogger splits one channel into per-level files so that error.log
// stays readable under a noisy stream.log.
type CommonLogger struct {
	Info    zerolog.Logger
	Error   zerolog.Logger
	Trace   zerolog.Logger
	Warning zerolog.Logger
	Stream  zerolog.Logger
}

// AppLogger has one channel for the HTTP side (database bootstrap included),
// one for websocket sessions and one for the background worker.
type AppLogger struct {
	Http   CommonLogger
	WS     CommonLogger
	Worker CommonLogger
}

// Rotation bounds each log file; sizes are in megabytes, ages in days.
type Rotation struct {
	MaxSize    int
	MaxAge     int
	MaxBackups int
}

var DefaultRotation = Rotation{MaxSize: 5, MaxAge: 20, MaxBackups: 5}

func NewLogger(dir string) *AppLogger {
	return NewLoggerWithRotation(dir, DefaultRotation)
}

func NewLoggerWithRotation(dir string, rotation Rotation) *AppLogger {
	_ = os.MkdirAll(dir, 0755)
	zerolog.TimeFieldFormat = timeLayout

	console := bracketed(os.Stdout, false)
	channel := func(prefix string) CommonLogger {
		open := func(level string) zerolog.Logger {
			file := bracketed(rotation.open(filepath.Join(dir, prefix+level+".log")), true)
			return zerolog.New(io.MultiWriter(console, file)).With().Timestamp().Logger()
		}
		return CommonLogger{
			Info:    open("info"),
			Error:   open("error"),
			Trace:   open("trace"),
			Warning: open("warning"),
			Stream:  open("stream"),
		}
	}

	return &AppLogger{
		Http:   channel(""),
		WS:     channel("ws."),
		Worker: channel("worker."),
	}
}

// NewNopLogger discards everything; used where no log directory should be touched.
func NewNopLogger() *AppLogger {
	nop := CommonLogger{
		Info:    zerolog.Nop(),
		Error:   zerolog.Nop(),
		Trace:   zerolog.Nop(),
		Warning: zerolog.Nop(),
		Stream:  zerolog.Nop(),
	}
	return &AppLogger{Http: nop, WS: nop, Worker: nop}
}

func (rotation Rotation) open(filename string) io.Writer {
	return &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    rotation.MaxSize,
		MaxAge:     rotation.MaxAge,
		MaxBackups: rotation.MaxBackups,
		Compress:   true,
	}
}

// bracketed renders "[time] [LEVEL] message key=value".
func bracketed(out io.Writer, plain bool) zerolog.ConsoleWriter {
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    plain,
		TimeFormat: timeLayout,
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("[%s]", i)
		},
		FormatLevel: func(i interface{}) string {
			return fmt.Sprintf("[%s]", strings.ToUpper(fmt.Sprint(i)))
		},
		FormatMessage: func(i interface{}) string {
			return fmt.Sprint(i)
		},
	}
	if plain {
		writer.FormatFieldName = func(i interface{}) string { return fmt.Sprintf("%s=", i) }
		writer.FormatFieldValue = func(i interface{}) string { return fmt.Sprintf("%v", i) }
	}
	return writer
}
