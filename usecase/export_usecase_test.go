package usecase

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"bheem-chat/dto/req"
	"bheem-chat/enum"
)

func exportFixture(t *testing.T) (*fixture, string) {
	t.Helper()
	f := newFixture(t)
	ctx := context.Background()
	id := f.group(t, alice, bob)

	f.send(t, alice, id, "hello, team")
	edited := f.send(t, bob, id, "helo")
	if _, err := f.messages.EditMessage(ctx, bob, edited, &req.EditMessageRequest{Content: "hello"}); err != nil {
		t.Fatalf("edit: %v", err)
	}
	gone := f.send(t, alice, id, "oops")
	if _, err := f.messages.DeleteMessage(ctx, alice, gone); err != nil {
		t.Fatalf("delete: %v", err)
	}
	return f, id
}

func TestExportTranscript_CSV(t *testing.T) {
	f, id := exportFixture(t)

	transcript, err := f.exports.ExportTranscript(context.Background(), bob, id, enum.ExportCSV)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if transcript.ContentType != "text/csv" || !strings.HasSuffix(transcript.FileName, ".csv") {
		t.Fatalf("transcript = %s %s", transcript.FileName, transcript.ContentType)
	}

	records, err := csv.NewReader(strings.NewReader(string(transcript.Body))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d, want header plus 3", len(records))
	}
	if records[0][0] != "id" || records[0][5] != "content" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][5] != "hello, team" || records[1][3] != "Alice" {
		t.Fatalf("first row = %v", records[1])
	}
	if records[2][6] != "true" {
		t.Fatalf("edited row = %v", records[2])
	}
	if records[3][7] != "true" || records[3][5] != "This message was deleted" {
		t.Fatalf("deleted row = %v", records[3])
	}
}

func TestExportTranscript_Text(t *testing.T) {
	f, id := exportFixture(t)

	transcript, err := f.exports.ExportTranscript(context.Background(), alice, id, enum.ExportTXT)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(transcript.Body)), "\n")
	if lines[0] != "Conversation: Team" {
		t.Fatalf("title = %q", lines[0])
	}
	if len(lines) != 5 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[2], "[2025-03-01 09:00:") || !strings.HasSuffix(lines[2], "] Alice: hello, team") {
		t.Fatalf("first line = %q", lines[2])
	}
	if !strings.HasSuffix(lines[3], "Bob: hello (edited)") {
		t.Fatalf("edited line = %q", lines[3])
	}
}

func TestExportTranscript_JSON(t *testing.T) {
	f, id := exportFixture(t)

	f.clock.Advance(time.Hour)
	wantExportedAt := f.clock.now.Add(time.Second)

	transcript, err := f.exports.ExportTranscript(context.Background(), alice, id, "")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	var document struct {
		ConversationID string    `json:"conversationId"`
		ExportedAt     time.Time `json:"exportedAt"`
		Messages       []struct {
			Content   string `json:"content"`
			IsDeleted bool   `json:"isDeleted"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(transcript.Body, &document); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if document.ConversationID != id || len(document.Messages) != 3 || !document.Messages[2].IsDeleted {
		t.Fatalf("document = %+v", document)
	}
	if !document.ExportedAt.Equal(wantExportedAt) {
		t.Fatalf("exportedAt = %s, want %s", document.ExportedAt, wantExportedAt)
	}
}

func TestExportTranscript_Errors(t *testing.T) {
	f, id := exportFixture(t)
	ctx := context.Background()

	if _, err := f.exports.ExportTranscript(ctx, alice, id, "pdf"); !errors.Is(err, ErrValidation) {
		t.Fatalf("pdf err = %v, want ErrValidation", err)
	}
	if _, err := f.exports.ExportTranscript(ctx, carol, id, enum.ExportCSV); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("outsider err = %v, want ErrNotAMember", err)
	}
}

func TestGetStats(t *testing.T) {
	f, id := exportFixture(t)

	stats, err := f.exports.GetStats(context.Background(), bob, id)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.MessageCount != 3 || len(stats.BySender) != 2 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.BySender[0].SenderID != alice.ID || stats.BySender[0].MessageCount != 2 {
		t.Fatalf("top sender = %+v", stats.BySender[0])
	}
	if stats.FirstMessageAt == nil || stats.LastMessageAt == nil || !stats.FirstMessageAt.Before(*stats.LastMessageAt) {
		t.Fatalf("bounds = %v .. %v", stats.FirstMessageAt, stats.LastMessageAt)
	}

	empty := f.group(t, alice, bob)
	stats, err = f.exports.GetStats(context.Background(), alice, empty)
	if err != nil {
		t.Fatalf("empty stats: %v", err)
	}
	if stats.MessageCount != 0 || stats.FirstMessageAt != nil || len(stats.BySender) != 0 {
		t.Fatalf("empty stats = %+v", stats)
	}
}
