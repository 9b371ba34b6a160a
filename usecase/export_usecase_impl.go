package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"bheem-chat/dto/res"
	"bheem-chat/entity"
	"bheem-chat/enum"
	"bheem-chat/security"
)

type ExportUsecaseImpl struct {
	*Repositories
	*gorm.DB
	*logrus.Logger
	Now Clock
}

func NewExportUsecase(repositories *Repositories, DB *gorm.DB, logger *logrus.Logger) *ExportUsecaseImpl {
	return &ExportUsecaseImpl{Repositories: repositories, DB: DB, Logger: logger, Now: SystemClock}
}

type transcriptLine struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	MessageType string    `json:"messageType"`
	Content     string    `json:"content"`
	IsEdited    bool      `json:"isEdited"`
	IsDeleted   bool      `json:"isDeleted"`
	Attachments []string  `json:"attachments"`
	CreatedAt   time.Time `json:"createdAt"`
}

type transcriptDocument struct {
	ConversationID string           `json:"conversationId"`
	Name           string           `json:"name"`
	ExportedAt     time.Time        `json:"exportedAt"`
	Messages       []transcriptLine `json:"messages"`
}

func (uc *ExportUsecaseImpl) ExportTranscript(ctx context.Context, user security.CurrentUser, conversationID string, format enum.ExportFormat) (Transcript, error) {
	if format == "" {
		format = enum.ExportJSON
	}
	if !format.IsValid() {
		return Transcript{}, invalid("unsupported export format %q", format)
	}
	conversation, _, err := uc.membership(ctx, uc.DB, conversationID, user.ID)
	if err != nil {
		return Transcript{}, err
	}

	messages, err := uc.Messages.ListForExport(ctx, uc.DB, conversationID)
	if err != nil {
		uc.Logger.WithError(err).Errorf("failed to export conversation %s", conversationID)
		return Transcript{}, persistence(err)
	}
	lines := make([]transcriptLine, 0, len(messages))
	for i := range messages {
		lines = append(lines, toTranscriptLine(&messages[i]))
	}

	transcript := Transcript{FileName: fmt.Sprintf("conversation-%s.%s", conversationID, format)}
	switch format {
	case enum.ExportJSON:
		transcript.ContentType = "application/json"
		transcript.Body, err = json.MarshalIndent(transcriptDocument{
			ConversationID: conversation.ID,
			Name:           conversation.Name,
			ExportedAt:     uc.Now(),
			Messages:       lines,
		}, "", "  ")
	case enum.ExportCSV:
		transcript.ContentType = "text/csv"
		transcript.Body, err = transcriptCSV(lines)
	case enum.ExportTXT:
		transcript.ContentType = "text/plain; charset=utf-8"
		transcript.Body = transcriptText(conversation, lines)
	}
	if err != nil {
		return Transcript{}, fmt.Errorf("render %s transcript: %w", format, err)
	}
	return transcript, nil
}

func toTranscriptLine(message *entity.Message) transcriptLine {
	line := transcriptLine{
		ID:          message.ID,
		SenderID:    message.SenderID,
		SenderName:  message.SenderName,
		MessageType: string(message.MessageType),
		Content:     message.Content,
		IsEdited:    message.IsEdited,
		IsDeleted:   message.IsDeleted(),
		Attachments: []string{},
		CreatedAt:   message.CreatedAt,
	}
	if !message.IsDeleted() {
		for _, attachment := range message.Attachments {
			line.Attachments = append(line.Attachments, attachment.URL)
		}
	}
	return line
}

func transcriptCSV(lines []transcriptLine) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write([]string{"id", "created_at", "sender_id", "sender_name", "message_type", "content", "is_edited", "is_deleted", "attachments"}); err != nil {
		return nil, err
	}
	for _, line := range lines {
		record := []string{
			line.ID,
			line.CreatedAt.UTC().Format(time.RFC3339),
			line.SenderID,
			line.SenderName,
			line.MessageType,
			line.Content,
			strconv.FormatBool(line.IsEdited),
			strconv.FormatBool(line.IsDeleted),
			strings.Join(line.Attachments, " "),
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func transcriptText(conversation *entity.Conversation, lines []transcriptLine) []byte {
	var buf bytes.Buffer
	title := conversation.Name
	if title == "" {
		title = conversation.ID
	}
	fmt.Fprintf(&buf, "Conversation: %s\n\n", title)
	for _, line := range lines {
		fmt.Fprintf(&buf, "[%s] %s: %s", line.CreatedAt.UTC().Format("2006-01-02 15:04:05"), line.SenderName, line.Content)
		if line.IsEdited && !line.IsDeleted {
			buf.WriteString(" (edited)")
		}
		for _, url := range line.Attachments {
			fmt.Fprintf(&buf, "\n    attachment: %s", url)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func (uc *ExportUsecaseImpl) GetStats(ctx context.Context, user security.CurrentUser, conversationID string) (res.StatsResponse, error) {
	if _, _, err := uc.membership(ctx, uc.DB, conversationID, user.ID); err != nil {
		return res.StatsResponse{}, err
	}

	count, err := uc.Messages.CountByConversation(ctx, uc.DB, conversationID)
	if err != nil {
		return res.StatsResponse{}, persistence(err)
	}
	senders, err := uc.Messages.CountBySender(ctx, uc.DB, conversationID)
	if err != nil {
		return res.StatsResponse{}, persistence(err)
	}
	first, last, err := uc.Messages.Bounds(ctx, uc.DB, conversationID)
	if err != nil {
		return res.StatsResponse{}, persistence(err)
	}

	response := res.StatsResponse{
		ConversationID: conversationID,
		MessageCount:   count,
		BySender:       make([]res.SenderStat, 0, len(senders)),
	}
	for _, sender := range senders {
		response.BySender = append(response.BySender, res.SenderStat{
			SenderID:     sender.SenderID,
			SenderName:   sender.SenderName,
			MessageCount: sender.MessageCount,
		})
	}
	if first != nil {
		response.FirstMessageAt = &first.CreatedAt
		response.LastMessageAt = &last.CreatedAt
	}
	return response, nil
}
