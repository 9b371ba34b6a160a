package usecase

import (
	"context"

	"bheem-chat/dto/res"
	"bheem-chat/enum"
	"bheem-chat/security"
)

// Transcript is a rendered export ready to be written to the client.
type Transcript struct {
	FileName    string
	ContentType string
	Body        []byte
}

type ExportUsecase interface {
	ExportTranscript(ctx context.Context, user security.CurrentUser, conversationID string, format enum.ExportFormat) (Transcript, error)
	GetStats(ctx context.Context, user security.CurrentUser, conversationID string) (res.StatsResponse, error)
}
