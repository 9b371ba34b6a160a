package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var ErrTooLarge = errors.New("attachment exceeds the size limit")

type AttachmentMeta struct {
	ConversationID string
	FileName       string
	MimeType       string
}

type StoredAttachment struct {
	URL      string `json:"url"`
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type AttachmentStore interface {
	Store(ctx context.Context, data []byte, meta AttachmentMeta) (StoredAttachment, error)
}

// LocalStore writes attachments below Dir and serves them under BaseURL.
type LocalStore struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("attachment dir: %w", err)
	}
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), MaxBytes: maxBytes}, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeName.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "file"
	}
	return name
}

func (s *LocalStore) Store(ctx context.Context, data []byte, meta AttachmentMeta) (StoredAttachment, error) {
	if err := ctx.Err(); err != nil {
		return StoredAttachment{}, err
	}
	if s.MaxBytes > 0 && int64(len(data)) > s.MaxBytes {
		return StoredAttachment{}, ErrTooLarge
	}

	fileName := sanitizeFileName(meta.FileName)
	folder := sanitizeFileName(meta.ConversationID)
	key := uuid.New().String() + "-" + fileName

	dir := filepath.Join(s.Dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return StoredAttachment{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, key), data, 0o644); err != nil {
		return StoredAttachment{}, err
	}

	return StoredAttachment{
		URL:      s.BaseURL + "/" + path.Join(folder, key),
		FileName: fileName,
		MimeType: meta.MimeType,
		Size:     int64(len(data)),
	}, nil
}

var _ AttachmentStore = (*LocalStore)(nil)
