package req

type AttachmentInput struct {
	FileName     string `json:"fileName" validate:"required,max=255"`
	MimeType     string `json:"mimeType" validate:"max=255"`
	Size         int64  `json:"size" validate:"gte=0"`
	URL          string `json:"url" validate:"required,max=2048"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,max=2048"`
	Width        *int   `json:"width" validate:"omitempty,gt=0"`
	Height       *int   `json:"height" validate:"omitempty,gt=0"`
}

type SendMessageRequest struct {
	Content     string            `json:"content" validate:"required_without=Attachments,max=10000"`
	MessageType string            `json:"messageType" validate:"omitempty,oneof=text image file system call"`
	ReplyToID   string            `json:"replyToId"`
	Attachments []AttachmentInput `json:"attachments" validate:"omitempty,max=10,dive"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"required,max=10000"`
}

type ReactRequest struct {
	Emoji string `json:"emoji" validate:"required,max=32"`
}

type MessagePageRequest struct {
	Limit  int    `query:"limit"`
	Before string `query:"before"`
	After  string `query:"after"`
}
