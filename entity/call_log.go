package entity

import (
	"time"

	"gorm.io/datatypes"

	"bheem-chat/enum"
)

type CallLog struct {
	BaseEntity
	ConversationID     string                      `json:"conversationId" gorm:"type:varchar(255);not null;index"`
	CallType           enum.CallType               `json:"callType" gorm:"type:varchar(10);not null"`
	RoomName           string                      `json:"roomName" gorm:"type:varchar(255);not null;uniqueIndex"`
	CallerID           string                      `json:"callerId" gorm:"type:varchar(255);not null"`
	CallerName         string                      `json:"callerName" gorm:"type:varchar(255)"`
	Status             enum.CallStatus             `json:"status" gorm:"type:varchar(10);not null;index"`
	JoinedParticipants datatypes.JSONSlice[string] `json:"joinedParticipants"`
	StartedAt          *time.Time                  `json:"startedAt,omitempty"`
	EndedAt            *time.Time                  `json:"endedAt,omitempty"`
	DurationSeconds    int                         `json:"durationSeconds"`
	EndReason          string                      `json:"endReason,omitempty" gorm:"type:varchar(255)"`
}
