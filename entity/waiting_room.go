package entity

import (
	"time"

	"bheem-chat/enum"
)

// MeetingRoom is the live-session room a waiting room gates.
type MeetingRoom struct {
	BaseEntity
	RoomCode           string  `json:"roomCode" gorm:"type:varchar(32);not null;uniqueIndex"`
	Title              string  `json:"title" gorm:"type:varchar(255)"`
	HostID             string  `json:"hostId" gorm:"type:varchar(255);not null"`
	HostTenantID       *string `json:"hostTenantId,omitempty" gorm:"type:varchar(255)"`
	WaitingRoomEnabled bool    `json:"waitingRoomEnabled" gorm:"not null"`
}

// WaitingRoomEntry is one admission request. At most one waiting row exists per user,
// or per email for anonymous guests, in a room; emails are stored lowercased.
type WaitingRoomEntry struct {
	BaseEntity
	RoomCode        string             `json:"roomCode" gorm:"type:varchar(32);not null;index;uniqueIndex:idx_waiting_user,where:status = 'waiting';uniqueIndex:idx_waiting_guest,where:status = 'waiting' AND user_id IS NULL AND email <> ''"`
	UserID          *string            `json:"userId,omitempty" gorm:"type:varchar(255);index;uniqueIndex:idx_waiting_user,where:status = 'waiting'"`
	DisplayName     string             `json:"displayName" gorm:"type:varchar(255);not null"`
	Email           string             `json:"email,omitempty" gorm:"type:varchar(320);uniqueIndex:idx_waiting_guest,where:status = 'waiting' AND user_id IS NULL AND email <> ''"`
	Status          enum.WaitingStatus `json:"status" gorm:"type:varchar(10);not null;index"`
	RequestedAt     time.Time          `json:"requestedAt"`
	AdmittedAt      *time.Time         `json:"admittedAt,omitempty"`
	AdmittedBy      *string            `json:"admittedBy,omitempty" gorm:"type:varchar(255)"`
	RejectedAt      *time.Time         `json:"rejectedAt,omitempty"`
	RejectedBy      *string            `json:"rejectedBy,omitempty" gorm:"type:varchar(255)"`
	RejectionReason string             `json:"rejectionReason,omitempty" gorm:"type:varchar(255)"`
}
