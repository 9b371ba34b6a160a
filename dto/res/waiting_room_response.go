package res

import "bheem-chat/entity"

type JoinResponse struct {
	WaitingID string `json:"waitingId"`
	Status    string `json:"status"`
	RoomCode  string `json:"roomCode"`
	Bypassed  bool   `json:"bypassed"`
}

type WaitingListResponse struct {
	RoomCode string                    `json:"roomCode"`
	Waiting  []entity.WaitingRoomEntry `json:"waiting"`
	Admitted []entity.WaitingRoomEntry `json:"admitted"`
}

type AdmitAllResponse struct {
	RoomCode      string `json:"roomCode"`
	AdmittedCount int64  `json:"admittedCount"`
}

type WaitingStatusResponse struct {
	WaitingID       string `json:"waitingId"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejectionReason,omitempty"`
}
