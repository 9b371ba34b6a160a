package req

type CreateRoomRequest struct {
	Title              string `json:"title" validate:"max=255"`
	WaitingRoomEnabled bool   `json:"waitingRoomEnabled"`
}

type ToggleWaitingRoomRequest struct {
	Enabled bool `json:"enabled"`
}

type JoinWaitingRoomRequest struct {
	DisplayName string `json:"displayName" validate:"max=255"`
	Email       string `json:"email" validate:"omitempty,email,max=320"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

type StartCallRequest struct {
	CallType string `json:"callType" validate:"required,oneof=audio video"`
}

type EndCallRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}
