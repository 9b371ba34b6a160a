package enum

type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
	InvitationExpired  InvitationStatus = "expired"
)

type CallType string

const (
	CallAudio CallType = "audio"
	CallVideo CallType = "video"
)

type CallStatus string

const (
	CallRinging  CallStatus = "ringing"
	CallOngoing  CallStatus = "ongoing"
	CallEnded    CallStatus = "ended"
	CallMissed   CallStatus = "missed"
	CallDeclined CallStatus = "declined"
	CallNoAnswer CallStatus = "no_answer"
)

// IsTerminal reports whether no further transition is allowed.
func (s CallStatus) IsTerminal() bool {
	switch s {
	case CallEnded, CallMissed, CallDeclined, CallNoAnswer:
		return true
	}
	return false
}

type WaitingStatus string

const (
	WaitingPending  WaitingStatus = "waiting"
	WaitingAdmitted WaitingStatus = "admitted"
	WaitingRejected WaitingStatus = "rejected"
)
