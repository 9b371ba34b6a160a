package enum

type ParticipantType string

const (
	ParticipantInternal     ParticipantType = "internal"
	ParticipantExternalUser ParticipantType = "external_user"
	ParticipantGuest        ParticipantType = "guest"
)

type ParticipantRole string

const (
	RoleOwner  ParticipantRole = "owner"
	RoleAdmin  ParticipantRole = "admin"
	RoleMember ParticipantRole = "member"
)

// CanModerate reports whether the role may archive, remove others or delete foreign messages.
func (r ParticipantRole) CanModerate() bool {
	return r == RoleOwner || r == RoleAdmin
}
