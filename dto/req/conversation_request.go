package req

type ParticipantInput struct {
	UserID            string `json:"userId" validate:"required_without=ExternalContactID"`
	TenantID          string `json:"tenantId"`
	DisplayName       string `json:"displayName" validate:"max=255"`
	ExternalContactID string `json:"externalContactId" validate:"required_without=UserID"`
}

type CreateConversationRequest struct {
	Type         string             `json:"type" validate:"required,oneof=direct group"`
	Scope        string             `json:"scope" validate:"omitempty,oneof=internal external cross_tenant"`
	Name         string             `json:"name" validate:"max=255"`
	AvatarURL    string             `json:"avatarUrl" validate:"omitempty,max=2048"`
	Participants []ParticipantInput `json:"participants" validate:"required,min=1,dive"`
}

type UpdateConversationRequest struct {
	Name               *string `json:"name" validate:"omitempty,max=255"`
	AvatarURL          *string `json:"avatarUrl" validate:"omitempty,max=2048"`
	AllowExternalFiles *bool   `json:"allowExternalFiles"`
	EnableLinkPreviews *bool   `json:"enableLinkPreviews"`
}

type AddParticipantRequest struct {
	ParticipantInput
	ExternalTenant bool   `json:"externalTenant"`
	Role           string `json:"role" validate:"omitempty,oneof=admin member"`
}

type MarkReadRequest struct {
	MessageID string `json:"messageId"`
}

type InviteRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}
