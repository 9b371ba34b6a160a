package entity

import "time"

// ExternalContact is a non-tenant person (client, partner) who chats as a guest.
type ExternalContact struct {
	BaseEntity
	TenantID        string     `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	Name            string     `json:"name" gorm:"type:varchar(255)"`
	Email           string     `json:"email" gorm:"type:varchar(320);index"`
	Company         string     `json:"company,omitempty" gorm:"type:varchar(255)"`
	LastContactedAt *time.Time `json:"lastContactedAt"`
}
