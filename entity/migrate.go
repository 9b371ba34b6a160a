package entity

import (
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

var NamingStrategy = schema.NamingStrategy{
	TablePrefix:   "t_",
	SingularTable: true,
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Conversation{},
		&Participant{},
		&Message{},
		&Attachment{},
		&MessageReaction{},
		&ExternalContact{},
		&Invitation{},
		&CallLog{},
		&MeetingRoom{},
		&WaitingRoomEntry{},
	)
}
