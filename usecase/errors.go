package usecase

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors surfaced at the API boundary. Callers wrap them with context using %w.
var (
	ErrValidation           = errors.New("validation failed")
	ErrNotAMember           = errors.New("not a member of this conversation")
	ErrPermission           = errors.New("permission denied")
	ErrNotFound             = errors.New("not found")
	ErrDuplicateParticipant = errors.New("participant already in conversation")
	ErrCapacity             = errors.New("conversation is full")
	ErrScopeMismatch        = errors.New("participant tenant does not match conversation scope")
	ErrInvalidReply         = errors.New("reply target is not in this conversation")
	ErrConflict             = errors.New("state conflict")
	ErrPersistence          = errors.New("chat persistence error")
)

func notFound(what string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func persistence(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
