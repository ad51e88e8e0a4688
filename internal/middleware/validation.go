package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidateMessageContent validates message text sent to a session.
func ValidateMessageContent(content string) error {
	if len(content) == 0 {
		return errors.New("text cannot be empty")
	}
	if len(content) > 100000 { // ~100KB limit
		return errors.New("text exceeds maximum length")
	}
	if !utf8.ValidString(content) {
		return errors.New("text must be valid UTF-8")
	}
	return nil
}

// ValidateSessionID validates a session ID.
func ValidateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid session ID format")
	}
	return nil
}

// ValidateMessageID validates a message ID.
func ValidateMessageID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid message ID format")
	}
	return nil
}
