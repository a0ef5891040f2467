package models

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrConversationNotFound = errors.New("conversation not found")
	ErrConversationExists   = errors.New("conversation already exists")
	ErrMessageNotFound      = errors.New("message not found")
	ErrMediaNotFound        = errors.New("media not found")
	ErrMediaAlreadyLinked   = errors.New("media already linked")
	ErrNotMessageSender     = errors.New("only the sender may modify this message")
)

// ValidationError reports a malformed or missing request field before any
// persistence happens.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid field %q: %s", e.Field, e.Reason)
}
