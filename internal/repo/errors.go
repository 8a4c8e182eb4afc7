package repo

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidConversationID = errors.New("invalid conversation ID: cannot be empty")
	ErrInvalidUserID         = errors.New("invalid user ID: cannot be empty")
	ErrInvalidMessage        = errors.New("invalid message: message cannot be nil")
)
