package contact

import "github.com/Laisky/errors/v2"

var (
	// ErrInvalidMessage the submitted form failed validation
	ErrInvalidMessage = errors.New("invalid contact message")
	// ErrRelayFailed the message could not be delivered
	ErrRelayFailed = errors.New("failed to send message")
)
