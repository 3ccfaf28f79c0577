package core

import "errors"

// Error codes reported to clients by the transport layer.
const (
	ErrCodeBadRequest     = "bad_request"
	ErrCodeInvalidMessage = "invalid_message"
	ErrCodeRateLimited    = "rate_limited"
	ErrCodeUnauthorized   = "unauthorized"
)

var (
	// ErrUnknownRecipient is returned when no session exists for a user.
	ErrUnknownRecipient = errors.New("unknown recipient")
	// ErrSlowConsumer is returned when a socket's outbound queue is full.
	ErrSlowConsumer = errors.New("slow consumer")
	// ErrLobbyStopped is returned once the control loop has exited.
	ErrLobbyStopped = errors.New("lobby stopped")
	// ErrBadDestination is returned for envelopes that cannot be routed.
	ErrBadDestination = errors.New("bad destination")
)
