package stenura

import "errors"

// Protocol-level errors, all recoverable: the reader goroutine logs them
// and keeps going rather than tearing down the session.
var (
	ErrBadCRC     = errors.New("stenura: bad CRC")
	ErrBadLength  = errors.New("stenura: bad length")
	ErrUnmatched  = errors.New("stenura: response sequence has no pending request")
	ErrTimeout    = errors.New("stenura: request timed out")
	ErrSessionClosed = errors.New("stenura: session closed")
)
