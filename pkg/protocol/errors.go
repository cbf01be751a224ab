package protocol

import (
	"errors"
	"fmt"
)

// ErrMalformed marks bytes that violate the wire format: short headers, codes
// outside the closed sets, declared lengths past the hard limits. It always
// aborts the current operation.
var ErrMalformed = errors.New("malformed message")

// ErrVersionMismatch marks a response whose version differs from ours. The
// operation stops immediately; nothing further is sent on the connection.
var ErrVersionMismatch = errors.New("protocol version mismatch")

// ErrTooLarge marks content that cannot be declared in the u32 size field.
// Caught before anything is sent, so the connection stays usable.
var ErrTooLarge = errors.New("content exceeds protocol size limit")

// StatusError carries a non-success server status for a single file. It is
// recorded against that file's outcome and never aborts the batch.
type StatusError struct {
	Status StatusCode
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server status %d (%s)", uint16(e.Status), e.Status)
}

func malformed(format string, a ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, a...))
}
