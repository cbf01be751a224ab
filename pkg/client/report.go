package client

import (
	"errors"

	"github.com/ScorpioXKiller/client-backup-app/pkg/localfs"
	"github.com/ScorpioXKiller/client-backup-app/pkg/protocol"
	"github.com/ScorpioXKiller/client-backup-app/pkg/transport"
)

// Op names one logical client operation.
type Op string

const (
	OpList    Op = "list"
	OpBackup  Op = "backup"
	OpRestore Op = "restore"
	OpDelete  Op = "delete"
)

// FileOutcome is the result for one filename within a batch. Files after a
// fatal abort are reported with Attempted false.
type FileOutcome struct {
	Name      string
	Attempted bool
	OK        bool
	// Status is the server's verdict when a response was read; zero when the
	// failure happened before one arrived.
	Status protocol.StatusCode
	Err    error
}

// Reason labels the outcome for logs and metrics.
func (o FileOutcome) Reason() string {
	switch {
	case !o.Attempted:
		return "not-attempted"
	case o.OK:
		return "success"
	case o.Status != 0:
		return o.Status.String()
	case errors.Is(o.Err, localfs.ErrFileAccess):
		return "file-access"
	case errors.Is(o.Err, protocol.ErrTooLarge):
		return "too-large"
	case errors.Is(o.Err, protocol.ErrVersionMismatch):
		return "version-mismatch"
	case errors.Is(o.Err, protocol.ErrMalformed):
		return "malformed"
	case errors.Is(o.Err, transport.ErrIO):
		return "io"
	default:
		return "error"
	}
}

// Report is the final per-file outcome list for one batch operation. The
// caller always receives it, even when some or all files failed.
type Report struct {
	Op       Op
	Outcomes []FileOutcome
	// Err is the fatal error that aborted the operation, nil if every file
	// was attempted.
	Err error
}

// OK is the operation-level flag: false whenever any file failed or a fatal
// error occurred.
func (r *Report) OK() bool {
	if r.Err != nil {
		return false
	}
	for _, o := range r.Outcomes {
		if !o.OK {
			return false
		}
	}
	return true
}

// Failed returns the outcomes that did not succeed.
func (r *Report) Failed() []FileOutcome {
	var out []FileOutcome
	for _, o := range r.Outcomes {
		if !o.OK {
			out = append(out, o)
		}
	}
	return out
}
