// Package pipeline holds the error taxonomy shared by the job executors
// and the upload finalizers. Executors wrap these sentinels with
// pkg/errors so the worker loop can classify failures with errors.Is.
package pipeline

import "github.com/pkg/errors"

var (
	// ErrBadPayload marks a malformed or incomplete job payload. Never
	// retried; the job goes straight to dead.
	ErrBadPayload = errors.New("bad_payload")
	// ErrNotFound marks a missing referenced entity (track, upload,
	// export). Only genuine absence maps here; an unreachable store is
	// ErrDBFailure. Never retried.
	ErrNotFound = errors.New("not_found")
	// ErrSizeMismatch: declared and actual byte counts disagree at upload
	// finalization.
	ErrSizeMismatch = errors.New("size_mismatch")
	// ErrTransportNotFound: the resumable server's assembled bytes cannot
	// be located.
	ErrTransportNotFound = errors.New("transport_not_found")
	// ErrStorageFailure: object-storage API error, retryable.
	ErrStorageFailure = errors.New("storage_failure")
	// ErrToolFailure: probe/convert exited non-zero, retryable.
	ErrToolFailure = errors.New("tool_failure")
	// ErrDBFailure: persistence layer unavailable, retryable.
	ErrDBFailure = errors.New("db_failure")
)

// Permanent reports whether err can never succeed on retry.
func Permanent(err error) bool {
	return errors.Is(err, ErrBadPayload) || errors.Is(err, ErrNotFound)
}
