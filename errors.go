package memory

import (
	"errors"
	"fmt"

	"github.com/lmemory/memory/embed"
	"github.com/lmemory/memory/ingest"
	"github.com/lmemory/memory/store"
	"github.com/lmemory/memory/vector"
)

// Sentinel error kinds, matching the wire error taxonomy: every error the
// core returns to a caller wraps exactly one of these via errors.Is.
var (
	// ErrInvalidInput marks caller-supplied input that fails a basic
	// precondition (empty text, malformed id, bad config value).
	ErrInvalidInput = errors.New("memory: invalid input")

	// ErrInvalidParams marks a missing or malformed RPC argument.
	ErrInvalidParams = errors.New("memory: invalid params")

	// ErrEmbedderFailure marks an error returned by the embedder
	// collaborator. Callers may retry.
	ErrEmbedderFailure = errors.New("memory: embedder failure")

	// ErrStorageFailure marks an I/O or consistency error from the backing
	// store.
	ErrStorageFailure = errors.New("memory: storage failure")

	// ErrNotFound marks an inspect of an unknown (or expired) id. Engine.Delete
	// does not return it; it reports an unknown id as false instead.
	ErrNotFound = errors.New("memory: not found")

	// ErrInternal marks an invariant violation or unreachable branch: a
	// bug, not a caller mistake.
	ErrInternal = errors.New("memory: internal error")
)

// Error is the typed error every public Engine method returns. Kind is
// always one of the sentinel errors above; errors.Is(err, ErrXxx) and
// errors.As(err, &memory.Error{}) both work as expected.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("memory: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("memory: %s: %s", e.Op, e.Kind)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As chains.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target matches this error's Kind, so
// errors.Is(err, memory.ErrNotFound) works without unwrapping to *Error.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func newError(op string, kind error, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// translateError normalizes an error from a subordinate package (store,
// vector, embed) into the *Error taxonomy at the Engine boundary. A
// kDegenerateVector condition (vector.ErrDegenerateVector) is handled
// inside the funnel; if one does reach this boundary it is reported as
// ErrInternal.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, store.ErrNotFound) {
		return newError(op, ErrNotFound, err)
	}
	if errors.Is(err, ingest.ErrEmptyText) {
		return newError(op, ErrInvalidInput, err)
	}
	if errors.Is(err, embed.ErrEmbedderFailure) {
		return newError(op, ErrEmbedderFailure, err)
	}
	if errors.Is(err, vector.ErrDegenerateVector) {
		return newError(op, ErrInternal, err)
	}
	var dimErr *vector.ErrInvalidDimension
	if errors.As(err, &dimErr) {
		return newError(op, ErrInvalidInput, err)
	}

	var existing *Error
	if errors.As(err, &existing) {
		return err
	}

	return newError(op, ErrStorageFailure, err)
}
