package knowledge

import (
	"errors"
	"fmt"
)

var (
	ErrSessionNotFound = errors.New("chat session not found")
	ErrSessionDeleted  = errors.New("chat session has been deleted")
	ErrSuperseded      = errors.New("query superseded by a newer one for the same session")
	ErrUnknownSource   = errors.New("unknown source type")
)

// PersistenceError is the one fatal failure category: the session store
// could not read or record a turn.
type PersistenceError struct {
	Op        string
	SessionID string
	Err       error
}

func (e *PersistenceError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("session store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("session store %s (session %s): %v", e.Op, e.SessionID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err unless it already is a PersistenceError
func NewPersistenceError(op, sessionID string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PersistenceError
	if errors.As(err, &pe) {
		return err
	}
	return &PersistenceError{Op: op, SessionID: sessionID, Err: err}
}

// IsPersistenceError reports whether err belongs to the fatal category
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// AdapterError describes a failed or panicking source adapter call
type AdapterError struct {
	Source SourceType
	Err    error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("source adapter %s: %v", e.Source, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}
