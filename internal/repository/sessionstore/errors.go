package sessionstore

import (
	"errors"

	"dashboard-assistant-be/pkg/knowledge"
)

// isLifecycleError is true for expected outcomes that are not store faults
func isLifecycleError(err error) bool {
	return errors.Is(err, knowledge.ErrSessionNotFound) || errors.Is(err, knowledge.ErrSessionDeleted)
}
