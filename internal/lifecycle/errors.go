package lifecycle

import (
	"errors"
	"fmt"
)

var ErrTaskNotFound = errors.New("lifecycle: task not found")

// PersistenceError means the repository rejected a write. In-memory state is
// left as it was before the operation.
type PersistenceError struct {
	Op     string
	TaskID string
	Err    error
}

func (e *PersistenceError) Error() string {
	if e.TaskID == "" {
		return fmt.Sprintf("lifecycle: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("lifecycle: %s %q: %v", e.Op, e.TaskID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func notFound(id string) error {
	return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
}
