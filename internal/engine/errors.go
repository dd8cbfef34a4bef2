package engine

import "fmt"

// ValidationError reports bad or missing input caught before any write. Safe
// to retry after correction.
type ValidationError struct {
	Field string
	Msg   string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

// PartialFailureError reports that the second step of creation failed and the
// compensating delete was attempted. The original failure is kept as the
// cause; whether the compensation itself succeeded is recorded but the
// original error is what surfaces.
type PartialFailureError struct {
	Err           error
	Compensated   bool
	CompensateErr error
}

func (e PartialFailureError) Error() string {
	if e.Compensated {
		return fmt.Sprintf("assignee insert failed (item rolled back): %v", e.Err)
	}
	return fmt.Sprintf("assignee insert failed (rollback also failed, orphan may persist): %v", e.Err)
}

func (e PartialFailureError) Unwrap() error { return e.Err }
