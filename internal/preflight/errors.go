package preflight

import "fmt"

// SceneQueryError reports that the scene could not be read. It is fatal for a run.
type SceneQueryError struct {
	// Op names the inspector call that failed (e.g. "list jobs").
	Op  string
	Err error
}

func (e *SceneQueryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("scene query failed: %s", e.Op)
	}
	return fmt.Sprintf("scene query failed: %s: %v", e.Op, e.Err)
}

func (e *SceneQueryError) Unwrap() error {
	return e.Err
}

// NoJobsError reports a snapshot without render jobs, for which no default camera exists.
type NoJobsError struct{}

func (e *NoJobsError) Error() string {
	return "scene has no render jobs"
}
