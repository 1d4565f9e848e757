package errors

import (
	"errors"

	"preflight/internal/preflight"
	"preflight/internal/scene"
)

// FromPreflight translates the fatal errors of a preflight run into coded errors.
// A scene that cannot be read or decoded is a validation error; a scene without
// render jobs fails the precondition of having a default camera. Other errors are
// wrapped as internal. A nil error stays nil.
func FromPreflight(err error, op string) error {
	if err == nil {
		return nil
	}

	var queryErr *preflight.SceneQueryError
	if errors.As(err, &queryErr) {
		return WrapWithCode(err, CodeValidation, op, "scene could not be inspected").
			WithField("query", queryErr.Op)
	}

	var decodeErr *scene.DecodeError
	if errors.As(err, &decodeErr) {
		return WrapWithCode(err, CodeValidation, op, "scene export is invalid").
			WithField("format", string(decodeErr.Format)).
			WithField("detail", decodeErr.Err.Error())
	}

	var noJobs *preflight.NoJobsError
	if errors.As(err, &noJobs) {
		return WrapWithCode(err, CodeFailedPrecond, op, "scene has no render jobs")
	}

	return Wrap(err, op, "preflight failed")
}
