package kinematics

import "errors"

var (
	// ErrUnreachable is returned when the wrist center lies outside the
	// shoulder/elbow workspace.
	ErrUnreachable = errors.New("target unreachable")

	// ErrNotConverged is returned by the numeric solver when the iteration
	// budget runs out before the tolerances are met.
	ErrNotConverged = errors.New("solver did not converge")
)
