package lego

import "errors"

var (
	// ErrCoincidentCenters is returned when two disks overlap with (nearly) the same centre, so there
	// is no direction to redirect along.
	ErrCoincidentCenters = errors.New("disk centres coincide; redirection direction undefined")

	// ErrUnresolvedWallContact is returned when a disk passes the wall broad-phase test but lies in a
	// corner region (or inside the wall), where neither face correction applies.
	ErrUnresolvedWallContact = errors.New("wall contact in corner region; no face correction applied")

	// ErrRoundActive is returned by Launch when a round is already in play.
	ErrRoundActive = errors.New("round already active")

	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
