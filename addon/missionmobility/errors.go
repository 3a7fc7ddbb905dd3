package missionmobility

import "errors"

// ErrNoMissionInProgress is returned by methods that require an active
// mission when none is in progress.
var ErrNoMissionInProgress = errors.New("missionmobility: no mission in progress")

// ErrWaypointOutOfBounds is returned by SetCurrentWaypoint for an index
// outside the current mission.
var ErrWaypointOutOfBounds = errors.New("missionmobility: waypoint index out of bounds")

// ErrReverseNotSupported is returned by SetReversed when the mission's
// Config.Loop isn't Reverse.
var ErrReverseNotSupported = errors.New("missionmobility: mission is not configured to loop in reverse")
