package followmobility

import "errors"

// ErrLeaderUnavailable is returned by FollowLeader for a leader id that
// hasn't broadcast recently enough to be considered available.
var ErrLeaderUnavailable = errors.New("followmobility: leader not available")
