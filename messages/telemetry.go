package messages

import "github.com/kartikbazzad/gradysim/geometry"

// Telemetry is emitted by the mobility handler on every tick (§3, §6).
type Telemetry struct {
	CurrentPosition geometry.Point `json:"current_position"`
}
