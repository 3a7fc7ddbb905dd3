package raft

import (
	"errors"
	"fmt"
)

// Mode selects how the majority denominator N is computed (§4.10).
type Mode int

const (
	// Classic uses the total count of known nodes, regardless of failures.
	Classic Mode = iota
	// FaultTolerant uses the failure detector's currently active node count.
	FaultTolerant
)

func (m Mode) String() string {
	if m == FaultTolerant {
		return "fault_tolerant"
	}
	return "classic"
}

// ConsensusVarType is a declared type for a named consensus variable,
// checked against proposed values via the JSON-Schema-backed TypeChecker
// (schema.go).
type ConsensusVarType string

const (
	TypeString  ConsensusVarType = "string"
	TypeNumber  ConsensusVarType = "number"
	TypeBoolean ConsensusVarType = "boolean"
	TypeObject  ConsensusVarType = "object"
	TypeArray   ConsensusVarType = "array"
)

// ConsensusVarSpec names one replicated variable and its declared type.
type ConsensusVarSpec struct {
	Name string
	Type ConsensusVarType
}

// FailureDetectionConfig configures the leader-side failure detector
// (§4.10 "Failure detection").
type FailureDetectionConfig struct {
	// FailureThreshold consecutive failed heartbeat rounds mark a peer FAILED.
	FailureThreshold int
	// RecoveryThreshold consecutive successful rounds mark a peer ACTIVE again.
	RecoveryThreshold int
	// DetectionInterval is the number of heartbeat rounds between sweeps.
	DetectionInterval int
	// HeartbeatTimeoutMultiplier, if > 0, sets the per-peer response timeout
	// to this multiple of Config.HeartbeatIntervalMs. Ignored when
	// HeartbeatTimeoutMs is set directly.
	HeartbeatTimeoutMultiplier float64
	// HeartbeatTimeoutMs, if > 0, is an absolute response timeout in
	// milliseconds, taking precedence over HeartbeatTimeoutMultiplier.
	HeartbeatTimeoutMs float64
}

// Config configures a raft.Node (§4.10). Timeouts and intervals are
// expressed in milliseconds to match the spec's configuration surface; the
// node converts to seconds at the event-loop boundary (§9 "Time arithmetic").
type Config struct {
	ElectionTimeoutMinMs float64
	ElectionTimeoutMaxMs float64
	HeartbeatIntervalMs  float64

	Mode          Mode
	ConsensusVars []ConsensusVarSpec

	FailureDetection FailureDetectionConfig
}

// DefaultConfig returns a Config matching scenario 5's CLASSIC 3-node
// cluster: Tmin=150, Tmax=300, heartbeat=50.
func DefaultConfig() *Config {
	return &Config{
		ElectionTimeoutMinMs: 150,
		ElectionTimeoutMaxMs: 300,
		HeartbeatIntervalMs:  50,
		Mode:                 Classic,
		FailureDetection: FailureDetectionConfig{
			FailureThreshold:           3,
			RecoveryThreshold:          2,
			DetectionInterval:          4,
			HeartbeatTimeoutMultiplier: 3,
		},
	}
}

// Validate aggregates every configuration problem into a single error
// wrapping ErrInvalidConfig (§7 "aggregated list of issues is raised"),
// or returns nil if cfg is well-formed.
func (c *Config) Validate() error {
	var problems []error

	if c.ElectionTimeoutMinMs >= c.ElectionTimeoutMaxMs {
		problems = append(problems, fmt.Errorf("election timeout min (%v) must be < max (%v)", c.ElectionTimeoutMinMs, c.ElectionTimeoutMaxMs))
	}
	if c.HeartbeatIntervalMs >= c.ElectionTimeoutMinMs {
		problems = append(problems, fmt.Errorf("heartbeat interval (%v) must be < election timeout min (%v)", c.HeartbeatIntervalMs, c.ElectionTimeoutMinMs))
	}
	if c.FailureDetection.FailureThreshold <= 0 {
		problems = append(problems, errors.New("failure_threshold must be positive"))
	}
	if c.FailureDetection.RecoveryThreshold <= 0 {
		problems = append(problems, errors.New("recovery_threshold must be positive"))
	}
	if c.FailureDetection.DetectionInterval <= 0 {
		problems = append(problems, errors.New("detection_interval must be positive"))
	}
	if c.FailureDetection.HeartbeatTimeoutMs <= 0 && c.FailureDetection.HeartbeatTimeoutMultiplier <= 0 {
		problems = append(problems, errors.New("one of heartbeat_timeout_ms or heartbeat_timeout_multiplier must be positive"))
	}
	seen := make(map[string]bool, len(c.ConsensusVars))
	for _, v := range c.ConsensusVars {
		if v.Name == "" {
			problems = append(problems, errors.New("consensus variable name must not be empty"))
			continue
		}
		if seen[v.Name] {
			problems = append(problems, fmt.Errorf("duplicate consensus variable %q", v.Name))
		}
		seen[v.Name] = true
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
}

// heartbeatTimeoutMs resolves the failure detector's per-peer timeout.
func (c *Config) heartbeatTimeoutMs() float64 {
	if c.FailureDetection.HeartbeatTimeoutMs > 0 {
		return c.FailureDetection.HeartbeatTimeoutMs
	}
	return c.FailureDetection.HeartbeatTimeoutMultiplier * c.HeartbeatIntervalMs
}
