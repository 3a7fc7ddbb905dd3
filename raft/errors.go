package raft

import "errors"

// Contract-violation errors (§7), grouped per package the way
// bundoc/reference_errors.go groups bundoc's sentinel errors.
var (
	// ErrUnknownConsensusVariable is returned by Propose for a variable name
	// not declared in Config.ConsensusVars.
	ErrUnknownConsensusVariable = errors.New("raft: unknown consensus variable")

	// ErrConsensusTypeMismatch is returned by Propose when the value's type
	// disagrees with the variable's declared type.
	ErrConsensusTypeMismatch = errors.New("raft: value does not match declared consensus variable type")

	// ErrInvalidConfig wraps an aggregated list of configuration problems
	// detected at construction (§7 "Invalid Raft configuration").
	ErrInvalidConfig = errors.New("raft: invalid configuration")
)
