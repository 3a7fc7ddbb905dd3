package simulator

import "errors"

// Contract-violation errors (§7): raised to the caller, never recovered
// internally.
var (
	ErrUnknownNode       = errors.New("simulator: unknown node id")
	ErrHandlerNotFound   = errors.New("simulator: no handler registered with that label")
	ErrAlreadyBuilt      = errors.New("simulator: builder already consumed")
	ErrAssertionFailed   = errors.New("simulator: assertion failed")
)

// ErrRegisterBeforeInject is returned by a Handler's RegisterNode when a
// node is registered before the handler has been injected (§4.3).
var ErrRegisterBeforeInject = errors.New("simulator: node registered before handler injection")
