package simulator

// Options configures a Simulator (§6 Runner API). Shape mirrors
// bundoc.Options/bundoc.DefaultOptions: a plain struct plus a constructor
// filling in defaults, consumed by a Builder rather than parsed from flags
// (CLI runners are an out-of-scope external collaborator, spec.md §1).
type Options struct {
	// Duration, if non-nil, stops the run once current time exceeds it
	// (§4.2 termination predicate).
	Duration *float64

	// MaxIterations, if non-nil, stops the run once this many steps have
	// executed.
	MaxIterations *int

	// RealTimeFactor, if > 0, paces step() with wall-clock sleeps so that
	// one simulated second takes 1/RealTimeFactor wall seconds (§4.2).
	// Zero (the default) disables pacing.
	RealTimeFactor float64

	// Debug enables DEBUG-level log records.
	Debug bool

	// LogFile, if non-empty, additionally writes log records to this path.
	LogFile string

	// ExecutionLogging enables per-step INFO records describing the event
	// being dispatched.
	ExecutionLogging bool

	// Profile enables the Prometheus-backed step/event metrics described
	// in SPEC_FULL.md's DOMAIN STACK.
	Profile bool
}

// DefaultOptions returns an Options with pacing and profiling disabled and
// no duration/iteration bound (the loop runs until it drains).
func DefaultOptions() *Options {
	return &Options{}
}

func (o *Options) durationExceeded(currentTime float64) bool {
	return o.Duration != nil && currentTime > *o.Duration
}

func (o *Options) iterationsExhausted(iterations int) bool {
	return o.MaxIterations != nil && iterations >= *o.MaxIterations
}
