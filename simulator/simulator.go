package simulator

import (
	"errors"
	"time"

	"github.com/kartikbazzad/gradysim/encapsulator"
	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/geometry"
	"github.com/kartikbazzad/gradysim/protocol"
	"github.com/kartikbazzad/gradysim/simulator/metrics"
)

// pendingNode is a node registration deferred until Build, since wiring its
// Provider requires every handler to already be injected (§4.2).
type pendingNode struct {
	position geometry.Point
	proto    protocol.Protocol
}

// Builder assembles handlers and node protocols before producing a
// Simulator. Shape follows bundoc.Database's construct-then-open pattern:
// configuration accumulates on the Builder, validation and wiring happen
// once in Build.
type Builder struct {
	opts         *Options
	handlers     []Handler
	handlerOrder []string
	pendingNodes []pendingNode
	built        bool
}

// NewBuilder returns a Builder. opts may be nil, meaning DefaultOptions().
func NewBuilder(opts *Options) *Builder {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Builder{opts: opts}
}

// AddHandler registers a handler by its Label (§4.3); labels must be unique.
func (b *Builder) AddHandler(h Handler) *Builder {
	b.handlers = append(b.handlers, h)
	b.handlerOrder = append(b.handlerOrder, h.Label())
	return b
}

// AddNode queues a protocol instance for node creation at Build time and
// returns its id, assigned by insertion order starting at 0 (§3).
func (b *Builder) AddNode(position geometry.Point, proto protocol.Protocol) int {
	id := len(b.pendingNodes)
	b.pendingNodes = append(b.pendingNodes, pendingNode{position: position, proto: proto})
	return id
}

// Build wires every handler and node into a Simulator and runs
// Protocol.Initialize(0) on every node, in registration order (§4.2). A
// Builder can only be built once.
func (b *Builder) Build() (*Simulator, error) {
	if b.built {
		return nil, ErrAlreadyBuilt
	}
	b.built = true

	logger, err := newLogger(b.opts.Debug, b.opts.LogFile)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if b.opts.Profile {
		m = metrics.New()
	}

	sim := &Simulator{
		loop:     eventloop.New(),
		logger:   logger,
		metrics:  m,
		opts:     b.opts,
		nodes:    make(map[int]*Node),
		handlers: make(map[string]Handler),
	}

	for _, h := range b.handlers {
		if _, exists := sim.handlers[h.Label()]; exists {
			return nil, errors.New("simulator: duplicate handler label " + h.Label())
		}
		sim.handlers[h.Label()] = h
		h.Inject(sim.loop)
	}

	var comm encapsulator.CommunicationSender
	var mob encapsulator.MobilityCommander
	var tmr encapsulator.TimerScheduler
	var clock encapsulator.Clock
	for _, h := range b.handlers {
		if c, ok := h.(encapsulator.CommunicationSender); ok && comm == nil {
			comm = c
		}
		if c, ok := h.(encapsulator.MobilityCommander); ok && mob == nil {
			mob = c
		}
		if c, ok := h.(encapsulator.TimerScheduler); ok && tmr == nil {
			tmr = c
		}
		if c, ok := h.(encapsulator.Clock); ok && clock == nil {
			clock = c
		}
	}

	for id, pending := range b.pendingNodes {
		provider := encapsulator.NewProvider(id, comm, mob, tmr, clock, logger)
		enc := encapsulator.New(pending.proto, provider)
		node := newNode(id, pending.position, enc)
		sim.nodes[id] = node
		sim.nodeOrder = append(sim.nodeOrder, id)

		for _, h := range b.handlers {
			if err := h.RegisterNode(node); err != nil {
				return nil, err
			}
		}
	}

	for _, h := range b.handlers {
		if init, ok := h.(Initializer); ok {
			init.InitializeHandler()
		}
	}

	for _, id := range sim.nodeOrder {
		sim.nodes[id].initialize(0)
	}

	return sim, nil
}

// Simulator drives the event loop built by Builder.Build, per §4.2.
type Simulator struct {
	loop     *eventloop.EventLoop
	logger   *Logger
	metrics  *metrics.Metrics
	opts     *Options
	nodes    map[int]*Node
	nodeOrder []int
	handlers map[string]Handler

	iterations int
	finalized  bool
}

// GetNode returns the node with id, or ErrUnknownNode.
func (s *Simulator) GetNode(id int) (*Node, error) {
	node, ok := s.nodes[id]
	if !ok {
		return nil, ErrUnknownNode
	}
	return node, nil
}

// GetHandler returns the handler registered under label, or
// ErrHandlerNotFound.
func (s *Simulator) GetHandler(label string) (Handler, error) {
	h, ok := s.handlers[label]
	if !ok {
		return nil, ErrHandlerNotFound
	}
	return h, nil
}

// CurrentTime returns the event loop's current simulated time.
func (s *Simulator) CurrentTime() float64 { return s.loop.CurrentTime() }

// Done reports whether the termination predicate holds (§4.2): the loop is
// empty, the configured duration has been exceeded, or the configured
// iteration cap has been reached.
func (s *Simulator) Done() bool {
	return s.loop.Len() == 0 ||
		s.opts.durationExceeded(s.loop.CurrentTime()) ||
		s.opts.iterationsExhausted(s.iterations)
}

// Step pops and dispatches exactly one event, logging its scope and driving
// every AfterStepper hook, then reports whether the simulation should
// continue (§4.2). Calling Step once Done() is true returns false without
// popping anything.
func (s *Simulator) Step() (bool, error) {
	if s.Done() {
		return false, nil
	}

	started := time.Time{}
	if s.metrics != nil {
		started = wallClockNow()
	}

	ev, err := s.loop.Pop()
	if err != nil {
		return false, err
	}
	s.iterations++

	s.logger.enterScope(s.iterations, ev.Timestamp, ev.Context)
	if s.opts.ExecutionLogging {
		s.logger.Info("dispatching event: " + ev.Context)
	}
	ev.Callback()
	s.logger.exitScope()

	if s.metrics != nil {
		s.metrics.ObserveEvent(ev.Context)
		s.metrics.ObserveStep(wallClockNow().Sub(started))
	}

	for _, h := range s.handlers {
		if hook, ok := h.(AfterStepper); ok {
			if err := hook.AfterStep(s.iterations, ev.Timestamp); err != nil {
				return false, err
			}
		}
	}

	return !s.Done(), nil
}

// Run steps until the termination predicate holds. When Options.RealTimeFactor
// is positive, each step is paced so that simulated time advances no faster
// than RealTimeFactor seconds of simulated time per wall-clock second (§4.2):
// the sleep owed before a step is (next_event.ts - (current_time +
// last_step_wall_duration)) / r, computed from the upcoming event rather than
// the step just taken, so a slow callback eats into the following gap
// instead of being paid for after the fact. A Step or Finalizer error (e.g.
// a failed assertion hook, §7) aborts the run and is returned.
func (s *Simulator) Run() error {
	var lastStepWallSeconds float64
	for {
		if s.opts.RealTimeFactor > 0 {
			if ev, ok := s.loop.Peek(); ok {
				owed := (ev.Timestamp - (s.loop.CurrentTime() + lastStepWallSeconds)) / s.opts.RealTimeFactor
				if owed > 0 {
					sleep(time.Duration(owed * float64(time.Second)))
				}
			}
		}

		stepStart := wallClockNow()
		more, err := s.Step()
		if err != nil {
			return err
		}
		lastStepWallSeconds = wallClockNow().Sub(stepStart).Seconds()

		if !more {
			break
		}
	}
	return s.finalize()
}

// RunUntilDone steps until Done(), without real-time pacing, and finalizes.
// Equivalent to Run with Options.RealTimeFactor == 0.
func (s *Simulator) RunUntilDone() error {
	for !s.Done() {
		if _, err := s.Step(); err != nil {
			return err
		}
	}
	return s.finalize()
}

// finalize calls Protocol.Finish() on every node (in registration order)
// followed by Finalizer.Finalize() on every handler, the reverse of
// initialization order (§4.2). Idempotent; returns the first Finalizer
// error encountered, if any (e.g. an "eventually true" assertion that was
// never satisfied, §7).
func (s *Simulator) finalize() error {
	if s.finalized {
		return nil
	}
	s.finalized = true

	for _, id := range s.nodeOrder {
		s.nodes[id].finish()
	}
	var first error
	for _, h := range s.handlers {
		if fin, ok := h.(Finalizer); ok {
			if err := fin.Finalize(); err != nil && first == nil {
				first = err
			}
		}
	}
	return first
}

// Finalize runs the finalization sequence early, e.g. after a caller-driven
// Step loop that doesn't go through Run/RunUntilDone.
func (s *Simulator) Finalize() error { return s.finalize() }

// Metrics returns the Prometheus-backed profiling surface, or nil if
// Options.Profile was false.
func (s *Simulator) Metrics() *metrics.Metrics { return s.metrics }

var wallClockNow = time.Now
var sleep = time.Sleep
