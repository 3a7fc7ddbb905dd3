// Package assertion reinstates the assertion handler dropped by the
// distillation of spec.md: a handler that checks boolean expressions
// against every node's tracked-variables mapping at each step boundary and
// halts the run with a diagnostic when one fails (§7 "Failed assertion
// hooks"). Where the original (original_source/gradysim/simulator/handler/
// assertion.py) wraps Python predicate functions in decorators, this
// package follows bundoc/rules/engine.go's RulesEngine instead: boolean
// expressions compiled once with github.com/google/cel-go and evaluated
// against a CEL activation built from simulator state rather than a
// request/resource document.
package assertion

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/kartikbazzad/gradysim/eventloop"
	"github.com/kartikbazzad/gradysim/simulator"
)

// Kind selects how a Spec's expression must hold across the run, mirroring
// the two decorator families in the original (assert_always_true_for_*
// and assert_eventually_true_for_*).
type Kind int

const (
	// AlwaysTrue fails the run at the first step where the expression
	// evaluates to false.
	AlwaysTrue Kind = iota
	// EventuallyTrue only fails at Finalize, and only if the expression
	// never once evaluated to true during the run.
	EventuallyTrue
)

// Spec declares one boolean CEL expression checked at every step boundary.
// The expression sees a single bound variable, `nodes`: a list with one
// entry per registered node, each entry a map with an `id` (int) and a
// `vars` field holding that node's tracked-variables snapshot (§4.4).
type Spec struct {
	Name        string
	Description string
	Expression  string
	Kind        Kind
}

type compiledSpec struct {
	spec      Spec
	program   cel.Program
	satisfied bool
}

// Handler evaluates every registered Spec's CEL expression against the
// tracked-variables mapping of every node at each step boundary (§7).
// Providers don't interact with this handler; it only observes simulation
// state, the same passive role the original's AssertionHandler plays.
type Handler struct {
	env   *cel.Env
	specs []*compiledSpec
	nodes []*simulator.Node
}

// New compiles every spec's expression once against a shared CEL
// environment, failing fast on a compile error instead of at the first
// step.
func New(specs []Spec) (*Handler, error) {
	env, err := cel.NewEnv(cel.Variable("nodes", cel.ListType(cel.DynType)))
	if err != nil {
		return nil, fmt.Errorf("assertion: building CEL environment: %w", err)
	}

	h := &Handler{env: env}
	for _, s := range specs {
		ast, issues := env.Compile(s.Expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("assertion %q: compiling %q: %w", s.Name, s.Expression, issues.Err())
		}
		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("assertion %q: building program: %w", s.Name, err)
		}
		h.specs = append(h.specs, &compiledSpec{spec: s, program: prg})
	}
	return h, nil
}

func (h *Handler) Label() string { return "assertion" }

func (h *Handler) Inject(loop *eventloop.EventLoop) {}

// RegisterNode adds node to the set every Spec is checked against.
// Providers don't interact with this handler, so there is nothing for it
// to fail on (unlike communication/mobility/timer's RegisterNode).
func (h *Handler) RegisterNode(node *simulator.Node) error {
	h.nodes = append(h.nodes, node)
	return nil
}

// AfterStep evaluates every AlwaysTrue spec and records whether every
// EventuallyTrue spec has been satisfied yet, returning ErrAssertionFailed
// (wrapped with the failing spec's name) the first time an AlwaysTrue
// expression evaluates to false.
func (h *Handler) AfterStep(iteration int, timestamp float64) error {
	if len(h.specs) == 0 {
		return nil
	}
	activation := map[string]any{"nodes": h.snapshotNodes()}

	for _, cs := range h.specs {
		out, _, err := cs.program.Eval(activation)
		if err != nil {
			return fmt.Errorf("%w: %q: evaluating: %v", simulator.ErrAssertionFailed, cs.spec.Name, err)
		}
		ok, isBool := out.Value().(bool)
		if !isBool {
			return fmt.Errorf("%w: %q: expression must return a boolean", simulator.ErrAssertionFailed, cs.spec.Name)
		}

		switch cs.spec.Kind {
		case AlwaysTrue:
			if !ok {
				return assertionError(cs.spec, "failed", iteration, timestamp)
			}
		case EventuallyTrue:
			if ok {
				cs.satisfied = true
			}
		}
	}
	return nil
}

// Finalize fails for any EventuallyTrue spec that never once evaluated to
// true during the run.
func (h *Handler) Finalize() error {
	for _, cs := range h.specs {
		if cs.spec.Kind == EventuallyTrue && !cs.satisfied {
			return fmt.Errorf("%w: %q%s never held during the run", simulator.ErrAssertionFailed, cs.spec.Name, describe(cs.spec))
		}
	}
	return nil
}

func (h *Handler) snapshotNodes() []map[string]any {
	out := make([]map[string]any, 0, len(h.nodes))
	for _, n := range h.nodes {
		entry := map[string]any{"id": n.ID}
		if tv, ok := n.TrackedVariables(); ok {
			entry["vars"] = tv.Snapshot()
		} else {
			entry["vars"] = map[string]any{}
		}
		out = append(out, entry)
	}
	return out
}

func assertionError(spec Spec, verb string, iteration int, timestamp float64) error {
	return fmt.Errorf("%w: %q%s %s [iteration=%d timestamp=%v]", simulator.ErrAssertionFailed, spec.Name, describe(spec), verb, iteration, timestamp)
}

func describe(spec Spec) string {
	if spec.Description == "" {
		return ""
	}
	return " (" + spec.Description + ")"
}

var _ simulator.Handler = (*Handler)(nil)
var _ simulator.AfterStepper = (*Handler)(nil)
var _ simulator.Finalizer = (*Handler)(nil)
