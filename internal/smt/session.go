package smt

import (
	"fmt"

	"github.com/aclements/go-z3/z3"

	"github.com/dgpv/bsst/internal/value"
)

// Mode selects between the incremental and reset solving strategies
// described in spec.md §4.6.
type Mode int

const (
	// ModeReset creates a fresh solver per check and re-asserts the full
	// accumulated predicate set; this is the default and plays well with
	// parallel racing since each attempt is an independent solver.
	ModeReset Mode = iota
	// ModeIncremental keeps one solver per path with a push/pop frame per
	// branch depth; cheaper forks, weaker per-check tactics.
	ModeIncremental
)

// Backend owns the Z3 context shared by every Session it creates.
type Backend struct {
	ctx *z3.Context
}

// NewBackend constructs a Z3 context with default configuration.
func NewBackend() *Backend {
	cfg := z3.NewContextConfig()
	return &Backend{ctx: z3.NewContext(cfg)}
}

// NewSession starts a solving session in the given mode.
func (b *Backend) NewSession(mode Mode) *Session {
	return &Session{
		ctx:      b.ctx,
		mode:     mode,
		solver:   z3.NewSolver(b.ctx),
		lowering: newLowering(b.ctx),
		tracked:  map[string]*value.Value{},
	}
}

// Session is one solver frame attached to a path's Context (the "solver
// state" field in spec.md §3). In incremental mode it wraps a single z3
// solver with push/pop matching branch depth; in reset mode each Check call
// discards and rebuilds the solver from the full conjunct list handed to it.
type Session struct {
	ctx      *z3.Context
	mode     Mode
	solver   *z3.Solver
	lowering *lowering

	// trackedCounter and tracked back AssertTracked / unsat-core decoding.
	trackedCounter int
	tracked        map[string]*value.Value
}

// Push opens a new incremental frame; a no-op in reset mode, where the frame
// discipline is simulated by the caller re-supplying the full conjunct list
// on every Check.
func (s *Session) Push() {
	if s.mode == ModeIncremental {
		s.solver.Push()
	}
}

// Pop closes the most recently opened incremental frame.
func (s *Session) Pop() {
	if s.mode == ModeIncremental {
		s.solver.Pop(1)
	}
}

// Assert adds an untracked conjunct.
func (s *Session) Assert(v *value.Value) {
	s.solver.Assert(s.lowering.Bool(v))
}

// AssertTracked adds a conjunct tagged with a fresh tracking name so that,
// should the overall query turn out unsat, the name can appear in the
// returned unsat core and be mapped back to v's originating FailKind by the
// caller (spec.md §4.6 "Tracked assertions and error codes").
func (s *Session) AssertTracked(v *value.Value) string {
	s.trackedCounter++
	name := fmt.Sprintf("t%d", s.trackedCounter)
	s.tracked[name] = v
	s.solver.AssertAndTrack(s.lowering.Bool(v), s.ctx.BoolConst(name))
	return name
}

// CheckSatWith resets the solver (in reset mode) to exactly the given
// conjuncts plus any tracked assertions already registered, then checks
// satisfiability.
func (s *Session) CheckSatWith(conjuncts []*value.Value) (Result, error) {
	if s.mode == ModeReset {
		s.solver.Reset()
		for _, c := range conjuncts {
			s.solver.Assert(s.lowering.Bool(c))
		}
		for name, v := range s.tracked {
			s.solver.AssertAndTrack(s.lowering.Bool(v), s.ctx.BoolConst(name))
		}
	}
	return s.check()
}

func (s *Session) check() (Result, error) {
	ok, err := s.solver.Check()
	if err != nil {
		return Unknown, err
	}
	if ok {
		return Sat, nil
	}
	// z3's Check returning false with no error means either unsat or
	// unknown; distinguish via the reason-unknown string being empty.
	if reason := s.solver.ReasonUnknown(); reason != "" {
		return Unknown, nil
	}
	return Unsat, nil
}

// UnsatCore returns the tracked-assertion names implicated in the most
// recent unsat result.
func (s *Session) UnsatCore() []string {
	core := s.solver.UnsatCore()
	names := make([]string, len(core))
	for i, c := range core {
		names[i] = c.String()
	}
	return names
}

// TrackedValue maps a tracking name back to the value.Value it guarded.
func (s *Session) TrackedValue(name string) (*value.Value, bool) {
	v, ok := s.tracked[name]
	return v, ok
}

// EnumerateDistinct asks for up to n distinct satisfying assignments of
// target under the given constraint set, implementing the sampling loop of
// spec.md §4.4 step 3 (assert current predicate, solve, pin a distinct
// value, repeat).
func (s *Session) EnumerateDistinct(conjuncts []*value.Value, target *value.Value, n int) ([]int64, error) {
	s.solver.Reset()
	for _, c := range conjuncts {
		s.solver.Assert(s.lowering.Bool(c))
	}
	z3target := s.lowering.Int(target)

	var out []int64
	for len(out) < n {
		ok, err := s.solver.Check()
		if err != nil {
			return out, err
		}
		if !ok {
			break
		}
		model := s.solver.Model()
		val := model.Eval(z3target, true).(z3.Int)
		n64, exact := val.AsInt64()
		if !exact {
			break
		}
		out = append(out, n64)
		s.solver.Assert(z3target.NE(val))
	}
	return out, nil
}

// Model returns a concrete value for v under the last satisfying
// assignment, used for `--produce-model-values`.
func (s *Session) Model(v *value.Value) (int64, bool) {
	model := s.solver.Model()
	if model == nil {
		return 0, false
	}
	val := model.Eval(s.lowering.Int(v), true).(z3.Int)
	n, exact := val.AsInt64()
	return n, exact
}

// Close releases resources held by the session's solver.
func (s *Session) Close() {
	// z3.Solver instances are finalizer-managed (see the go-z3 package
	// documentation); nothing to release explicitly here.
}
