// Package pass schedules loop passes over functions.
//
// The Manager prepares each function for loop passes: it checks the IR,
// gives every loop a preheader, and computes the dominator tree and the loop
// nest. Then it runs its passes on every loop of the function, innermost loops
// first, one function at a time.
package pass

import (
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/nickng/loopopt/dom"
	"github.com/nickng/loopopt/internal/logging"
	"github.com/nickng/loopopt/ir"
	"github.com/nickng/loopopt/loop"
)

// Analyses are the function analyses available to a LoopPass.
type Analyses struct {
	Func  *ir.Function
	Dom   *dom.Tree
	Loops *loop.Info
}

// LoopPass is a pass invoked once per loop.
type LoopPass interface {
	Name() string
	// RunOnLoop runs the pass on l, a loop with a preheader, and returns true
	// if the pass modified the function.
	RunOnLoop(l *loop.Loop, a *Analyses) bool
}

// Finisher is implemented by passes that buffer output.
type Finisher interface {
	Finish() error
}

// Manager runs LoopPasses.
type Manager struct {
	passes []LoopPass
	*logging.Logger
}

// NewManager returns a Manager running passes in the given order on each
// loop.
func NewManager(passes ...LoopPass) *Manager {
	return &Manager{passes: passes, Logger: logging.Nop()}
}

// SetLogger sets logger for Manager and its passes. A nil l discards the
// logs.
func (m *Manager) SetLogger(l *logging.Logger) {
	l = logging.OrNop(l)
	m.Logger = l.Tagged("pass", color.FgBlue)
	for _, p := range m.passes {
		if ls, ok := p.(logging.LogSetter); ok {
			ls.SetLogger(l)
		}
	}
}

// Prepare checks fn and inserts loop preheaders, then computes the analyses
// of fn.
func (m *Manager) Prepare(fn *ir.Function) (*Analyses, error) {
	if err := ir.Verify(fn); err != nil {
		return nil, errors.Wrapf(err, "malformed function %s", fn.Name)
	}
	dt := dom.Build(fn)
	li := loop.Analyse(fn, dt)
	if n := loop.InsertPreheaders(fn, li); n > 0 {
		m.Debugf("%s %s: inserted %d preheaders", m.Module(), fn.Name, n)
		dt = dom.Build(fn)
		li = loop.Analyse(fn, dt)
	}
	return &Analyses{Func: fn, Dom: dt, Loops: li}, nil
}

// Run prepares fn and runs the passes on its loops. It returns true if any
// pass modified fn.
func (m *Manager) Run(fn *ir.Function) (bool, error) {
	a, err := m.Prepare(fn)
	if err != nil {
		return false, err
	}
	return m.run(a), nil
}

func (m *Manager) run(a *Analyses) bool {
	changed := false
	for _, l := range a.Loops.Postorder() {
		if l.Preheader() == nil {
			m.Warnf("%s %s: skip %s: no preheader", m.Module(), a.Func.Name, l)
			continue
		}
		for _, p := range m.passes {
			if p.RunOnLoop(l, a) {
				m.Debugf("%s %s: %s changed %s", m.Module(), a.Func.Name, p.Name(), l)
				changed = true
			}
		}
	}
	return changed
}

// RunAll runs the passes on fns. Functions are prepared in parallel, at most
// jobs at a time (jobs <= 0 means no limit), and the passes run on them in
// order. Functions that fail to prepare are skipped, and their errors are
// returned together.
func (m *Manager) RunAll(fns []*ir.Function, jobs int) (bool, error) {
	prepared := make([]*Analyses, len(fns))
	errs := make([]error, len(fns))
	var g errgroup.Group
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, fn := range fns {
		i, fn := i, fn
		g.Go(func() error {
			prepared[i], errs[i] = m.Prepare(fn)
			return nil
		})
	}
	g.Wait() // Failures are kept per function in errs.

	changed := false
	for i, a := range prepared {
		if errs[i] != nil {
			m.Warnf("%s %v", m.Module(), errs[i])
			continue
		}
		if m.run(a) {
			changed = true
		}
	}
	return changed, multierr.Combine(errs...)
}

// Finish flushes the output of the passes.
func (m *Manager) Finish() error {
	var err error
	for _, p := range m.passes {
		if f, ok := p.(Finisher); ok {
			err = multierr.Append(err, f.Finish())
		}
	}
	return err
}
