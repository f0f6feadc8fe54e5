// Package optimizer implements the optimization passes that run over the
// basic-block form of Bril functions.
//
// PASSES:
//   - remove_unreachable_blocks: mark blocks without live predecessors dead
//   - dce: tombstone definitions that are never used (whole function)
//   - lvn_dce: local value numbering plus local dead code elimination
//
// Every pass transforms one ir.Func in place. Passes only flip block Live
// flags and replace instructions; they never add or remove blocks or
// edges, and dead instructions are replaced by nop tombstones rather than
// removed so recorded positions stay valid. ir.Func.Linearize drops the
// tombstones at the very end.
package optimizer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"
	"golang.org/x/sync/errgroup"

	"github.com/hassan/brilopt/internal/ir"
)

// ErrUnknownPass is returned by ParsePasses for names outside the pass set.
var ErrUnknownPass = errors.New("unknown pass")

// Pass identifies one optimization pass.
type Pass int

const (
	PassRemoveUnreachable Pass = iota
	PassDCE
	PassLVN
)

var passNames = [...]string{
	PassRemoveUnreachable: "remove_unreachable_blocks",
	PassDCE:               "dce",
	PassLVN:               "lvn_dce",
}

func (p Pass) String() string {
	if p < 0 || int(p) >= len(passNames) {
		return fmt.Sprintf("Pass(%d)", int(p))
	}
	return passNames[p]
}

// Result counts what one run of a pass changed.
type Result struct {
	// BlocksRemoved is the number of blocks marked dead
	BlocksRemoved int

	// InstructionsRemoved is the number of instructions tombstoned
	InstructionsRemoved int

	// InstructionsRewritten is the number of instructions replaced by a
	// copy of an earlier value
	InstructionsRewritten int
}

// Changed reports whether the pass modified the function.
func (r Result) Changed() bool {
	return r.BlocksRemoved+r.InstructionsRemoved+r.InstructionsRewritten > 0
}

// Run applies the pass to fn in place.
func (p Pass) Run(fn *ir.Func) Result {
	switch p {
	case PassRemoveUnreachable:
		return Result{BlocksRemoved: RemoveUnreachableBlocks(fn)}
	case PassDCE:
		return Result{InstructionsRemoved: EliminateDeadCode(fn)}
	case PassLVN:
		rewritten, removed := NumberValues(fn)
		return Result{InstructionsRewritten: rewritten, InstructionsRemoved: removed}
	default:
		panic(fmt.Sprintf("BUG: unsupported pass %v", p))
	}
}

// DefaultPasses returns every pass in the default order.
func DefaultPasses() []Pass {
	return []Pass{PassRemoveUnreachable, PassDCE, PassLVN}
}

// ParsePasses parses a comma-separated list of pass names.
// An empty list selects DefaultPasses.
func ParsePasses(list string) ([]Pass, error) {
	if strings.TrimSpace(list) == "" {
		return DefaultPasses(), nil
	}

	var passes []Pass

next:
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)

		for p, n := range passNames {
			if n == name {
				passes = append(passes, Pass(p))
				continue next
			}
		}

		return nil, errors.Wrap(ErrUnknownPass, "%q", name)
	}

	return passes, nil
}

// Optimizer runs a fixed list of passes over functions.
//
// Functions are independent: no pass reads or writes the blocks of another
// function, so Optimize processes them concurrently. Within one function
// the passes run strictly in order.
type Optimizer struct {
	passes  []Pass
	verbose bool

	mu    sync.Mutex
	stats OptimizationStats
}

// New creates an optimizer running passes in the given order.
// With no passes it runs DefaultPasses.
func New(passes ...Pass) *Optimizer {
	if len(passes) == 0 {
		passes = DefaultPasses()
	}

	return &Optimizer{
		passes: passes,
		stats:  newOptimizationStats(),
	}
}

// SetVerbose enables logging of passes that left the function unchanged.
// Passes that changed something are always logged.
func (o *Optimizer) SetVerbose(verbose bool) {
	o.verbose = verbose
}

// Passes returns the configured pass order.
func (o *Optimizer) Passes() []Pass {
	return append([]Pass(nil), o.passes...)
}

// Optimize runs all passes on every function of the program.
func (o *Optimizer) Optimize(ctx context.Context, prog *ir.Program) (err error) {
	ctx, tr := tlog.SpawnFromContextAndWrap(ctx, "optimize program", "funcs", len(prog.Funcs))
	defer tr.Finish("err", &err)

	g, ctx := errgroup.WithContext(ctx)

	for _, fn := range prog.Funcs {
		g.Go(func() error {
			if err := o.OptimizeFunction(ctx, fn); err != nil {
				return errors.Wrap(err, "func %v", fn.Name())
			}
			return nil
		})
	}

	return g.Wait()
}

// OptimizeFunction runs all passes on a single function, in order.
// Each pass runs to its own fixpoint before the next one starts.
func (o *Optimizer) OptimizeFunction(ctx context.Context, fn *ir.Func) (err error) {
	ctx, tr := tlog.SpawnFromContextAndWrap(ctx, "optimize func", "name", fn.Name(), "blocks", len(fn.Blocks))
	defer tr.Finish("err", &err)

	for _, pass := range o.passes {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "before %v", pass)
		}

		res := pass.Run(fn)

		if o.verbose || res.Changed() {
			tr.Printw("pass done", "pass", pass.String(),
				"blocks_removed", res.BlocksRemoved,
				"instrs_removed", res.InstructionsRemoved,
				"instrs_rewritten", res.InstructionsRewritten)
		}

		if tr.If("dump_func") {
			tr.Printw("func after pass", "pass", pass.String(), "cfg", fn.String())
		}

		o.record(pass, res)
	}

	return nil
}

func (o *Optimizer) record(pass Pass, res Result) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.stats.BlocksRemoved += res.BlocksRemoved
	o.stats.InstructionsRemoved += res.InstructionsRemoved
	o.stats.InstructionsRewritten += res.InstructionsRewritten
	o.stats.PassExecutions[pass.String()]++
}

// Stats returns a snapshot of the statistics collected so far.
func (o *Optimizer) Stats() OptimizationStats {
	o.mu.Lock()
	defer o.mu.Unlock()

	s := o.stats
	s.PassExecutions = make(map[string]int, len(o.stats.PassExecutions))
	for k, v := range o.stats.PassExecutions {
		s.PassExecutions[k] = v
	}
	return s
}

// OptimizationStats tracks statistics about optimization.
type OptimizationStats struct {
	// InstructionsRemoved is the number of instructions tombstoned
	InstructionsRemoved int

	// InstructionsRewritten is the number of instructions replaced by
	// copies or no-ops by value numbering
	InstructionsRewritten int

	// BlocksRemoved is the number of basic blocks marked dead
	BlocksRemoved int

	// PassExecutions tracks how many times each pass ran
	PassExecutions map[string]int
}

func newOptimizationStats() OptimizationStats {
	return OptimizationStats{
		PassExecutions: make(map[string]int),
	}
}

// String returns a human-readable summary of optimization statistics.
func (s OptimizationStats) String() string {
	return fmt.Sprintf("Optimization Stats:\n"+
		"  Instructions removed: %d\n"+
		"  Instructions rewritten: %d\n"+
		"  Blocks removed: %d\n",
		s.InstructionsRemoved,
		s.InstructionsRewritten,
		s.BlocksRemoved)
}
