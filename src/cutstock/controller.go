package cutstock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/mat"

	"cutting_stock_cg/src/oracle"
)

type State int

const (
	StateInit State = iota
	StateIterating
	StateConverged
	// StateExhausted is entered instead of StateConverged when the loop
	// stops without an optimality certificate.
	StateExhausted
	StateIntegerSolve
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateIterating:
		return "ITERATING"
	case StateConverged:
		return "CONVERGED"
	case StateExhausted:
		return "EXHAUSTED"
	case StateIntegerSolve:
		return "INTEGER_SOLVE"
	case StateDone:
		return "DONE"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Outcome int

const (
	OutcomeOptimal Outcome = iota
	OutcomeIterationLimit
	OutcomeTimeLimit
	// OutcomeStalled means pricing proposed a pattern already in the pool,
	// which only happens under numerical noise.
	OutcomeStalled
	// OutcomeInconclusive means the last pricing solve found no improving
	// pattern but did not prove that none exists.
	OutcomeInconclusive
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOptimal:
		return "optimal"
	case OutcomeIterationLimit:
		return "iteration-limit"
	case OutcomeTimeLimit:
		return "time-limit"
	case OutcomeStalled:
		return "stalled"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Controller runs column generation for one instance. It owns its master
// and pricing models, so independent instances can be solved concurrently
// by separate controllers. A controller runs once.
type Controller struct {
	inst     *Instance
	solver   oracle.Solver
	opts     Options
	observer Observer
	state    State
	now      func() time.Time
}

func NewController(inst *Instance, solver oracle.Solver, opts Options, observers ...Observer) (*Controller, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		inst:     inst,
		solver:   solver,
		opts:     opts,
		observer: Observers(observers),
		state:    StateInit,
		now:      time.Now,
	}, nil
}

func (c *Controller) State() State {
	return c.state
}

func (c *Controller) transition(to State) {
	from := c.state
	c.state = to
	c.observer.StateChanged(from, to)
}

// Run generates patterns until pricing finds no negative reduced cost or a
// limit is hit, then solves the master over the frozen pool with integer
// pattern usage.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	if c.state != StateInit {
		return nil, ErrControllerUsed
	}
	log := logr.FromContextOrDiscard(ctx).WithValues("solver", c.solver.Name(), "types", c.inst.NumTypes())

	master, err := NewMasterModel(c.inst, c.solver)
	if err != nil {
		return nil, err
	}
	defer master.Release()
	pricing, err := NewPricingModel(c.inst, c.solver)
	if err != nil {
		return nil, err
	}
	defer pricing.Release()

	res := &Result{LastReducedCost: math.NaN()}
	c.transition(StateIterating)
	lp, err := c.generate(ctx, log, master, pricing, res)
	if err != nil {
		return nil, err
	}

	res.Certified = res.Outcome == OutcomeOptimal
	if res.Certified {
		c.transition(StateConverged)
	} else {
		log.Info("column generation stopped without optimality certificate", "outcome", res.Outcome, "iterations", res.Iterations)
		c.transition(StateExhausted)
	}

	c.transition(StateIntegerSolve)
	if err := master.ConvertToInteger(); err != nil {
		return nil, err
	}
	ip, err := master.Solve(ctx)
	switch {
	case errors.Is(err, oracle.ErrNodeLimit) && lp != nil:
		log.Info("integer master hit the node limit, repairing the LP solution")
		ip = c.repair(master, lp)
	case err != nil:
		return nil, err
	}
	usage, err := roundUsage(ip.Usage, c.opts.RoundingTolerance)
	if err != nil {
		return nil, err
	}
	produced := master.Coverage(ip.Usage)
	for i, d := range c.inst.Demands {
		if produced.AtVec(i) < d.Quantity-c.opts.RoundingTolerance {
			return nil, fmt.Errorf("%w: integer solution cuts %g pieces of type %d, demand is %g",
				ErrMasterSolve, produced.AtVec(i), i, d.Quantity)
		}
	}

	res.IntegerStatus = ip.Status
	res.Boards = ip.Objective
	res.Usage = usage
	res.Patterns = master.Pool().Patterns()
	log.Info("cutting stock solved",
		"boards", res.Boards, "lpBound", res.LPObjective, "patterns", len(res.Patterns),
		"iterations", res.Iterations, "outcome", res.Outcome, "integerStatus", res.IntegerStatus)

	c.transition(StateDone)
	c.observer.Finished(res)
	return res, nil
}

// generate is the ITERATING state: master solve, reprice with the fresh
// duals, pricing solve, reduced cost test, new column.
func (c *Controller) generate(ctx context.Context, log logr.Logger, master *MasterModel, pricing *PricingModel, res *Result) (*MasterSolution, error) {
	start := c.now()
	var last *MasterSolution
	for iteration := 1; ; iteration++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("column generation interrupted: %w", err)
		}
		if c.opts.MaxIterations > 0 && iteration > c.opts.MaxIterations {
			res.Outcome = OutcomeIterationLimit
			return last, nil
		}
		if c.opts.TimeBudget > 0 && c.now().Sub(start) > c.opts.TimeBudget {
			res.Outcome = OutcomeTimeLimit
			return last, nil
		}

		lp, err := master.Solve(ctx)
		if err != nil {
			return nil, err
		}
		last = lp
		res.Iterations = iteration
		res.LPObjective = lp.Objective
		record := IterationRecord{Iteration: iteration, Objective: lp.Objective, Patterns: master.Pool().Len()}
		c.observer.MasterSolved(iteration, master.Pool(), lp)

		if err := pricing.Reprice(lp.Duals); err != nil {
			return nil, err
		}
		price, err := pricing.Solve(ctx)
		if err != nil {
			return nil, err
		}
		record.ReducedCost = price.ReducedCost
		res.LastReducedCost = price.ReducedCost
		log.V(1).Info("iteration", "iteration", iteration, "boards", lp.Objective, "reducedCost", price.ReducedCost)

		if price.ReducedCost > -c.opts.Epsilon {
			res.History = append(res.History, record)
			c.observer.PatternPriced(iteration, price, false)
			res.Outcome = OutcomeOptimal
			if price.Status != oracle.Optimal {
				log.Info("pricing stopped without proving optimality", "status", price.Status, "reducedCost", price.ReducedCost)
				res.Outcome = OutcomeInconclusive
			}
			return lp, nil
		}

		pattern, err := RoundPattern(price.Values, c.opts.RoundingTolerance)
		if err != nil {
			return nil, err
		}
		if !pattern.Fits(c.inst) {
			return nil, fmt.Errorf("%w: %v has length %g, board length is %g",
				ErrPatternDoesNotFit, pattern, pattern.Length(c.inst), c.inst.BoardLength)
		}
		price.Pattern = pattern
		record.Pattern = pattern

		if c.opts.DedupPatterns && master.Pool().Contains(pattern) {
			log.Info("pricing proposed a pooled pattern", "pattern", pattern.String(), "reducedCost", price.ReducedCost)
			res.History = append(res.History, record)
			c.observer.PatternPriced(iteration, price, false)
			res.Outcome = OutcomeStalled
			return lp, nil
		}

		if _, err := master.AddPattern(pattern); err != nil {
			return nil, err
		}
		record.Accepted = true
		res.History = append(res.History, record)
		c.observer.PatternPriced(iteration, price, true)
	}
}

// repair builds an integer master solution from the last LP solution when
// the integer solve gave up without an incumbent. The pattern added after
// that LP solve gets zero usage.
func (c *Controller) repair(master *MasterModel, lp *MasterSolution) *MasterSolution {
	usage := mat.NewVecDense(master.Pool().Len(), nil)
	for p := range lp.Usage.Len() {
		usage.SetVec(p, lp.Usage.AtVec(p))
	}
	repaired := RepairUsage(c.inst, master.Pool(), usage, c.opts.RoundingTolerance)
	boards := 0
	for p, n := range repaired {
		usage.SetVec(p, float64(n))
		boards += n
	}
	return &MasterSolution{
		Status:    oracle.Feasible,
		Objective: float64(boards),
		Usage:     usage,
		Integer:   true,
	}
}

func roundUsage(usage mat.Vector, tol float64) ([]int, error) {
	out := make([]int, usage.Len())
	for p := range out {
		v := usage.AtVec(p)
		r := math.Round(v)
		if math.Abs(v-r) > tol || r < 0 {
			return nil, fmt.Errorf("%w: pattern %d has usage %g", ErrNonIntegralUsage, p, v)
		}
		out[p] = int(r)
	}
	return out, nil
}

// Solve validates inst and runs a fresh controller on it.
func Solve(ctx context.Context, inst *Instance, solver oracle.Solver, opts Options, observers ...Observer) (*Result, error) {
	c, err := NewController(inst, solver, opts, observers...)
	if err != nil {
		return nil, err
	}
	return c.Run(ctx)
}
