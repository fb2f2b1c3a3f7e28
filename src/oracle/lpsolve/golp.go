//go:build lpsolve

package lpsolve

import (
	"context"
	"math"
	"slices"

	"github.com/draffensperger/golp"
	"github.com/pkg/errors"

	"cutting_stock_cg/src/oracle"
)

const Name = "lpsolve"

// lp_solve treats anything at or beyond 1e30 as infinite.
const infinity = 1e30

func init() {
	oracle.Register(Name, func(oracle.Settings) (oracle.Solver, error) {
		return &Solver{}, nil
	})
}

type Solver struct{}

func (s *Solver) Name() string {
	return Name
}

func (s *Solver) NewModel(name string) (oracle.Model, error) {
	return &model{Problem: oracle.NewProblem(name)}, nil
}

type model struct {
	*oracle.Problem
}

func clamp(v float64) float64 {
	return math.Max(-infinity, math.Min(infinity, v))
}

func runLpSolve(p *oracle.Problem) (*oracle.Solution, error) {
	lp := golp.NewLP(0, p.NumColumns())
	lp.SetVerboseLevel(golp.NEUTRAL)
	lp.SetMinimize()
	lp.SetObjFn(slices.Clone(p.ColCosts))

	if a := p.Dense(); a != nil {
		for r := range p.NumRows() {
			row := slices.Clone(a.RawRowView(r))
			lo, up := p.RowLower[r], p.RowUpper[r]
			var err error
			switch {
			case !math.IsInf(lo, 0) && lo == up:
				err = lp.AddConstraint(row, golp.EQ, lo)
			default:
				if !math.IsInf(lo, -1) {
					err = lp.AddConstraint(row, golp.GE, lo)
				}
				if err == nil && !math.IsInf(up, 1) {
					err = lp.AddConstraint(row, golp.LE, up)
				}
			}
			if err != nil {
				return nil, errors.Wrapf(err, "adding row %d", r)
			}
		}
	}

	for j := range p.NumColumns() {
		lp.SetBounds(j, clamp(p.ColLower[j]), clamp(p.ColUpper[j]))
		if p.ColTypes[j] == oracle.Integer {
			lp.SetInt(j, true)
		}
	}

	var status oracle.Status
	switch st := lp.Solve(); st {
	case golp.OPTIMAL:
		status = oracle.Optimal
	case golp.SUBOPTIMAL:
		status = oracle.Feasible
	case golp.INFEASIBLE:
		status = oracle.Infeasible
	case golp.UNBOUNDED:
		status = oracle.Unbounded
	default:
		return &oracle.Solution{Status: oracle.NumericalError}, errors.Errorf("lp_solve status: %v", st)
	}
	if err := oracle.StatusError(status); err != nil {
		return &oracle.Solution{Status: status}, err
	}
	return &oracle.Solution{
		Status:    status,
		Objective: lp.Objective() + p.Offset,
		Primal:    lp.Variables(),
	}, nil
}

func (m *model) Solve(ctx context.Context) (*oracle.Solution, error) {
	if m.Released() {
		return nil, oracle.ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sol, err := runLpSolve(m.Problem)
	if err != nil || m.HasIntegers() {
		return sol, err
	}

	dual, dm, err := oracle.BuildDual(m.Problem)
	if err != nil {
		return nil, err
	}
	dualSol, err := runLpSolve(dual)
	if err != nil {
		return nil, errors.Wrap(err, "dual solve failed")
	}
	sol.Duals = dm.RowDuals(dualSol.Primal)
	return sol, nil
}
