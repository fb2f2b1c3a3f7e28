// Package gonumlp is a pure Go solver oracle. Continuous models go straight
// to gonum's simplex, row prices come from solving the dual with the same
// simplex, and integer columns are handled by a branch and bound over the
// relaxation. Relaxations made of a single knapsack row are solved by the
// greedy ratio rule instead of the simplex.
package gonumlp

import (
	"context"

	"cutting_stock_cg/src/oracle"
)

const Name = "gonum"

func init() {
	oracle.Register(Name, func(settings oracle.Settings) (oracle.Solver, error) {
		return New(settings), nil
	})
}

type Solver struct {
	settings oracle.Settings
}

func New(settings oracle.Settings) *Solver {
	return &Solver{settings: settings}
}

func (s *Solver) Name() string {
	return Name
}

func (s *Solver) NewModel(name string) (oracle.Model, error) {
	return &model{Problem: oracle.NewProblem(name), solver: s}, nil
}

type model struct {
	*oracle.Problem
	solver *Solver
}

func (m *model) Solve(ctx context.Context) (*oracle.Solution, error) {
	if m.Released() {
		return nil, oracle.ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.HasIntegers() {
		return m.solver.branchAndBound(ctx, m.Problem)
	}

	relax, err := solveRelaxation(ctx, m.Problem, m.ColLower, m.ColUpper)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &oracle.Solution{Status: oracle.NumericalError}, err
	}
	if relax.status != oracle.Optimal {
		return &oracle.Solution{Status: relax.status}, oracle.StatusError(relax.status)
	}
	duals, err := rowDuals(ctx, m.Problem)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &oracle.Solution{Status: oracle.NumericalError}, err
	}
	return &oracle.Solution{
		Status:    oracle.Optimal,
		Objective: relax.obj,
		Primal:    relax.x,
		Duals:     duals,
	}, nil
}
