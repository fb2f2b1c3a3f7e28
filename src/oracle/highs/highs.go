//go:build highs

package highs

import (
	"context"
	"slices"

	lanl "github.com/lanl/highs"
	"github.com/pkg/errors"

	"cutting_stock_cg/src/oracle"
)

const Name = "highs"

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

func convertStatus(s lanl.ModelStatus) oracle.Status {
	switch s {
	case lanl.Optimal:
		return oracle.Optimal
	case lanl.Infeasible:
		return oracle.Infeasible
	case lanl.Unbounded, lanl.UnboundedOrInfeasible:
		return oracle.Unbounded
	default:
		return oracle.NumericalError
	}
}

// defModel rebuilds the HiGHS model from the neutral store. HiGHS copies
// the arrays on every solve, so this is cheap next to the solve itself.
func (m *model) defModel() *lanl.Model {
	lp := new(lanl.Model)
	lp.ColCosts = slices.Clone(m.ColCosts)
	lp.Offset = m.Offset
	lp.ColLower = slices.Clone(m.ColLower)
	lp.ColUpper = slices.Clone(m.ColUpper)
	lp.RowLower = slices.Clone(m.RowLower)
	lp.RowUpper = slices.Clone(m.RowUpper)

	lp.ConstMatrix = make([]lanl.Nonzero, 0, len(m.Entries))
	for _, e := range m.Entries {
		lp.ConstMatrix = append(lp.ConstMatrix, lanl.Nonzero{Row: e.Row, Col: e.Col, Val: e.Val})
	}

	if m.HasIntegers() {
		lp.VarTypes = make([]lanl.VariableType, m.NumColumns())
		for j, t := range m.ColTypes {
			if t == oracle.Integer {
				lp.VarTypes[j] = lanl.IntegerType
			} else {
				lp.VarTypes[j] = lanl.ContinuousType
			}
		}
	}
	return lp
}

func (m *model) Solve(ctx context.Context) (*oracle.Solution, error) {
	if m.Released() {
		return nil, oracle.ErrReleased
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	solution, err := m.defModel().Solve()
	if err != nil {
		return &oracle.Solution{Status: oracle.NumericalError}, errors.Wrap(err, "highs")
	}
	status := convertStatus(solution.Status)
	if status != oracle.Optimal {
		return &oracle.Solution{Status: status}, errors.Wrapf(oracle.StatusError(status), "highs status: %v", solution.Status.String())
	}

	sol := &oracle.Solution{
		Status:    oracle.Optimal,
		Objective: solution.Objective,
		Primal:    slices.Clone(solution.ColumnPrimal),
	}
	if !m.HasIntegers() {
		sol.Duals = slices.Clone(solution.RowDual)
	}
	return sol, nil
}
