package cutstock

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"cutting_stock_cg/src/oracle"
)

// PricingModel is the knapsack
//
//	min 1 - sum_i y[i] a[i]  s.t.  sum_i size[i] a[i] <= boardLength
//
// over non-negative integers a. Its feasible region is built once; only the
// objective changes between iterations.
type PricingModel struct {
	inst  *Instance
	model oracle.Model
	cols  []int
}

func NewPricingModel(inst *Instance, solver oracle.Solver) (*PricingModel, error) {
	model, err := solver.NewModel("pattern-generation")
	if err != nil {
		return nil, err
	}
	pm := &PricingModel{inst: inst, model: model, cols: make([]int, inst.NumTypes())}
	for i, d := range inst.Demands {
		j, err := model.AddColumn(oracle.Column{
			Lower: 0,
			Upper: float64(maxPieces(inst.BoardLength, d.Size)),
			Type:  oracle.Integer,
		})
		if err != nil {
			model.Release()
			return nil, err
		}
		pm.cols[i] = j
	}
	if _, err := model.AddDenseRow(math.Inf(-1), inst.Sizes(), inst.BoardLength); err != nil {
		model.Release()
		return nil, err
	}
	return pm, nil
}

// Reprice overwrites the objective with 1 - y'a.
func (pm *PricingModel) Reprice(duals *mat.VecDense) error {
	if duals == nil || duals.Len() != pm.inst.NumTypes() {
		return fmt.Errorf("%w: expected %d dual prices", ErrPricingSolve, pm.inst.NumTypes())
	}
	coefs := make([]float64, pm.model.NumColumns())
	for i, j := range pm.cols {
		coefs[j] = -duals.AtVec(i)
	}
	return pm.model.SetObjective(1, coefs)
}

func (pm *PricingModel) Solve(ctx context.Context) (*PricingSolution, error) {
	sol, err := pm.model.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPricingSolve, err)
	}
	values := make([]float64, len(pm.cols))
	for i, j := range pm.cols {
		values[i] = sol.Value(j)
	}
	return &PricingSolution{Status: sol.Status, ReducedCost: sol.Objective, Values: values}, nil
}

func (pm *PricingModel) Release() {
	pm.model.Release()
}
