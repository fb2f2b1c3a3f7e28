package cutstock

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"cutting_stock_cg/src/oracle"
)

// MasterModel is the restricted master problem
//
//	min sum_p x_p  s.t.  sum_p a_p[i] x_p >= demand[i],  x_p >= 0
//
// over the patterns in its pool.
type MasterModel struct {
	inst    *Instance
	model   oracle.Model
	pool    *PatternPool
	rows    []int
	cols    []int
	integer bool
}

// NewMasterModel creates one demand row per type and seeds the pool with
// one single-type pattern per type.
func NewMasterModel(inst *Instance, solver oracle.Solver) (*MasterModel, error) {
	model, err := solver.NewModel("cutting-stock")
	if err != nil {
		return nil, err
	}
	m := &MasterModel{
		inst:  inst,
		model: model,
		pool:  NewPatternPool(),
		rows:  make([]int, inst.NumTypes()),
	}
	for i, d := range inst.Demands {
		m.rows[i] = model.AddRow(d.Quantity, math.Inf(1))
	}
	for i := range inst.Demands {
		if _, err := m.AddPattern(SeedPattern(inst, i)); err != nil {
			model.Release()
			return nil, err
		}
	}
	return m, nil
}

// AddPattern appends a continuous column with cost 1 and coefficient p[i]
// in demand row i, and returns its pool index.
func (m *MasterModel) AddPattern(p Pattern) (int, error) {
	if m.integer {
		return -1, ErrIntegerMaster
	}
	if len(p) != m.inst.NumTypes() {
		return -1, fmt.Errorf("pattern has %d entries, instance has %d demand types", len(p), m.inst.NumTypes())
	}
	col := oracle.Column{Cost: 1, Lower: 0, Upper: math.Inf(1), Type: oracle.Continuous}
	for i, a := range p {
		if a != 0 {
			col.Rows = append(col.Rows, m.rows[i])
			col.Coefs = append(col.Coefs, float64(a))
		}
	}
	j, err := m.model.AddColumn(col)
	if err != nil {
		return -1, err
	}
	m.cols = append(m.cols, j)
	return m.pool.Add(p), nil
}

func (m *MasterModel) Solve(ctx context.Context) (*MasterSolution, error) {
	sol, err := m.model.Solve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMasterSolve, err)
	}

	usage := mat.NewVecDense(len(m.cols), nil)
	for p, j := range m.cols {
		usage.SetVec(p, sol.Value(j))
	}
	res := &MasterSolution{
		Status:    sol.Status,
		Objective: sol.Objective,
		Usage:     usage,
		Integer:   m.integer,
	}
	if !m.integer {
		if len(sol.Duals) < m.model.NumRows() {
			return nil, fmt.Errorf("%w: solver returned %d row prices for %d rows", ErrMasterSolve, len(sol.Duals), m.model.NumRows())
		}
		res.Duals = mat.NewVecDense(len(m.rows), nil)
		for i, r := range m.rows {
			res.Duals.SetVec(i, sol.Dual(r))
		}
	}
	return res, nil
}

// ConvertToInteger re-types every pattern column to integer, keeping rows
// and columns as they are.
func (m *MasterModel) ConvertToInteger() error {
	for _, j := range m.cols {
		if err := m.model.SetColumnType(j, oracle.Integer); err != nil {
			return err
		}
	}
	m.integer = true
	return nil
}

// Coverage returns, per demand type, the pieces produced by usage.
func (m *MasterModel) Coverage(usage *mat.VecDense) *mat.VecDense {
	produced := mat.NewVecDense(m.inst.NumTypes(), nil)
	produced.MulVec(m.pool.Matrix(m.inst.NumTypes()), usage)
	return produced
}

func (m *MasterModel) Pool() *PatternPool {
	return m.pool
}

func (m *MasterModel) IsInteger() bool {
	return m.integer
}

func (m *MasterModel) Release() {
	m.model.Release()
}
