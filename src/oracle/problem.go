package oracle

import (
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type Nonzero struct {
	Row int
	Col int
	Val float64
}

// Problem is a backend neutral model store. Adapters that rebuild the
// native model on every solve embed it and only implement Solve.
type Problem struct {
	Name     string
	Offset   float64
	ColCosts []float64
	ColLower []float64
	ColUpper []float64
	ColTypes []VarType
	RowLower []float64
	RowUpper []float64
	Entries  []Nonzero

	released bool
}

func NewProblem(name string) *Problem {
	return &Problem{Name: name}
}

func (p *Problem) NumRows() int {
	return len(p.RowLower)
}

func (p *Problem) NumColumns() int {
	return len(p.ColCosts)
}

func (p *Problem) AddRow(lower, upper float64) int {
	p.RowLower = append(p.RowLower, lower)
	p.RowUpper = append(p.RowUpper, upper)
	return len(p.RowLower) - 1
}

func (p *Problem) AddColumn(col Column) (int, error) {
	if p.released {
		return -1, ErrReleased
	}
	if len(col.Rows) != len(col.Coefs) {
		return -1, errors.Errorf("inconsistent number of rows and coefficients: %d != %d", len(col.Rows), len(col.Coefs))
	}
	if col.Lower > col.Upper {
		return -1, errors.Errorf("column lower bound %g exceeds upper bound %g", col.Lower, col.Upper)
	}
	j := len(p.ColCosts)
	for k, r := range col.Rows {
		if r < 0 || r >= p.NumRows() {
			return -1, errors.Errorf("row %d out of range [0,%d)", r, p.NumRows())
		}
		if col.Coefs[k] != 0 {
			p.Entries = append(p.Entries, Nonzero{Row: r, Col: j, Val: col.Coefs[k]})
		}
	}
	p.ColCosts = append(p.ColCosts, col.Cost)
	p.ColLower = append(p.ColLower, col.Lower)
	p.ColUpper = append(p.ColUpper, col.Upper)
	p.ColTypes = append(p.ColTypes, col.Type)
	return j, nil
}

func (p *Problem) AddDenseRow(lower float64, coefs []float64, upper float64) (int, error) {
	if p.released {
		return -1, ErrReleased
	}
	if len(coefs) != p.NumColumns() {
		return -1, errors.Errorf("row has %d coefficients, model has %d columns", len(coefs), p.NumColumns())
	}
	r := p.AddRow(lower, upper)
	for j, v := range coefs {
		if v != 0 {
			p.Entries = append(p.Entries, Nonzero{Row: r, Col: j, Val: v})
		}
	}
	return r, nil
}

func (p *Problem) SetObjective(offset float64, coefs []float64) error {
	if p.released {
		return ErrReleased
	}
	if len(coefs) != p.NumColumns() {
		return errors.Errorf("objective has %d coefficients, model has %d columns", len(coefs), p.NumColumns())
	}
	p.Offset = offset
	copy(p.ColCosts, coefs)
	return nil
}

func (p *Problem) SetColumnType(col int, t VarType) error {
	if p.released {
		return ErrReleased
	}
	if col < 0 || col >= p.NumColumns() {
		return errors.Wrapf(ErrBadColumn, "column %d", col)
	}
	p.ColTypes[col] = t
	return nil
}

func (p *Problem) Release() {
	p.released = true
	p.Entries = nil
}

func (p *Problem) Released() bool {
	return p.released
}

func (p *Problem) HasIntegers() bool {
	return slices.Contains(p.ColTypes, Integer)
}

// Dense returns the constraint matrix, summing repeated entries.
func (p *Problem) Dense() *mat.Dense {
	if p.NumRows() == 0 || p.NumColumns() == 0 {
		return nil
	}
	a := mat.NewDense(p.NumRows(), p.NumColumns(), nil)
	for _, e := range p.Entries {
		a.Set(e.Row, e.Col, a.At(e.Row, e.Col)+e.Val)
	}
	return a
}

// Evaluate returns the objective value of x, offset included.
func (p *Problem) Evaluate(x []float64) float64 {
	obj := p.Offset
	for j, c := range p.ColCosts {
		obj += c * x[j]
	}
	return obj
}

func (p *Problem) Clone() *Problem {
	return &Problem{
		Name:     p.Name,
		Offset:   p.Offset,
		ColCosts: slices.Clone(p.ColCosts),
		ColLower: slices.Clone(p.ColLower),
		ColUpper: slices.Clone(p.ColUpper),
		ColTypes: slices.Clone(p.ColTypes),
		RowLower: slices.Clone(p.RowLower),
		RowUpper: slices.Clone(p.RowUpper),
		Entries:  slices.Clone(p.Entries),
	}
}

// DualMap links the columns of a dual problem built by BuildDual to the
// rows of the primal.
type DualMap struct {
	LowerVar []int
	UpperVar []int
}

// RowDuals turns the primal values of the dual problem into one price per
// primal row.
func (dm *DualMap) RowDuals(dualPrimal []float64) []float64 {
	duals := make([]float64, len(dm.LowerVar))
	for r := range duals {
		if k := dm.LowerVar[r]; k >= 0 {
			duals[r] += dualPrimal[k]
		}
		if k := dm.UpperVar[r]; k >= 0 {
			duals[r] -= dualPrimal[k]
		}
	}
	return duals
}

// BuildDual returns the LP dual of a continuous problem whose columns all
// have a finite lower bound. With x = l + x', the primal
//
//	min c'x' s.t. Gx' >= h, x' >= 0
//
// stacks A for finite row lower bounds, -A for finite row upper bounds and
// -e_j for finite column upper bounds. The dual min -h'y s.t. G'y <= c,
// y >= 0 has one column per row of G and one row per primal column.
func BuildDual(p *Problem) (*Problem, *DualMap, error) {
	if p.HasIntegers() {
		return nil, nil, errors.New("dual is only defined for continuous models")
	}
	for j, l := range p.ColLower {
		if math.IsInf(l, 0) {
			return nil, nil, errors.Errorf("column %d has an infinite lower bound", j)
		}
	}

	shift := make([]float64, p.NumRows())
	byRow := make([][]Nonzero, p.NumRows())
	for _, e := range p.Entries {
		shift[e.Row] += e.Val * p.ColLower[e.Col]
		byRow[e.Row] = append(byRow[e.Row], e)
	}

	dual := NewProblem(p.Name + "-dual")
	for j := range p.NumColumns() {
		dual.AddRow(math.Inf(-1), p.ColCosts[j])
	}

	dm := &DualMap{
		LowerVar: make([]int, p.NumRows()),
		UpperVar: make([]int, p.NumRows()),
	}
	addVar := func(cost float64, entries []Nonzero, sign float64) (int, error) {
		col := Column{Cost: cost, Lower: 0, Upper: math.Inf(1)}
		for _, e := range entries {
			col.Rows = append(col.Rows, e.Col)
			col.Coefs = append(col.Coefs, sign*e.Val)
		}
		return dual.AddColumn(col)
	}

	for r := range p.NumRows() {
		dm.LowerVar[r], dm.UpperVar[r] = -1, -1
		if lo := p.RowLower[r]; !math.IsInf(lo, -1) {
			k, err := addVar(-(lo - shift[r]), byRow[r], 1)
			if err != nil {
				return nil, nil, err
			}
			dm.LowerVar[r] = k
		}
		if up := p.RowUpper[r]; !math.IsInf(up, 1) {
			k, err := addVar(up-shift[r], byRow[r], -1)
			if err != nil {
				return nil, nil, err
			}
			dm.UpperVar[r] = k
		}
	}
	for j := range p.NumColumns() {
		if u := p.ColUpper[j]; !math.IsInf(u, 1) {
			if _, err := addVar(u-p.ColLower[j], []Nonzero{{Col: j, Val: 1}}, -1); err != nil {
				return nil, nil, err
			}
		}
	}
	return dual, dm, nil
}
