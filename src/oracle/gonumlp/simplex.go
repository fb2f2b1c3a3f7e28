package gonumlp

import (
	"cmp"
	"context"
	"math"
	"slices"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"cutting_stock_cg/src/oracle"
)

const eps = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < eps
}

type relaxation struct {
	status oracle.Status
	x      []float64
	obj    float64
}

// equation is one row of the standard form: sum coefs*z = rhs.
type equation struct {
	cols  []int
	coefs []float64
	rhs   float64
}

// solveRelaxation solves the continuous relaxation of p with the column
// bounds replaced by lower/upper. The problem is shifted so that every
// column starts at zero, fixed columns are folded into the row bounds, and
// the rest is written in the standard form min c'z s.t. Az = b, z >= 0 that
// lp.Simplex expects, adding one slack per finite row side and per column
// upper bound that the rows do not already imply. A single knapsack row
// is solved directly.
func solveRelaxation(ctx context.Context, p *oracle.Problem, lower, upper []float64) (*relaxation, error) {
	n := p.NumColumns()
	fixed := make([]bool, n)
	for j := range n {
		if math.IsInf(lower[j], 0) {
			return nil, errors.Errorf("column %d: infinite lower bounds are not supported", j)
		}
		if upper[j] < lower[j]-eps {
			return &relaxation{status: oracle.Infeasible}, nil
		}
		fixed[j] = upper[j]-lower[j] <= eps
	}

	byRow := make([][]oracle.Nonzero, p.NumRows())
	shift := make([]float64, p.NumRows())
	for _, e := range p.Entries {
		shift[e.Row] += e.Val * lower[e.Col]
		if !fixed[e.Col] {
			byRow[e.Row] = append(byRow[e.Row], e)
		}
	}

	emitting := make([]bool, p.NumRows())
	for r := range p.NumRows() {
		lo, up := p.RowLower[r]-shift[r], p.RowUpper[r]-shift[r]
		if len(byRow[r]) == 0 {
			if lo > eps || up < -eps {
				return &relaxation{status: oracle.Infeasible}, nil
			}
			continue
		}
		emitting[r] = !math.IsInf(lo, -1) || !math.IsInf(up, 1)
	}

	x := slices.Clone(lower)
	if r := knapsackRow(p, emitting, byRow); r >= 0 {
		return fractionalKnapsack(p, x, upper, fixed, byRow[r], p.RowUpper[r]-shift[r]), nil
	}

	bounded := impliedBounds(p, emitting, byRow, shift)

	// A column is active when it shows up in the standard form. The others
	// sit at their lower bound unless their cost makes the model unbounded.
	active := make([]int, n)
	for j := range active {
		active[j] = -1
	}
	numActive := 0
	markActive := func(j int) {
		if active[j] < 0 {
			active[j] = numActive
			numActive++
		}
	}
	for _, e := range p.Entries {
		if emitting[e.Row] && !fixed[e.Col] {
			markActive(e.Col)
		}
	}
	needsBoundRow := make([]bool, n)
	for j := range n {
		if fixed[j] || math.IsInf(upper[j], 1) {
			continue
		}
		if upper[j]-lower[j] < bounded[j]-eps {
			needsBoundRow[j] = true
			markActive(j)
		}
	}

	for j := range n {
		if active[j] >= 0 || fixed[j] {
			continue
		}
		switch {
		case p.ColCosts[j] >= 0:
		case math.IsInf(upper[j], 1):
			return &relaxation{status: oracle.Unbounded}, nil
		default:
			x[j] = upper[j]
		}
	}

	eqs := make([]equation, 0, p.NumRows())
	numVars := numActive
	newSlack := func() int {
		numVars++
		return numVars - 1
	}
	for r := range p.NumRows() {
		if !emitting[r] {
			continue
		}
		cols := make([]int, 0, len(byRow[r])+1)
		coefs := make([]float64, 0, len(byRow[r])+1)
		for _, e := range byRow[r] {
			cols = append(cols, active[e.Col])
			coefs = append(coefs, e.Val)
		}
		lo, up := p.RowLower[r]-shift[r], p.RowUpper[r]-shift[r]
		if !math.IsInf(lo, -1) && !math.IsInf(up, 1) && math.Abs(up-lo) <= eps {
			eqs = append(eqs, equation{cols: cols, coefs: coefs, rhs: lo})
			continue
		}
		if !math.IsInf(lo, -1) {
			eqs = append(eqs, equation{
				cols:  append(append([]int(nil), cols...), newSlack()),
				coefs: append(append([]float64(nil), coefs...), -1),
				rhs:   lo,
			})
		}
		if !math.IsInf(up, 1) {
			eqs = append(eqs, equation{
				cols:  append(append([]int(nil), cols...), newSlack()),
				coefs: append(append([]float64(nil), coefs...), 1),
				rhs:   up,
			})
		}
	}
	for j := range n {
		if needsBoundRow[j] {
			eqs = append(eqs, equation{
				cols:  []int{active[j], newSlack()},
				coefs: []float64{1, 1},
				rhs:   upper[j] - lower[j],
			})
		}
	}

	if len(eqs) == 0 {
		return &relaxation{status: oracle.Optimal, x: x, obj: p.Evaluate(x)}, nil
	}
	if len(eqs) > numVars {
		return nil, errors.Errorf("standard form has more equations (%d) than variables (%d)", len(eqs), numVars)
	}

	c := make([]float64, numVars)
	for j := range n {
		if active[j] >= 0 {
			c[active[j]] = p.ColCosts[j]
		}
	}
	a := mat.NewDense(len(eqs), numVars, nil)
	b := make([]float64, len(eqs))
	for i, eq := range eqs {
		for k, col := range eq.cols {
			a.Set(i, col, a.At(i, col)+eq.coefs[k])
		}
		b[i] = eq.rhs
	}

	z, err := simplex(ctx, c, a, b)
	if err != nil && ctx.Err() == nil && !isTerminal(err) {
		// Degenerate bases can stall Bland's rule; a perturbed right hand
		// side breaks the ties.
		z, err = simplex(ctx, c, a, perturb(b))
	}
	switch {
	case ctx.Err() != nil:
		return nil, ctx.Err()
	case errors.Is(err, lp.ErrInfeasible):
		return &relaxation{status: oracle.Infeasible}, nil
	case errors.Is(err, lp.ErrUnbounded):
		return &relaxation{status: oracle.Unbounded}, nil
	case err != nil:
		return &relaxation{status: oracle.NumericalError}, errors.Wrap(err, "simplex failed")
	}

	for j := range n {
		if active[j] >= 0 {
			x[j] = math.Min(math.Max(lower[j]+z[active[j]], lower[j]), upper[j])
		}
	}
	return &relaxation{status: oracle.Optimal, x: x, obj: p.Evaluate(x)}, nil
}

func isTerminal(err error) bool {
	return errors.Is(err, lp.ErrInfeasible) || errors.Is(err, lp.ErrUnbounded)
}

// simplex runs lp.Simplex on its own goroutine so that a cancelled context
// releases the caller. The goroutine finishes in the background.
func simplex(ctx context.Context, c []float64, a mat.Matrix, b []float64) ([]float64, error) {
	type result struct {
		z   []float64
		err error
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	done := make(chan result, 1)
	go func() {
		_, z, err := lp.Simplex(c, a, b, 0, nil)
		done <- result{z: z, err: err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-done:
		return r.z, r.err
	}
}

const perturbation = 1e-9

// perturb returns b with every entry moved up by a small, row dependent
// amount.
func perturb(b []float64) []float64 {
	out := make([]float64, len(b))
	for i, v := range b {
		out[i] = v + perturbation*(1+math.Abs(v))*(1+float64(i)/float64(len(b)))
	}
	return out
}

// knapsackRow returns the only constrained row of p when it is a knapsack
// row, with an upper side only and positive coefficients, or -1.
func knapsackRow(p *oracle.Problem, emitting []bool, byRow [][]oracle.Nonzero) int {
	row := -1
	for r, ok := range emitting {
		if !ok {
			continue
		}
		if row >= 0 || !math.IsInf(p.RowLower[r], -1) {
			return -1
		}
		for _, e := range byRow[r] {
			if e.Val <= 0 {
				return -1
			}
		}
		row = r
	}
	return row
}

// fractionalKnapsack solves min c'x s.t. a'x <= capacity over the box
// [x, upper] by filling the capacity in order of c/a, starting from x at
// its lower bounds.
func fractionalKnapsack(p *oracle.Problem, x, upper []float64, fixed []bool, row []oracle.Nonzero, capacity float64) *relaxation {
	if capacity < -eps {
		return &relaxation{status: oracle.Infeasible}
	}
	weight := make([]float64, len(x))
	for _, e := range row {
		weight[e.Col] += e.Val
	}
	var items []int
	for j := range x {
		if fixed[j] || p.ColCosts[j] >= 0 {
			continue
		}
		if weight[j] == 0 {
			if math.IsInf(upper[j], 1) {
				return &relaxation{status: oracle.Unbounded}
			}
			x[j] = upper[j]
			continue
		}
		items = append(items, j)
	}
	slices.SortStableFunc(items, func(i, j int) int {
		return cmp.Compare(p.ColCosts[i]/weight[i], p.ColCosts[j]/weight[j])
	})
	for _, j := range items {
		if capacity <= eps {
			break
		}
		take := math.Min(upper[j]-x[j], capacity/weight[j])
		x[j] += take
		capacity -= take * weight[j]
	}
	return &relaxation{status: oracle.Optimal, x: x, obj: p.Evaluate(x)}
}

// impliedBounds returns, per column, the largest shifted value the upper
// sides of the non-negative rows allow. Bound rows at or above it are
// redundant.
func impliedBounds(p *oracle.Problem, emitting []bool, byRow [][]oracle.Nonzero, shift []float64) []float64 {
	bounded := make([]float64, p.NumColumns())
	for j := range bounded {
		bounded[j] = math.Inf(1)
	}
	for r, ok := range emitting {
		up := p.RowUpper[r] - shift[r]
		if !ok || math.IsInf(up, 1) || up < 0 {
			continue
		}
		if slices.ContainsFunc(byRow[r], func(e oracle.Nonzero) bool { return e.Val <= 0 }) {
			continue
		}
		for _, e := range byRow[r] {
			bounded[e.Col] = math.Min(bounded[e.Col], up/e.Val)
		}
	}
	return bounded
}

// rowDuals prices the rows of a continuous problem by solving its dual.
func rowDuals(ctx context.Context, p *oracle.Problem) ([]float64, error) {
	dual, dm, err := oracle.BuildDual(p)
	if err != nil {
		return nil, err
	}
	res, err := solveRelaxation(ctx, dual, dual.ColLower, dual.ColUpper)
	if err != nil {
		return nil, errors.Wrap(err, "dual solve failed")
	}
	if res.status != oracle.Optimal {
		return nil, errors.Errorf("dual solve failed, status: %v", res.status)
	}
	return dm.RowDuals(res.x), nil
}
