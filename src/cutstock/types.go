package cutstock

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"cutting_stock_cg/src/oracle"
)

type DemandType struct {
	Size     float64 `json:"size" yaml:"size"`
	Quantity float64 `json:"quantity" yaml:"quantity"`
}

// Instance is read once and never mutated afterwards.
type Instance struct {
	BoardLength float64      `json:"boardLength" yaml:"boardLength"`
	Demands     []DemandType `json:"demands" yaml:"demands"`
}

type MasterSolution struct {
	Status    oracle.Status
	Objective float64
	// Usage holds the number of boards cut with each pool pattern, in pool
	// order.
	Usage *mat.VecDense
	// Duals is nil for the integer solve.
	Duals   *mat.VecDense
	Integer bool
}

type PricingSolution struct {
	// Status is Optimal only when ReducedCost is the true minimum.
	Status      oracle.Status
	ReducedCost float64
	Values      []float64
	// Pattern is set once the values have been rounded.
	Pattern Pattern
}

type IterationRecord struct {
	Iteration   int     `json:"iteration" yaml:"iteration"`
	Objective   float64 `json:"objective" yaml:"objective"`
	Patterns    int     `json:"patterns" yaml:"patterns"`
	ReducedCost float64 `json:"reducedCost" yaml:"reducedCost"`
	Pattern     Pattern `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Accepted    bool    `json:"accepted" yaml:"accepted"`
}

type Result struct {
	Outcome Outcome
	// Certified is true when the last pricing solve proved that no pattern
	// has a negative reduced cost.
	Certified       bool
	Iterations      int
	LPObjective     float64
	LastReducedCost float64
	IntegerStatus   oracle.Status
	Boards          float64
	Usage           []int
	Patterns        []Pattern
	History         []IterationRecord
}

// Production returns how many pieces of each type the integer solution
// cuts.
func (res *Result) Production(numTypes int) []int {
	produced := make([]int, numTypes)
	for p, pattern := range res.Patterns {
		for i, a := range pattern {
			produced[i] += a * res.Usage[p]
		}
	}
	return produced
}

func (res *Result) CoversDemand(inst *Instance) bool {
	for i, n := range res.Production(inst.NumTypes()) {
		if float64(n) < inst.Demands[i].Quantity-lengthTolerance {
			return false
		}
	}
	return true
}

func (res *Result) BoardsUsed() int {
	total := 0
	for _, n := range res.Usage {
		total += n
	}
	return total
}

func (inst *Instance) NumTypes() int {
	return len(inst.Demands)
}

func (inst *Instance) Sizes() []float64 {
	sizes := make([]float64, len(inst.Demands))
	for i, d := range inst.Demands {
		sizes[i] = d.Size
	}
	return sizes
}

func (inst *Instance) Quantities() []float64 {
	qty := make([]float64, len(inst.Demands))
	for i, d := range inst.Demands {
		qty[i] = d.Quantity
	}
	return qty
}

func (inst *Instance) String() string {
	s := new(strings.Builder)
	s.WriteString(fmt.Sprintf("Board length: %g\n", inst.BoardLength))
	s.WriteString(fmt.Sprintf("N. demand types: %d\n", inst.NumTypes()))
	for i, d := range inst.Demands {
		s.WriteString(fmt.Sprintf("Type %d: size %g, quantity %g\n", i, d.Size, d.Quantity))
	}
	return s.String()
}

func (res *Result) String() string {
	s := new(strings.Builder)
	fmt.Fprintf(s, "Outcome: %v (certified: %t)\n", res.Outcome, res.Certified)
	fmt.Fprintf(s, "LP bound: %.3f after %d iterations\n", res.LPObjective, res.Iterations)
	fmt.Fprintf(s, "Boards: %g\n", res.Boards)
	for p, pattern := range res.Patterns {
		if res.Usage[p] > 0 {
			fmt.Fprintf(s, "%d x %v\n", res.Usage[p], pattern)
		}
	}
	return s.String()
}
