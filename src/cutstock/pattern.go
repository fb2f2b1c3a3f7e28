package cutstock

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"gonum.org/v1/gonum/mat"
)

const lengthTolerance = 1e-9

// Pattern holds, for each demand type, how many pieces one board yields.
type Pattern []int

// maxPieces is floor(boardLength/size), forgiving the rounding error of
// sizes that divide the board exactly.
func maxPieces(boardLength, size float64) int {
	return int(math.Floor(boardLength/size + lengthTolerance))
}

// SeedPattern cuts as many pieces of type i as fit and nothing else.
func SeedPattern(inst *Instance, i int) Pattern {
	p := make(Pattern, inst.NumTypes())
	p[i] = maxPieces(inst.BoardLength, inst.Demands[i].Size)
	return p
}

// RoundPattern rounds solver values to the nearest integers and rejects
// any value farther than tol from one.
func RoundPattern(values []float64, tol float64) (Pattern, error) {
	p := make(Pattern, len(values))
	for i, v := range values {
		r := math.Round(v)
		if math.Abs(v-r) > tol {
			return nil, fmt.Errorf("%w: type %d has value %g", ErrNonIntegralPattern, i, v)
		}
		if r < 0 {
			return nil, fmt.Errorf("%w: type %d has negative value %g", ErrNonIntegralPattern, i, v)
		}
		p[i] = int(r)
	}
	return p, nil
}

func (p Pattern) Length(inst *Instance) float64 {
	length := 0.0
	for i, a := range p {
		length += inst.Demands[i].Size * float64(a)
	}
	return length
}

func (p Pattern) Fits(inst *Instance) bool {
	return p.Length(inst) <= inst.BoardLength*(1+lengthTolerance)
}

func (p Pattern) Waste(inst *Instance) float64 {
	return math.Max(0, inst.BoardLength-p.Length(inst))
}

func (p Pattern) Pieces() int {
	total := 0
	for _, a := range p {
		total += a
	}
	return total
}

func (p Pattern) Key() string {
	s := make([]string, len(p))
	for i, a := range p {
		s[i] = strconv.Itoa(a)
	}
	return strings.Join(s, ",")
}

func (p Pattern) String() string {
	return fmt.Sprint([]int(p))
}

// PatternPool is the append-only list of patterns known to the master;
// pattern p is master column p.
type PatternPool struct {
	patterns []Pattern
	keys     mapset.Set[string]
}

func NewPatternPool() *PatternPool {
	return &PatternPool{keys: mapset.NewThreadUnsafeSet[string]()}
}

// Add appends p even when an equal pattern is already pooled and returns
// its index.
func (pp *PatternPool) Add(p Pattern) int {
	pp.patterns = append(pp.patterns, slices.Clone(p))
	pp.keys.Add(p.Key())
	return len(pp.patterns) - 1
}

func (pp *PatternPool) Contains(p Pattern) bool {
	return pp.keys.Contains(p.Key())
}

func (pp *PatternPool) Len() int {
	return len(pp.patterns)
}

// Distinct is the number of different patterns in the pool.
func (pp *PatternPool) Distinct() int {
	return pp.keys.Cardinality()
}

func (pp *PatternPool) At(i int) Pattern {
	return pp.patterns[i]
}

func (pp *PatternPool) Patterns() []Pattern {
	out := make([]Pattern, len(pp.patterns))
	for i, p := range pp.patterns {
		out[i] = slices.Clone(p)
	}
	return out
}

// Matrix returns the numTypes x Len() coefficient matrix of the master.
func (pp *PatternPool) Matrix(numTypes int) *mat.Dense {
	a := mat.NewDense(numTypes, len(pp.patterns), nil)
	for p, pattern := range pp.patterns {
		for i, v := range pattern {
			a.Set(i, p, float64(v))
		}
	}
	return a
}
