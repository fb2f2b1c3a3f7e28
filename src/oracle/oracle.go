package oracle

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

type VarType int

const (
	Continuous VarType = iota
	Integer
)

func (t VarType) String() string {
	if t == Integer {
		return "integer"
	}
	return "continuous"
}

type Status int

const (
	Optimal Status = iota
	// Feasible is reported by integer solves stopped before optimality was
	// proven, with an incumbent available.
	Feasible
	Infeasible
	Unbounded
	NumericalError
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "Optimal"
	case Feasible:
		return "Feasible"
	case Infeasible:
		return "Infeasible"
	case Unbounded:
		return "Unbounded"
	default:
		return "NumericalError"
	}
}

var (
	ErrInfeasible    = errors.New("model is infeasible")
	ErrUnbounded     = errors.New("model is unbounded")
	ErrNodeLimit     = errors.New("node limit reached without an integer solution")
	ErrUnknownSolver = errors.New("unknown solver")
	ErrReleased      = errors.New("model has been released")
	ErrBadColumn     = errors.New("column index out of range")
)

// Column describes a new variable together with its coefficients in
// already existing rows.
type Column struct {
	Cost  float64
	Lower float64
	Upper float64
	Type  VarType
	Rows  []int
	Coefs []float64
}

type Solution struct {
	Status    Status
	Objective float64
	Primal    []float64
	// Duals holds one price per row. It is nil when the model has integer
	// columns.
	Duals []float64
}

func (sol *Solution) Value(col int) float64 {
	if col < 0 || col >= len(sol.Primal) {
		return 0
	}
	return sol.Primal[col]
}

func (sol *Solution) Dual(row int) float64 {
	if row < 0 || row >= len(sol.Duals) {
		return 0
	}
	return sol.Duals[row]
}

// Model is a minimisation model owned by a single caller. Models are not
// safe for concurrent use.
type Model interface {
	AddRow(lower, upper float64) int
	AddColumn(col Column) (int, error)
	AddDenseRow(lower float64, coefs []float64, upper float64) (int, error)
	SetObjective(offset float64, coefs []float64) error
	SetColumnType(col int, t VarType) error
	NumRows() int
	NumColumns() int
	Solve(ctx context.Context) (*Solution, error)
	Release()
}

type Solver interface {
	Name() string
	NewModel(name string) (Model, error)
}

// Settings are the knobs shared by every adapter. Adapters ignore the ones
// they cannot honour.
type Settings struct {
	MaxNodes             int
	NodeSelection        string
	IntegralityTolerance float64
}

const (
	DepthFirst = "depth-first"
	BestBound  = "best-bound"
)

func DefaultSettings() Settings {
	return Settings{
		MaxNodes:             100000,
		NodeSelection:        DepthFirst,
		IntegralityTolerance: 1e-6,
	}
}

func (s Settings) Validate() error {
	if s.MaxNodes <= 0 {
		return fmt.Errorf("maxNodes must be > 0, got %d", s.MaxNodes)
	}
	if s.NodeSelection != DepthFirst && s.NodeSelection != BestBound {
		return fmt.Errorf("nodeSelection must be %q or %q, got %q", DepthFirst, BestBound, s.NodeSelection)
	}
	if s.IntegralityTolerance <= 0 || s.IntegralityTolerance >= 0.5 {
		return fmt.Errorf("integralityTolerance must be in (0, 0.5), got %g", s.IntegralityTolerance)
	}
	return nil
}

type Factory func(Settings) (Solver, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a solver adapter available by name. It panics when the
// name is registered twice.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("oracle: Register called twice for solver " + name)
	}
	registry[name] = f
}

func New(name string, settings Settings) (Solver, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, errors.Wrapf(ErrUnknownSolver, "%q (available: %v)", name, Names())
	}
	if err := settings.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid solver settings")
	}
	return f(settings)
}

func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// StatusError maps a non optimal status to the matching sentinel error.
func StatusError(s Status) error {
	switch s {
	case Optimal, Feasible:
		return nil
	case Infeasible:
		return ErrInfeasible
	case Unbounded:
		return ErrUnbounded
	default:
		return errors.Errorf("status: %v", s)
	}
}
