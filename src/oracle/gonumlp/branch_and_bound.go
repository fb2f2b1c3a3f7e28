package gonumlp

import (
	"context"
	"math"
	"slices"
	"time"

	"github.com/go-logr/logr"

	"cutting_stock_cg/src/oracle"
)

type bbNode struct {
	lower []float64
	upper []float64
	relax *relaxation
	depth int
}

// integralObjective reports whether every integer solution has an integer
// objective value, which lets the search prune on the rounded up bound.
func integralObjective(p *oracle.Problem) bool {
	if !almostEqual(p.Offset, math.Round(p.Offset)) {
		return false
	}
	for j, c := range p.ColCosts {
		if p.ColTypes[j] == oracle.Continuous && c != 0 {
			return false
		}
		if !almostEqual(c, math.Round(c)) {
			return false
		}
	}
	return true
}

// branchingColumn returns the most fractional integer column, or -1 when
// x is integral within tol.
func branchingColumn(p *oracle.Problem, x []float64, tol float64) int {
	best, bestScore := -1, 0.0
	for j, t := range p.ColTypes {
		if t != oracle.Integer {
			continue
		}
		frac := x[j] - math.Floor(x[j])
		if frac <= tol || frac >= 1-tol {
			continue
		}
		if score := math.Min(frac, 1-frac); score > bestScore {
			best, bestScore = j, score
		}
	}
	return best
}

func (s *Solver) newFrontier() frontier[*bbNode] {
	if s.settings.NodeSelection == oracle.BestBound {
		return newBoundQueue[*bbNode]()
	}
	return newStack[*bbNode]()
}

// branchAndBound solves a model with integer columns by enumerating column
// bounds around the simplex relaxation.
func (s *Solver) branchAndBound(ctx context.Context, p *oracle.Problem) (*oracle.Solution, error) {
	log := logr.FromContextOrDiscard(ctx)
	tol := s.settings.IntegralityTolerance
	integral := integralObjective(p)

	root := &bbNode{
		lower: slices.Clone(p.ColLower),
		upper: slices.Clone(p.ColUpper),
	}
	relax, err := solveRelaxation(ctx, p, root.lower, root.upper)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return &oracle.Solution{Status: oracle.NumericalError}, err
	}
	if relax.status != oracle.Optimal {
		return &oracle.Solution{Status: relax.status}, oracle.StatusError(relax.status)
	}
	root.relax = relax

	var incumbent []float64
	incumbentObj := math.Inf(1)
	pruned := func(bound float64) bool {
		if incumbent == nil {
			return false
		}
		if integral {
			return math.Ceil(bound-tol) >= incumbentObj-tol
		}
		return bound >= incumbentObj-eps
	}

	open := s.newFrontier()
	open.Push(root, relax.obj)
	nodes := 0
	t := time.Now()
	limited := false
	// skipped is the last relaxation error. The failed node's subtree is
	// dropped, so the search no longer proves optimality.
	var skipped error

	for open.Size() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		node := open.Pop()
		if pruned(node.relax.obj) {
			continue
		}

		j := branchingColumn(p, node.relax.x, tol)
		if j < 0 {
			x := slices.Clone(node.relax.x)
			for k, ct := range p.ColTypes {
				if ct == oracle.Integer {
					x[k] = math.Round(x[k])
				}
			}
			if obj := p.Evaluate(x); obj < incumbentObj {
				incumbent, incumbentObj = x, obj
				log.V(2).Info("new incumbent", "model", p.Name, "objective", obj, "depth", node.depth)
			}
			continue
		}

		nodes++
		if nodes > s.settings.MaxNodes {
			limited = true
			break
		}

		down := &bbNode{lower: node.lower, upper: slices.Clone(node.upper), depth: node.depth + 1}
		down.upper[j] = math.Floor(node.relax.x[j])
		up := &bbNode{lower: slices.Clone(node.lower), upper: node.upper, depth: node.depth + 1}
		up.lower[j] = math.Ceil(node.relax.x[j])

		// The up child is pushed last so a depth-first search dives into it
		// first.
		for _, child := range []*bbNode{down, up} {
			relax, err := solveRelaxation(ctx, p, child.lower, child.upper)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				log.V(2).Info("dropping node", "model", p.Name, "depth", child.depth, "err", err.Error())
				skipped = err
				continue
			}
			switch relax.status {
			case oracle.Optimal:
			case oracle.Unbounded:
				return &oracle.Solution{Status: oracle.Unbounded}, oracle.ErrUnbounded
			default:
				continue
			}
			if pruned(relax.obj) {
				continue
			}
			child.relax = relax
			open.Push(child, relax.obj)
		}
	}

	log.V(2).Info("branch and bound finished", "model", p.Name, "nodes", nodes, "time", time.Since(t), "limited", limited)

	if incumbent == nil {
		switch {
		case limited:
			return &oracle.Solution{Status: oracle.NumericalError}, oracle.ErrNodeLimit
		case skipped != nil:
			return &oracle.Solution{Status: oracle.NumericalError}, skipped
		}
		return &oracle.Solution{Status: oracle.Infeasible}, oracle.ErrInfeasible
	}
	status := oracle.Optimal
	if limited || skipped != nil {
		status = oracle.Feasible
	}
	return &oracle.Solution{Status: status, Objective: incumbentObj, Primal: incumbent}, nil
}
