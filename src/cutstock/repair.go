package cutstock

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/dnaeon/go-priorityqueue.v1"
)

// RepairUsage turns a fractional master usage into an integer one: usage is
// rounded down, then the demand left uncovered is repaired greedily by
// repeatedly cutting the pattern that covers the most missing pieces.
func RepairUsage(inst *Instance, pool *PatternPool, lpUsage mat.Vector, tol float64) []int {
	usage := make([]int, pool.Len())
	residual := inst.Quantities()
	for p := range usage {
		usage[p] = int(math.Floor(lpUsage.AtVec(p) + tol))
		for i, a := range pool.At(p) {
			residual[i] -= float64(a * usage[p])
		}
	}

	useful := func(p int) float64 {
		covered := 0.0
		for i, a := range pool.At(p) {
			if residual[i] > tol {
				covered += math.Min(float64(a), math.Ceil(residual[i]-tol))
			}
		}
		return covered
	}

	pq := priorityqueue.New[int, float64](priorityqueue.MinHeap)
	for p := range usage {
		pq.Put(p, -useful(p))
	}
	for pq.Len() > 0 {
		item := pq.Get()
		if -item.Priority <= 0 {
			break
		}
		p := item.Value
		usage[p]++
		for i, a := range pool.At(p) {
			residual[i] -= float64(a)
		}
		pq.Put(p, -useful(p))
		for q := range usage {
			if q != p {
				pq.Update(q, -useful(q))
			}
		}
	}
	return usage
}
