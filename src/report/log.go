package report

import (
	"github.com/go-logr/logr"

	"cutting_stock_cg/src/cutstock"
)

// Log writes controller events to a logr.Logger. Per iteration detail is
// logged at V(1).
type Log struct {
	log logr.Logger
}

func NewLog(log logr.Logger) *Log {
	return &Log{log: log}
}

func (l *Log) StateChanged(from, to cutstock.State) {
	l.log.V(1).Info("state changed", "from", from.String(), "to", to.String())
}

func (l *Log) MasterSolved(iteration int, pool *cutstock.PatternPool, sol *cutstock.MasterSolution) {
	l.log.V(1).Info("master solved", "iteration", iteration, "boards", sol.Objective, "patterns", pool.Len(), "integer", sol.Integer)
}

func (l *Log) PatternPriced(iteration int, sol *cutstock.PricingSolution, accepted bool) {
	kv := []any{"iteration", iteration, "reducedCost", sol.ReducedCost, "accepted", accepted}
	if sol.Pattern != nil {
		kv = append(kv, "pattern", sol.Pattern.String())
	}
	l.log.V(1).Info("pattern priced", kv...)
}

func (l *Log) Finished(res *cutstock.Result) {
	l.log.Info("column generation finished",
		"outcome", res.Outcome.String(),
		"certified", res.Certified,
		"iterations", res.Iterations,
		"lpBound", res.LPObjective,
		"boards", res.Boards,
		"patterns", len(res.Patterns))
}
