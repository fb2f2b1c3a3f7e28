// Package report turns the progress of a column generation run into
// console text, structured logs, metrics, charts and files.
package report

import (
	"fmt"
	"io"
	"strings"

	"cutting_stock_cg/src/cutstock"
)

// Console prints the iteration log and the final cutting strategy as plain
// text.
type Console struct {
	cutstock.NopObserver
	w io.Writer
}

func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

func (c *Console) MasterSolved(iteration int, pool *cutstock.PatternPool, sol *cutstock.MasterSolution) {
	fmt.Fprintf(c.w, "\n>> Iteration %d\n", iteration)
	fmt.Fprintf(c.w, "Using %.3f boards.\n", sol.Objective)
	for p := range pool.Len() {
		fmt.Fprintf(c.w, "Pattern %d n_cut = %.3f\n", p, sol.Usage.AtVec(p))
	}
	if sol.Duals == nil {
		return
	}
	for i := range sol.Duals.Len() {
		fmt.Fprintf(c.w, "Type %d price = %.3f\n", i, sol.Duals.AtVec(i))
	}
}

func (c *Console) PatternPriced(_ int, sol *cutstock.PricingSolution, accepted bool) {
	if !accepted {
		return
	}
	fmt.Fprintf(c.w, "Reduced cost is %.6f\n", sol.ReducedCost)
	for i, a := range sol.Pattern {
		fmt.Fprintf(c.w, "Type %d cut = %d\n", i, a)
	}
}

func (c *Console) Finished(res *cutstock.Result) {
	fmt.Fprintf(c.w, "\n%s\n", strings.Repeat("-", 54))
	fmt.Fprintf(c.w, "Solution status: %v\n", res.IntegerStatus)
	fmt.Fprintf(c.w, "A total of %d patterns are generated:\n", len(res.Patterns))
	for p, pattern := range res.Patterns {
		fmt.Fprintf(c.w, "\nPat %d:\t", p)
		for _, a := range pattern {
			fmt.Fprintf(c.w, "%d\t", a)
		}
	}
	fmt.Fprintf(c.w, "\nBest integer solution uses %g rolls\n", res.Boards)
	for p, pattern := range res.Patterns {
		fmt.Fprintf(c.w, "\nPattern %d = %d ", p, res.Usage[p])
		if res.Usage[p] > 0 {
			fmt.Fprint(c.w, pattern)
		}
	}
	fmt.Fprintln(c.w)
	if !res.Certified {
		fmt.Fprintf(c.w, "Column generation stopped early (%v), the pattern pool may not be optimal\n", res.Outcome)
	}
}
