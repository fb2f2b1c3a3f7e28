package report

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"cutting_stock_cg/src/cutstock"
)

type PlanEntry struct {
	Pattern cutstock.Pattern `json:"pattern" yaml:"pattern,flow"`
	Boards  int              `json:"boards" yaml:"boards"`
	Waste   float64          `json:"waste" yaml:"waste"`
}

// Summary is the serialisable outcome of one run.
type Summary struct {
	Solver      string                     `json:"solver,omitempty" yaml:"solver,omitempty"`
	BoardLength float64                    `json:"boardLength" yaml:"boardLength"`
	Outcome     string                     `json:"outcome" yaml:"outcome"`
	Certified   bool                       `json:"certified" yaml:"certified"`
	Status      string                     `json:"status" yaml:"status"`
	Iterations  int                        `json:"iterations" yaml:"iterations"`
	LPBound     float64                    `json:"lpBound" yaml:"lpBound"`
	Boards      float64                    `json:"boards" yaml:"boards"`
	Patterns    int                        `json:"patterns" yaml:"patterns"`
	Plan        []PlanEntry                `json:"plan" yaml:"plan"`
	Production  []int                      `json:"production" yaml:"production,flow"`
	History     []cutstock.IterationRecord `json:"history,omitempty" yaml:"history,omitempty"`
}

// NewSummary keeps only the patterns the integer solution uses in Plan.
func NewSummary(solver string, inst *cutstock.Instance, res *cutstock.Result, withHistory bool) *Summary {
	s := &Summary{
		Solver:      solver,
		BoardLength: inst.BoardLength,
		Outcome:     res.Outcome.String(),
		Certified:   res.Certified,
		Status:      res.IntegerStatus.String(),
		Iterations:  res.Iterations,
		LPBound:     res.LPObjective,
		Boards:      res.Boards,
		Patterns:    len(res.Patterns),
		Production:  res.Production(inst.NumTypes()),
	}
	for p, pattern := range res.Patterns {
		if res.Usage[p] == 0 {
			continue
		}
		s.Plan = append(s.Plan, PlanEntry{Pattern: pattern, Boards: res.Usage[p], Waste: pattern.Waste(inst)})
	}
	if withHistory {
		s.History = res.History
	}
	return s
}

func (s *Summary) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
