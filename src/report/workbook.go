package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"cutting_stock_cg/src/cutstock"
)

const (
	patternsSheet   = "Patterns"
	iterationsSheet = "Iterations"
)

// ExportWorkbook saves the cutting plan and the iteration history of res to
// an xlsx file. The Patterns sheet has one row per pool pattern with its
// pieces per type, waste and integer usage.
func ExportWorkbook(path string, inst *cutstock.Instance, res *cutstock.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), patternsSheet); err != nil {
		return err
	}
	header := []any{"Pattern"}
	for i, d := range inst.Demands {
		header = append(header, fmt.Sprintf("Type %d (%g)", i, d.Size))
	}
	header = append(header, "Waste", "Boards")
	if err := f.SetSheetRow(patternsSheet, "A1", &header); err != nil {
		return err
	}
	for p, pattern := range res.Patterns {
		row := []any{p}
		for _, a := range pattern {
			row = append(row, a)
		}
		row = append(row, pattern.Waste(inst), res.Usage[p])
		cell, err := excelize.CoordinatesToCellName(1, p+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(patternsSheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(iterationsSheet); err != nil {
		return err
	}
	header = []any{"Iteration", "Objective", "Patterns", "Reduced cost", "Pattern", "Accepted"}
	if err := f.SetSheetRow(iterationsSheet, "A1", &header); err != nil {
		return err
	}
	for k, rec := range res.History {
		row := []any{rec.Iteration, rec.Objective, rec.Patterns, rec.ReducedCost, "", rec.Accepted}
		if rec.Pattern != nil {
			row[4] = rec.Pattern.String()
		}
		cell, err := excelize.CoordinatesToCellName(1, k+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(iterationsSheet, cell, &row); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}
