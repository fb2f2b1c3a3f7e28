package cutstock

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadWorkbook reads an instance from the first sheet of an xlsx file: the
// board length in B1, a header on row 2, then one demand type per row with
// the size in column A and the quantity in column B. Empty rows are skipped.
func LoadWorkbook(filePath string) (*Instance, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	cell, err := f.GetCellValue(sheet, "B1")
	if err != nil {
		return nil, err
	}
	boardLength, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: error while parsing board length in %s!B1: %v", ErrMalformedInstance, sheet, err)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	inst := &Instance{BoardLength: boardLength}
	for r := 2; r < len(rows); r++ {
		row := rows[r]
		if len(row) == 0 || (len(row) == 1 && strings.TrimSpace(row[0]) == "") {
			continue
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: row %d needs a size and a quantity", ErrMalformedInstance, r+1)
		}
		size, err := strconv.ParseFloat(strings.TrimSpace(row[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: error while parsing size on row %d: %v", ErrMalformedInstance, r+1, err)
		}
		qty, err := strconv.ParseFloat(strings.TrimSpace(row[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: error while parsing quantity on row %d: %v", ErrMalformedInstance, r+1, err)
		}
		inst.Demands = append(inst.Demands, DemandType{Size: size, Quantity: qty})
	}
	return inst, nil
}
