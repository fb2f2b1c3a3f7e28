package cutstock

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func classicInstance(t testing.TB) *Instance {
	t.Helper()
	inst, err := NewInstance(100, []float64{45, 36, 31}, []float64{97, 610, 395})
	require.NoError(t, err)
	return inst
}

func TestReadInstance(t *testing.T) {
	inst, err := ReadInstance(strings.NewReader("100\n3\n45,36,31\n97,610,395\n"))
	require.NoError(t, err)
	assert.Equal(t, 100.0, inst.BoardLength)
	assert.Equal(t, []float64{45, 36, 31}, inst.Sizes())
	assert.Equal(t, []float64{97, 610, 395}, inst.Quantities())
	assert.NoError(t, inst.Validate())
}

func TestReadInstanceToleratesSpaces(t *testing.T) {
	inst, err := ReadInstance(strings.NewReader(" 12.5 \n2\n 3.5 , 4\n1, 2\n"))
	require.NoError(t, err)
	assert.Equal(t, 12.5, inst.BoardLength)
	assert.Equal(t, []DemandType{{Size: 3.5, Quantity: 1}, {Size: 4, Quantity: 2}}, inst.Demands)
}

func TestReadInstanceMalformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "bad board length", input: "abc\n1\n2\n3\n"},
		{name: "bad type count", input: "10\nx\n2\n3\n"},
		{name: "negative type count", input: "10\n-1\n\n\n"},
		{name: "missing quantities", input: "10\n2\n2,3\n"},
		{name: "too few sizes", input: "10\n3\n2,3\n1,1,1\n"},
		{name: "too many quantities", input: "10\n2\n2,3\n1,1,1\n"},
		{name: "bad size", input: "10\n2\n2,x\n1,1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadInstance(strings.NewReader(tt.input))
			assert.ErrorIs(t, err, ErrMalformedInstance)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		inst Instance
		want error
	}{
		{name: "zero board", inst: Instance{BoardLength: 0, Demands: []DemandType{{Size: 1, Quantity: 1}}}, want: ErrInvalidInstance},
		{name: "no demands", inst: Instance{BoardLength: 10}, want: ErrInvalidInstance},
		{name: "zero size", inst: Instance{BoardLength: 10, Demands: []DemandType{{Size: 0, Quantity: 1}}}, want: ErrInvalidInstance},
		{name: "negative quantity", inst: Instance{BoardLength: 10, Demands: []DemandType{{Size: 1, Quantity: -1}}}, want: ErrInvalidInstance},
		{name: "piece too long", inst: Instance{BoardLength: 10, Demands: []DemandType{{Size: 11, Quantity: 1}}}, want: ErrPieceTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.inst.Validate(), tt.want)
		})
	}

	ok := Instance{BoardLength: 10, Demands: []DemandType{{Size: 10, Quantity: 0}}}
	assert.NoError(t, ok.Validate())
}

func TestNewInstanceLengthMismatch(t *testing.T) {
	_, err := NewInstance(10, []float64{1, 2}, []float64{1})
	assert.ErrorIs(t, err, ErrMalformedInstance)
}

func TestWriteInstanceRoundTrip(t *testing.T) {
	inst := classicInstance(t)
	var buf bytes.Buffer
	require.NoError(t, WriteInstance(&buf, inst))
	assert.Equal(t, "100\n3\n45,36,31\n97,610,395\n", buf.String())

	back, err := ReadInstance(&buf)
	require.NoError(t, err)
	assert.Equal(t, inst, back)
}

func TestLoadInstance(t *testing.T) {
	inst, err := LoadInstance(filepath.Join("..", "..", "data", "cut_stock.txt"))
	require.NoError(t, err)
	assert.Equal(t, classicInstance(t), inst)

	_, err = LoadInstance(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestLoadWorkbook(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := map[string]any{
		"A1": "Board length", "B1": 100,
		"A2": "Size", "B2": "Quantity",
		"A3": 45, "B3": 97,
		"A4": 36, "B4": 610,
		"A5": 31, "B5": 395,
	}
	for cell, v := range cells {
		require.NoError(t, f.SetCellValue(sheet, cell, v))
	}
	path := filepath.Join(t.TempDir(), "demand.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	inst, err := LoadWorkbook(path)
	require.NoError(t, err)
	assert.Equal(t, classicInstance(t), inst)
}

func TestLoadWorkbookBadBoardLength(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue(f.GetSheetName(0), "B1", "long"))
	path := filepath.Join(t.TempDir(), "bad.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	_, err := LoadWorkbook(path)
	assert.ErrorIs(t, err, ErrMalformedInstance)
}
