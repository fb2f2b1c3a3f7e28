package cutstock

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// NewInstance pairs sizes with quantities and validates the result.
func NewInstance(boardLength float64, sizes, quantities []float64) (*Instance, error) {
	if len(sizes) != len(quantities) {
		return nil, fmt.Errorf("%w: %d sizes but %d quantities", ErrMalformedInstance, len(sizes), len(quantities))
	}
	inst := &Instance{BoardLength: boardLength, Demands: make([]DemandType, len(sizes))}
	for i := range sizes {
		inst.Demands[i] = DemandType{Size: sizes[i], Quantity: quantities[i]}
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Validate rejects instances no controller should be built for: a non
// positive board, bad demand values, or a piece longer than the board.
func (inst *Instance) Validate() error {
	if !(inst.BoardLength > 0) || math.IsInf(inst.BoardLength, 0) {
		return fmt.Errorf("%w: board length must be a positive number, got %g", ErrInvalidInstance, inst.BoardLength)
	}
	if len(inst.Demands) == 0 {
		return fmt.Errorf("%w: no demand types", ErrInvalidInstance)
	}
	for i, d := range inst.Demands {
		if !(d.Size > 0) || math.IsInf(d.Size, 0) {
			return fmt.Errorf("%w: type %d has size %g", ErrInvalidInstance, i, d.Size)
		}
		if !(d.Quantity >= 0) || math.IsInf(d.Quantity, 0) {
			return fmt.Errorf("%w: type %d has quantity %g", ErrInvalidInstance, i, d.Quantity)
		}
		if d.Size > inst.BoardLength {
			return fmt.Errorf("%w: type %d has size %g, board length is %g", ErrPieceTooLong, i, d.Size, inst.BoardLength)
		}
	}
	return nil
}

type instanceParser struct {
	inst     *Instance
	numTypes int
}

func nextLine(scanner *bufio.Scanner, what string) (string, error) {
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("%w: missing %s line", ErrMalformedInstance, what)
	}
	return strings.TrimSpace(scanner.Text()), nil
}

func (ip *instanceParser) parseBoardLength(scanner *bufio.Scanner) error {
	line, err := nextLine(scanner, "board length")
	if err != nil {
		return err
	}
	v, err := strconv.ParseFloat(line, 64)
	if err != nil {
		return fmt.Errorf("%w: error while parsing board length: %v", ErrMalformedInstance, err)
	}
	ip.inst.BoardLength = v
	return nil
}

func (ip *instanceParser) parseNumTypes(scanner *bufio.Scanner) error {
	line, err := nextLine(scanner, "number of demand types")
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(line)
	if err != nil {
		return fmt.Errorf("%w: error while parsing number of demand types: %v", ErrMalformedInstance, err)
	}
	if n < 0 {
		return fmt.Errorf("%w: negative number of demand types %d", ErrMalformedInstance, n)
	}
	ip.numTypes = n
	ip.inst.Demands = make([]DemandType, n)
	return nil
}

// parseSequence reads one comma separated line holding exactly numTypes
// values.
func (ip *instanceParser) parseSequence(scanner *bufio.Scanner, what string, set func(i int, v float64)) error {
	line, err := nextLine(scanner, what)
	if err != nil {
		return err
	}
	fields := strings.Split(line, ",")
	if len(fields) != ip.numTypes {
		return fmt.Errorf("%w: %s line has %d fields, expected %d", ErrMalformedInstance, what, len(fields), ip.numTypes)
	}
	for i, tok := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(tok), 64)
		if err != nil {
			return fmt.Errorf("%w: error while parsing %s %d: %v", ErrMalformedInstance, what, i, err)
		}
		set(i, v)
	}
	return nil
}

func (ip *instanceParser) parseSizes(scanner *bufio.Scanner) error {
	return ip.parseSequence(scanner, "piece size", func(i int, v float64) {
		ip.inst.Demands[i].Size = v
	})
}

func (ip *instanceParser) parseQuantities(scanner *bufio.Scanner) error {
	return ip.parseSequence(scanner, "piece quantity", func(i int, v float64) {
		ip.inst.Demands[i].Quantity = v
	})
}

// ReadInstance parses the line oriented instance format:
//
//	boardLength
//	nDemandTypes
//	size0,size1,...
//	quantity0,quantity1,...
//
// The instance is returned unvalidated so callers can tell a malformed file
// from an infeasible one.
func ReadInstance(r io.Reader) (*Instance, error) {
	ip := &instanceParser{inst: new(Instance)}
	scanner := bufio.NewScanner(r)
	steps := []func(*bufio.Scanner) error{
		ip.parseBoardLength,
		ip.parseNumTypes,
		ip.parseSizes,
		ip.parseQuantities,
	}
	for _, step := range steps {
		if err := step(scanner); err != nil {
			return nil, err
		}
	}
	return ip.inst, nil
}

func LoadInstance(filename string) (*Instance, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return ReadInstance(file)
}

// WriteInstance writes inst in the format ReadInstance parses.
func WriteInstance(w io.Writer, inst *Instance) error {
	sizes := make([]string, inst.NumTypes())
	qty := make([]string, inst.NumTypes())
	for i, d := range inst.Demands {
		sizes[i] = strconv.FormatFloat(d.Size, 'g', -1, 64)
		qty[i] = strconv.FormatFloat(d.Quantity, 'g', -1, 64)
	}
	_, err := fmt.Fprintf(w, "%s\n%d\n%s\n%s\n",
		strconv.FormatFloat(inst.BoardLength, 'g', -1, 64),
		inst.NumTypes(),
		strings.Join(sizes, ","),
		strings.Join(qty, ","),
	)
	return err
}
