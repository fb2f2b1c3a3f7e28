package main

import (
	"fmt"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/spf13/pflag"

	"cutting_stock_cg/src/cutstock"
)

// GenerateInstance draws numTypes piece sizes uniformly between
// minFrac*boardLength and maxFrac*boardLength, rounded to integers, and
// quantities between 1 and maxQty.
func GenerateInstance(rng *rand.Rand, numTypes int, boardLength, minFrac, maxFrac float64, maxQty int) (*cutstock.Instance, error) {
	sizes := make([]float64, numTypes)
	quantities := make([]float64, numTypes)
	for i := range numTypes {
		frac := minFrac + (maxFrac-minFrac)*rng.Float64()
		sizes[i] = math.Min(boardLength, math.Max(1, math.Round(boardLength*frac)))
		quantities[i] = float64(1 + rng.Intn(maxQty))
	}
	return cutstock.NewInstance(boardLength, sizes, quantities)
}

func main() {
	var outPath string
	var numTypes, maxQty int
	var boardLength, minFrac, maxFrac float64
	var seed int64

	pflag.StringVar(&outPath, "out", "out.txt", "The output file")
	pflag.IntVar(&numTypes, "types", 0, "The number of demand types")
	pflag.Float64Var(&boardLength, "length", 0, "The board length")
	pflag.Float64Var(&minFrac, "minfrac", 0.1, "The smallest piece size, as a fraction of the board length")
	pflag.Float64Var(&maxFrac, "maxfrac", 0.5, "The largest piece size, as a fraction of the board length")
	pflag.IntVar(&maxQty, "maxqty", 100, "The largest quantity of a demand type")
	pflag.Int64Var(&seed, "seed", time.Now().UnixNano(), "The random seed")

	pflag.Parse()

	err := false
	if numTypes <= 0 {
		fmt.Fprintln(os.Stderr, "Must specify the number of demand types")
		err = true
	}
	if boardLength <= 0 {
		fmt.Fprintln(os.Stderr, "Must specify the board length")
		err = true
	}
	if minFrac <= 0 || maxFrac > 1 || minFrac > maxFrac {
		fmt.Fprintln(os.Stderr, "Size fractions must satisfy 0 < minfrac <= maxfrac <= 1")
		err = true
	}
	if maxQty <= 0 {
		fmt.Fprintln(os.Stderr, "Must specify a positive maximum quantity")
		err = true
	}

	if err {
		os.Exit(1)
	}

	inst, genErr := GenerateInstance(rand.New(rand.NewSource(seed)), numTypes, boardLength, minFrac, maxFrac, maxQty)
	if genErr != nil {
		fmt.Fprintln(os.Stderr, genErr)
		os.Exit(1)
	}
	f, openErr := os.Create(outPath)
	if openErr != nil {
		fmt.Fprintln(os.Stderr, openErr)
		os.Exit(1)
	}
	defer f.Close()
	if writeErr := cutstock.WriteInstance(f, inst); writeErr != nil {
		fmt.Fprintln(os.Stderr, writeErr)
		os.Exit(1)
	}
}
