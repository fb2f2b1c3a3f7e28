package cutstock

import (
	"context"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"cutting_stock_cg/src/oracle"
	"cutting_stock_cg/src/oracle/gonumlp"
)

type recorder struct {
	states     []State
	objectives []float64
	poolSizes  []int
	accepted   []bool
	finished   *Result
}

func (r *recorder) StateChanged(_, to State) {
	r.states = append(r.states, to)
}

func (r *recorder) MasterSolved(_ int, pool *PatternPool, sol *MasterSolution) {
	r.objectives = append(r.objectives, sol.Objective)
	r.poolSizes = append(r.poolSizes, pool.Len())
}

func (r *recorder) PatternPriced(_ int, _ *PricingSolution, accepted bool) {
	r.accepted = append(r.accepted, accepted)
}

func (r *recorder) Finished(res *Result) {
	r.finished = res
}

// nodeLimitSolver gives up on every integer master solve.
type nodeLimitSolver struct {
	oracle.Solver
}

func (s nodeLimitSolver) NewModel(name string) (oracle.Model, error) {
	m, err := s.Solver.NewModel(name)
	if err != nil || name != "cutting-stock" {
		return m, err
	}
	return &nodeLimitModel{Model: m}, nil
}

type nodeLimitModel struct {
	oracle.Model
	integer bool
}

func (m *nodeLimitModel) SetColumnType(col int, t oracle.VarType) error {
	m.integer = m.integer || t == oracle.Integer
	return m.Model.SetColumnType(col, t)
}

func (m *nodeLimitModel) Solve(ctx context.Context) (*oracle.Solution, error) {
	if m.integer {
		return &oracle.Solution{Status: oracle.NumericalError}, oracle.ErrNodeLimit
	}
	return m.Model.Solve(ctx)
}

// inexactPricingSolver reports every pricing solve as merely feasible.
// With a fixed objective it also hides every improving pattern.
type inexactPricingSolver struct {
	oracle.Solver
	objective *float64
}

func (s inexactPricingSolver) NewModel(name string) (oracle.Model, error) {
	m, err := s.Solver.NewModel(name)
	if err != nil || name != "pattern-generation" {
		return m, err
	}
	return &inexactPricingModel{Model: m, objective: s.objective}, nil
}

type inexactPricingModel struct {
	oracle.Model
	objective *float64
}

func (m *inexactPricingModel) Solve(ctx context.Context) (*oracle.Solution, error) {
	if m.objective != nil {
		return &oracle.Solution{Status: oracle.Feasible, Objective: *m.objective}, nil
	}
	sol, err := m.Model.Solve(ctx)
	if err != nil {
		return sol, err
	}
	sol.Status = oracle.Feasible
	return sol, nil
}

func mustInstance(boardLength float64, sizes, quantities []float64) *Instance {
	inst, err := NewInstance(boardLength, sizes, quantities)
	Expect(err).NotTo(HaveOccurred())
	return inst
}

var _ = Describe("Controller", func() {
	var (
		ctx    context.Context
		solver oracle.Solver
		opts   Options
		rec    *recorder
	)

	BeforeEach(func() {
		ctx = context.Background()
		solver = gonumlp.New(oracle.DefaultSettings())
		opts = DefaultOptions()
		rec = &recorder{}
	})

	Context("with the classic instance", func() {
		var inst *Instance

		BeforeEach(func() {
			inst = mustInstance(100, []float64{45, 36, 31}, []float64{97, 610, 395})
		})

		It("should converge with a certificate", func() {
			c, err := NewController(inst, solver, opts, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.State()).To(Equal(StateInit))

			res, err := c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(c.State()).To(Equal(StateDone))

			Expect(res.Outcome).To(Equal(OutcomeOptimal))
			Expect(res.Certified).To(BeTrue())
			Expect(res.LastReducedCost).To(BeNumerically(">", -opts.Epsilon))
			Expect(res.LPObjective).To(BeNumerically("~", 452.25, 1e-4))
			Expect(res.IntegerStatus).To(Equal(oracle.Optimal))
			Expect(res.Boards).To(BeNumerically("~", 453, 1e-6))
			Expect(res.Boards).To(BeNumerically(">=", math.Ceil(res.LPObjective-1e-6)))
			Expect(res.BoardsUsed()).To(Equal(453))
			Expect(res.CoversDemand(inst)).To(BeTrue())

			Expect(rec.states).To(Equal([]State{StateIterating, StateConverged, StateIntegerSolve, StateDone}))
			Expect(rec.finished).To(BeIdenticalTo(res))
		})

		It("should keep the seeds first and only add fitting, distinct patterns", func() {
			res, err := Solve(ctx, inst, solver, opts, rec)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Patterns[:3]).To(Equal([]Pattern{{2, 0, 0}, {0, 2, 0}, {0, 0, 3}}))
			Expect(res.Patterns).To(ContainElement(Pattern{0, 1, 2}))
			seen := map[string]bool{}
			for _, p := range res.Patterns {
				Expect(p.Fits(inst)).To(BeTrue())
				Expect(seen[p.Key()]).To(BeFalse())
				seen[p.Key()] = true
			}
			Expect(res.Usage).To(HaveLen(len(res.Patterns)))
		})

		It("should never increase the master objective", func() {
			res, err := Solve(ctx, inst, solver, opts, rec)
			Expect(err).NotTo(HaveOccurred())

			Expect(rec.objectives).To(HaveLen(res.Iterations))
			for k := 1; k < len(rec.objectives); k++ {
				Expect(rec.objectives[k]).To(BeNumerically("<=", rec.objectives[k-1]+1e-6))
			}
			for k := 1; k < len(rec.poolSizes); k++ {
				Expect(rec.poolSizes[k]).To(Equal(rec.poolSizes[k-1] + 1))
			}
			Expect(rec.accepted[len(rec.accepted)-1]).To(BeFalse())
			Expect(res.History).To(HaveLen(res.Iterations))
			Expect(res.History[0].Objective).To(BeNumerically("~", 97.0/2+610.0/2+395.0/3, 1e-6))
		})

		It("should stop at the iteration cap without a certificate", func() {
			opts.MaxIterations = 1
			c, err := NewController(inst, solver, opts, rec)
			Expect(err).NotTo(HaveOccurred())

			res, err := c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeIterationLimit))
			Expect(res.Certified).To(BeFalse())
			Expect(res.Iterations).To(Equal(1))
			Expect(res.Patterns).To(HaveLen(4))
			Expect(res.CoversDemand(inst)).To(BeTrue())
			Expect(res.Boards).To(BeNumerically(">=", 453-1e-6))
			Expect(rec.states).To(Equal([]State{StateIterating, StateExhausted, StateIntegerSolve, StateDone}))
		})

		It("should stop when the time budget is spent", func() {
			opts.TimeBudget = time.Second
			c, err := NewController(inst, solver, opts)
			Expect(err).NotTo(HaveOccurred())
			start := time.Now()
			calls := 0
			c.now = func() time.Time {
				calls++
				return start.Add(time.Duration(calls) * time.Second)
			}

			res, err := c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeTimeLimit))
			Expect(res.Certified).To(BeFalse())
			Expect(res.Iterations).To(Equal(1))
		})

		It("should reach the same bound with best-bound node selection", func() {
			settings := oracle.DefaultSettings()
			settings.NodeSelection = oracle.BestBound
			res, err := Solve(ctx, inst, gonumlp.New(settings), opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.LPObjective).To(BeNumerically("~", 452.25, 1e-4))
			Expect(res.Boards).To(BeNumerically("~", 453, 1e-6))
		})

		It("should repair the LP solution when the integer solve gives up", func() {
			res, err := Solve(ctx, inst, nodeLimitSolver{solver}, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Certified).To(BeTrue())
			Expect(res.IntegerStatus).To(Equal(oracle.Feasible))
			Expect(res.CoversDemand(inst)).To(BeTrue())
			Expect(res.Boards).To(BeNumerically("==", res.BoardsUsed()))
			Expect(res.BoardsUsed()).To(BeNumerically(">=", 453))
			Expect(res.BoardsUsed()).To(BeNumerically("<=", 460))
		})

		It("should not certify a pricing solve that is not optimal", func() {
			objective := 1.0
			c, err := NewController(inst, inexactPricingSolver{Solver: solver, objective: &objective}, opts, rec)
			Expect(err).NotTo(HaveOccurred())

			res, err := c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeInconclusive))
			Expect(res.Certified).To(BeFalse())
			Expect(res.Iterations).To(Equal(1))
			Expect(res.Patterns).To(HaveLen(3))
			Expect(res.LPObjective).To(BeNumerically("~", 97.0/2+610.0/2+395.0/3, 1e-6))
			Expect(res.Boards).To(BeNumerically("~", 486, 1e-6))
			Expect(res.CoversDemand(inst)).To(BeTrue())
			Expect(rec.states).To(Equal([]State{StateIterating, StateExhausted, StateIntegerSolve, StateDone}))
		})

		It("should add patterns from a non optimal pricing solve without certifying", func() {
			res, err := Solve(ctx, inst, inexactPricingSolver{Solver: solver}, opts, rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outcome).To(Equal(OutcomeInconclusive))
			Expect(res.Certified).To(BeFalse())
			Expect(res.LPObjective).To(BeNumerically("~", 452.25, 1e-4))
			Expect(res.Patterns).To(ContainElement(Pattern{0, 1, 2}))
			Expect(rec.accepted[len(rec.accepted)-1]).To(BeFalse())
			Expect(rec.accepted[0]).To(BeTrue())
		})

		It("should run only once", func() {
			c, err := NewController(inst, solver, opts)
			Expect(err).NotTo(HaveOccurred())
			_, err = c.Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			_, err = c.Run(ctx)
			Expect(err).To(MatchError(ErrControllerUsed))
		})

		It("should honour a cancelled context", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := Solve(cctx, inst, solver, opts)
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Context("with a degenerate instance", func() {
		It("should certify the seed when every piece fills a board", func() {
			inst := mustInstance(100, []float64{100}, []float64{5})
			res, err := Solve(ctx, inst, solver, opts, rec)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Outcome).To(Equal(OutcomeOptimal))
			Expect(res.Iterations).To(Equal(1))
			Expect(rec.accepted).To(Equal([]bool{false}))
			Expect(res.Patterns).To(Equal([]Pattern{{1}}))
			Expect(res.Usage).To(Equal([]int{5}))
			Expect(res.Boards).To(BeNumerically("~", 5, 1e-6))
		})

		It("should cut nothing for zero demand", func() {
			inst := mustInstance(10, []float64{3, 4}, []float64{0, 0})
			res, err := Solve(ctx, inst, solver, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Boards).To(BeNumerically("~", 0, 1e-6))
			Expect(res.BoardsUsed()).To(Equal(0))
		})
	})

	Context("with invalid input", func() {
		It("should reject a piece longer than the board", func() {
			inst := &Instance{BoardLength: 10, Demands: []DemandType{{Size: 11, Quantity: 1}}}
			_, err := NewController(inst, solver, opts)
			Expect(err).To(MatchError(ErrPieceTooLong))
		})

		It("should reject bad options", func() {
			inst := mustInstance(10, []float64{3}, []float64{1})
			opts.Epsilon = 0
			_, err := NewController(inst, solver, opts)
			Expect(err).To(HaveOccurred())
		})
	})
})

var _ = Describe("Controller on assorted instances", func() {
	DescribeTable("should generate a certified, covering plan",
		func(boardLength float64, sizes, quantities []float64, lpBound float64) {
			inst := mustInstance(boardLength, sizes, quantities)
			settings := oracle.DefaultSettings()
			settings.MaxNodes = 20000
			opts := DefaultOptions()
			rec := &recorder{}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			res, err := Solve(ctx, inst, gonumlp.New(settings), opts, rec)
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Outcome).To(Equal(OutcomeOptimal))
			Expect(res.Certified).To(BeTrue())
			if !math.IsNaN(lpBound) {
				Expect(res.LPObjective).To(BeNumerically("~", lpBound, 1e-4))
			}
			seen := map[string]bool{}
			for _, p := range res.Patterns {
				Expect(p.Fits(inst)).To(BeTrue(), "pattern %v", p)
				Expect(seen[p.Key()]).To(BeFalse(), "pattern %v", p)
				seen[p.Key()] = true
			}
			for k := 1; k < len(rec.objectives); k++ {
				Expect(rec.objectives[k]).To(BeNumerically("<=", rec.objectives[k-1]+1e-5))
			}
			Expect(res.CoversDemand(inst)).To(BeTrue())
			Expect(res.Boards).To(BeNumerically("==", res.BoardsUsed()))
			Expect(res.Boards).To(BeNumerically(">=", math.Ceil(res.LPObjective-1e-6)))
		},
		Entry("classic", 100.0, []float64{45, 36, 31}, []float64{97, 610, 395}, 452.25),
		Entry("no waste", 100.0, []float64{50, 25}, []float64{3, 5}, 2.75),
		Entry("equal sizes", 100.0, []float64{50, 50}, []float64{3, 4}, 3.5),
		Entry("eight types", 100.0, []float64{27, 45, 18, 37, 17, 40, 11, 57}, []float64{7, 67, 59, 48, 89, 16, 9, 32}, math.NaN()),
		Entry("long board", 1000.0, []float64{231, 177, 143, 119, 97, 83, 71}, []float64{50, 80, 120, 60, 90, 40, 30}, math.NaN()),
		Entry("repeated sizes", 100.0, []float64{20, 56, 50, 32, 51, 50}, []float64{97, 33, 61, 30, 61, 80}, math.NaN()),
	)
})

var _ = Describe("State and Outcome", func() {
	It("should print their names", func() {
		Expect(StateIntegerSolve.String()).To(Equal("INTEGER_SOLVE"))
		Expect(StateExhausted.String()).To(Equal("EXHAUSTED"))
		Expect(OutcomeIterationLimit.String()).To(Equal("iteration-limit"))
		Expect(OutcomeStalled.String()).To(Equal("stalled"))
		Expect(OutcomeInconclusive.String()).To(Equal("inconclusive"))
		text, err := OutcomeTimeLimit.MarshalText()
		Expect(err).NotTo(HaveOccurred())
		Expect(string(text)).To(Equal("time-limit"))
	})
})
