package cutstock

// Observer is called by the controller after every solve and state
// change. Observers run on the controller goroutine and must not keep the
// pool or the solutions beyond the call.
type Observer interface {
	StateChanged(from, to State)
	MasterSolved(iteration int, pool *PatternPool, sol *MasterSolution)
	PatternPriced(iteration int, sol *PricingSolution, accepted bool)
	Finished(res *Result)
}

// Observers fans every call out to each of its elements, in order.
type Observers []Observer

func (obs Observers) StateChanged(from, to State) {
	for _, o := range obs {
		o.StateChanged(from, to)
	}
}

func (obs Observers) MasterSolved(iteration int, pool *PatternPool, sol *MasterSolution) {
	for _, o := range obs {
		o.MasterSolved(iteration, pool, sol)
	}
}

func (obs Observers) PatternPriced(iteration int, sol *PricingSolution, accepted bool) {
	for _, o := range obs {
		o.PatternPriced(iteration, sol, accepted)
	}
}

func (obs Observers) Finished(res *Result) {
	for _, o := range obs {
		o.Finished(res)
	}
}

// NopObserver can be embedded to implement only part of Observer.
type NopObserver struct{}

func (NopObserver) StateChanged(State, State)                       {}
func (NopObserver) MasterSolved(int, *PatternPool, *MasterSolution) {}
func (NopObserver) PatternPriced(int, *PricingSolution, bool)       {}
func (NopObserver) Finished(*Result)                                {}
