package strategy

import (
	"math"
	"sort"
)

// Polarity selects how a ladder reads its deviation metric.
type Polarity int

const (
	// EntryPolarity fires when the deviation is at or below a threshold; lower is better.
	EntryPolarity Polarity = iota
	// ExitPolarity fires when the deviation is at or above a threshold; higher is better.
	ExitPolarity
)

func (p Polarity) String() string {
	if p == ExitPolarity {
		return "exit"
	}
	return "entry"
}

type Rung struct {
	Threshold float64
	Pct       float64
}

// Ladder is an immutable rung table. Entry ladders are kept in ascending threshold order,
// exit ladders in the order supplied.
type Ladder struct {
	polarity Polarity
	rungs    []Rung
}

func NewLadder(polarity Polarity, rungs []Rung) Ladder {
	copied := append([]Rung(nil), rungs...)
	if polarity == EntryPolarity {
		sort.SliceStable(copied, func(i, j int) bool { return copied[i].Threshold < copied[j].Threshold })
	}
	return Ladder{polarity: polarity, rungs: copied}
}

func (l Ladder) Polarity() Polarity { return l.polarity }

func (l Ladder) Len() int { return len(l.rungs) }

func (l Ladder) Rungs() []Rung {
	return append([]Rung(nil), l.rungs...)
}

// LadderInput carries everything one evaluation needs.
// Base is the capital seed for entry and the baseline quantity for exit.
// Committed is only read by entry ladders, LastIndex only by exit ladders.
type LadderInput struct {
	Deviation float64
	Base      float64
	Committed float64
	LastIndex int
	Cap       float64
	Minimum   float64
}

// Step is the evaluation result. Rung is -1 when no rung fired.
type Step struct {
	Amount float64
	Rung   int
	Target float64
}

func (l Ladder) Evaluate(in LadderInput) Step {
	if l.polarity == ExitPolarity {
		return l.evaluateExit(in)
	}
	return l.evaluateEntry(in)
}

func (l Ladder) evaluateEntry(in LadderInput) Step {
	for i, r := range l.rungs {
		if in.Deviation > r.Threshold {
			continue
		}
		target := in.Base * r.Pct / 100
		needed := target - in.Committed
		if needed <= 0 || needed < in.Minimum {
			return Step{Rung: i, Target: target}
		}
		amount := math.Min(needed, in.Cap)
		if amount <= 0 || amount < in.Minimum {
			return Step{Rung: i, Target: target}
		}
		return Step{Amount: amount, Rung: i, Target: target}
	}
	return Step{Rung: -1}
}

// evaluateExit acts on the first unconsumed rung whose threshold is reached.
// A rung whose step is not actionable after capping is passed over without being consumed.
func (l Ladder) evaluateExit(in LadderInput) Step {
	prev := 0.0
	for i, r := range l.rungs {
		stepPct := r.Pct - prev
		prev = r.Pct
		if i <= in.LastIndex || in.Deviation < r.Threshold {
			continue
		}
		amount := math.Min(in.Base*stepPct/100, in.Cap)
		if amount <= 0 || amount < in.Minimum {
			continue
		}
		return Step{Amount: amount, Rung: i, Target: in.Base * r.Pct / 100}
	}
	return Step{Rung: -1}
}
