package stats

// Record is a win/loss/tie triple. It is used for deck aggregates and for
// per-tournament standings.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Total is the number of matches with a recorded result.
func (r Record) Total() int {
	return r.Wins + r.Losses + r.Ties
}

// IsZero reports whether no result is recorded at all.
func (r Record) IsZero() bool {
	return r.Wins == 0 && r.Losses == 0 && r.Ties == 0
}

// Delta is a signed adjustment of a Record.
type Delta struct {
	Wins   int
	Losses int
	Ties   int
}

// IsZero reports whether applying the delta is a no-op.
func (d Delta) IsZero() bool {
	return d.Wins == 0 && d.Losses == 0 && d.Ties == 0
}

// DeltaFor computes the adjustment for a deck whose outcome in one match changes
// from prior to next. Either side may be None: prior is None for a new match,
// next is None for a removed one. Equal outcomes give a zero delta, which
// keeps repeated application of the same result idempotent.
func DeltaFor(prior, next Outcome) Delta {
	if prior == next {
		return Delta{}
	}
	var d Delta
	d.bump(prior, -1)
	d.bump(next, +1)
	return d
}

func (d *Delta) bump(o Outcome, n int) {
	switch o {
	case Win:
		d.Wins += n
	case Loss:
		d.Losses += n
	case Tie:
		d.Ties += n
	}
}

// Apply returns r adjusted by d. Counters never go below zero: a decrement of
// a counter that is already zero is dropped.
func (r Record) Apply(d Delta) Record {
	return Record{
		Wins:   clamp(r.Wins + d.Wins),
		Losses: clamp(r.Losses + d.Losses),
		Ties:   clamp(r.Ties + d.Ties),
	}
}

// Clamped reports whether applying d to r would need the zero clamp, which
// means the stored counters were already out of sync.
func (r Record) Clamped(d Delta) bool {
	return r.Wins+d.Wins < 0 || r.Losses+d.Losses < 0 || r.Ties+d.Ties < 0
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
