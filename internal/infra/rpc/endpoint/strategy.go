package endpoint

// Strategy picks the next endpoint from the currently available subset.
// Pick is always called with the Registry lock held and with a non-empty
// slice, so implementations may keep cursor state without extra locking.
type Strategy interface {
	Pick(available []*Endpoint) *Endpoint
}

// roundRobin advances a cursor over the available subset. The cursor is
// relative to the filtered view, which is recomputed each selection, so
// a shrinking pool never strands the cursor on a down endpoint.
type roundRobin struct {
	cursor int
}

// NewRoundRobin returns the default selection strategy. Configured
// weights are accepted as hints but not consumed here.
func NewRoundRobin() Strategy {
	return &roundRobin{}
}

func (rr *roundRobin) Pick(available []*Endpoint) *Endpoint {
	rr.cursor = (rr.cursor + 1) % len(available)
	return available[rr.cursor]
}

// smoothWeighted implements smooth weighted round-robin: each pick adds
// every candidate's weight to its running score, selects the highest
// score, then subtracts the total weight from the winner. Endpoints with
// higher weight win proportionally more often without clustering.
type smoothWeighted struct {
	current map[*Endpoint]int
}

// NewSmoothWeighted returns a strategy that consumes configured weights.
// Not the default; round-robin is the reference behavior.
func NewSmoothWeighted() Strategy {
	return &smoothWeighted{current: make(map[*Endpoint]int)}
}

func (sw *smoothWeighted) Pick(available []*Endpoint) *Endpoint {
	var best *Endpoint
	total := 0
	for _, e := range available {
		sw.current[e] += e.weight
		total += e.weight
		if best == nil || sw.current[e] > sw.current[best] {
			best = e
		}
	}
	sw.current[best] -= total
	return best
}
