package models

import "time"

type PriceQuote struct {
	Bid       float64
	Ask       float64
	Timestamp time.Time
}

func (q PriceQuote) Mid() float64 { return (q.Bid + q.Ask) / 2 }

// PriceHistory is a bounded, append-only series of quotes for one symbol.
// Oldest entries are evicted once the cap is reached.
type PriceHistory struct {
	quotes []PriceQuote
	max    int
}

func NewPriceHistory(max int) *PriceHistory {
	if max <= 0 {
		max = 100
	}
	return &PriceHistory{max: max}
}

func (h *PriceHistory) Append(q PriceQuote) {
	h.quotes = append(h.quotes, q)
	if len(h.quotes) > h.max {
		h.quotes = h.quotes[len(h.quotes)-h.max:]
	}
}

func (h *PriceHistory) Len() int { return len(h.quotes) }

func (h *PriceHistory) Last() (PriceQuote, bool) {
	if len(h.quotes) == 0 {
		return PriceQuote{}, false
	}
	return h.quotes[len(h.quotes)-1], true
}

// Mids returns the mid-price series, oldest first.
func (h *PriceHistory) Mids() []float64 {
	out := make([]float64, len(h.quotes))
	for i, q := range h.quotes {
		out[i] = q.Mid()
	}
	return out
}

// Bids returns the bid series, oldest first. The close series the broker
// serves is bid-based, so indicator math runs on bids.
func (h *PriceHistory) Bids() []float64 {
	out := make([]float64, len(h.quotes))
	for i, q := range h.quotes {
		out[i] = q.Bid
	}
	return out
}
