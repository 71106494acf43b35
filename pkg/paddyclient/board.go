package paddyclient

import (
	"context"
)

// ReducePrices returns the board state after ev. A newPrice event replaces the
// entry with the same mill and variety, or is appended when there is none.
// Other events and undecodable payloads leave the state as is. state is never
// modified.
func ReducePrices(state []Price, ev Event) []Price {
	if ev.Name != EventNewPrice {
		return state
	}
	incoming, err := ev.Price()
	if err != nil || incoming.Mill.ID == "" || incoming.RiceVariety == "" {
		return state
	}

	next := make([]Price, len(state), len(state)+1)
	copy(next, state)
	for i, p := range next {
		if p.Mill.ID == incoming.Mill.ID && p.RiceVariety == incoming.RiceVariety {
			// Relayed prices carry only the mill id; keep the summary we had.
			if incoming.Mill.Summary == nil {
				incoming.Mill.Summary = p.Mill.Summary
			}
			next[i] = incoming
			return next
		}
	}
	return append(next, incoming)
}

// PriceFilter narrows a board the way the district and riceVariety query
// parameters narrow GET /prices. Empty fields match everything.
type PriceFilter struct {
	District    string
	RiceVariety string
}

func (f PriceFilter) Matches(p Price) bool {
	return (f.District == "" || p.District == f.District) &&
		(f.RiceVariety == "" || p.RiceVariety == f.RiceVariety)
}

// Events wraps dispatch so that newPrice events for prices outside f are
// dropped. Other events pass through.
func (f PriceFilter) Events(dispatch func(Event)) func(Event) {
	if f == (PriceFilter{}) {
		return dispatch
	}
	return func(ev Event) {
		if ev.Name == EventNewPrice {
			p, err := ev.Price()
			if err != nil || !f.Matches(p) {
				return
			}
		}
		dispatch(ev)
	}
}

// Board holds the live price list. Events are applied in arrival order by the
// goroutine running Run; each resulting state is published on Updates.
type Board struct {
	events  chan Event
	updates chan []Price
	state   []Price
}

func NewBoard(initial []Price) *Board {
	state := make([]Price, len(initial))
	copy(state, initial)
	return &Board{
		events:  make(chan Event, 64),
		updates: make(chan []Price, 1),
		state:   state,
	}
}

// Dispatch queues ev for Run. It is safe to pass as a Relay callback. Events
// arriving while the queue is full are dropped.
func (b *Board) Dispatch(ev Event) {
	select {
	case b.events <- ev:
	default:
	}
}

// Updates receives the state after each change. Only the latest state is
// retained when the reader falls behind.
func (b *Board) Updates() <-chan []Price {
	return b.updates
}

// Run applies queued events until ctx is cancelled.
func (b *Board) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-b.events:
			next := ReducePrices(b.state, ev)
			if sameSlice(next, b.state) {
				continue
			}
			b.state = next
			b.publish(next)
		}
	}
}

func (b *Board) publish(state []Price) {
	select {
	case <-b.updates:
	default:
	}
	b.updates <- state
}

func sameSlice(a, b []Price) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return &a[0] == &b[0]
}
