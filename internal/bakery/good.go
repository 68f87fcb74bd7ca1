package bakery

import (
	"sync/atomic"
	"time"
)

// State is the two-bit lifecycle of a Good. Bits are only ever added.
type State uint32

const (
	Available   State = 0
	SoldBit     State = 1 << 0
	ConsumedBit State = 1 << 1
)

func (s State) String() string {
	switch s {
	case Available:
		return "available"
	case SoldBit:
		return "sold"
	case ConsumedBit:
		return "consumed"
	case SoldBit | ConsumedBit:
		return "sold_consumed"
	default:
		return "unknown"
	}
}

// Good is one produced unit. Its price is resolved through the owning
// Bakery on every read.
type Good struct {
	id      string
	kind    string
	bakedOn time.Time
	seq     uint64
	state   atomic.Uint32

	owner *Bakery
}

type GoodView struct {
	ID       string    `json:"id"`
	Type     string    `json:"type"`
	BakedOn  time.Time `json:"baked_on"`
	Seq      uint64    `json:"seq"`
	Price    float64   `json:"price"`
	Sold     bool      `json:"sold"`
	Consumed bool      `json:"consumed"`
}

func (g *Good) ID() string         { return g.id }
func (g *Good) Type() string       { return g.kind }
func (g *Good) BakedOn() time.Time { return g.bakedOn }
func (g *Good) State() State       { return State(g.state.Load()) }
func (g *Good) Sold() bool         { return g.State()&SoldBit != 0 }
func (g *Good) Consumed() bool     { return g.State()&ConsumedBit != 0 }
func (g *Good) Available() bool    { return g.State() == Available }

func (g *Good) Price() float64 {
	return g.owner.AskPrice(g.kind)
}

// Consume marks the good eaten. Only the first call on a given good
// returns true.
func (g *Good) Consume() bool {
	g.owner.mu.Lock()
	defer g.owner.mu.Unlock()

	if !g.setBit(ConsumedBit) {
		return false
	}
	g.owner.onConsumed(g)
	return true
}

func (g *Good) View() GoodView {
	st := g.State()
	return GoodView{
		ID:       g.id,
		Type:     g.kind,
		BakedOn:  g.bakedOn,
		Seq:      g.seq,
		Price:    g.Price(),
		Sold:     st&SoldBit != 0,
		Consumed: st&ConsumedBit != 0,
	}
}

// markSold must be called with the owner's lock held.
func (g *Good) markSold() bool {
	return g.setBit(SoldBit)
}

func (g *Good) setBit(bit State) bool {
	for {
		cur := g.state.Load()
		if State(cur)&bit != 0 {
			return false
		}
		if g.state.CompareAndSwap(cur, cur|uint32(bit)) {
			return true
		}
	}
}
