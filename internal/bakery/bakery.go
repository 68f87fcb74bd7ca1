package bakery

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const DefaultName = "Eliots Bakery"

// Clock supplies creation timestamps for produced goods.
type Clock func() time.Time

type Option func(*Bakery)

func WithName(name string) Option {
	return func(b *Bakery) {
		if name != "" {
			b.name = name
		}
	}
}

func WithClock(c Clock) Option {
	return func(b *Bakery) {
		if c != nil {
			b.clock = c
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(b *Bakery) {
		if log != nil {
			b.log = log
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(b *Bakery) { b.metrics = m }
}

// Bakery owns the price table, the per-type production queues and the
// cash register. A single mutex guards all of it.
type Bakery struct {
	name    string
	clock   Clock
	log     *zap.Logger
	metrics *Metrics

	mu       sync.Mutex
	prices   map[string]decimal.Decimal
	queues   map[string][]*Good
	byID     map[string]*Good
	register decimal.Decimal
	lastBake time.Time
	seq      uint64
}

type Summary struct {
	Name              string  `json:"name"`
	QuantityRemaining int     `json:"quantity_remaining"`
	InventoryValue    float64 `json:"inventory_value"`
	Register          float64 `json:"register"`
}

func New(opts ...Option) *Bakery {
	b := &Bakery{
		name:   DefaultName,
		clock:  time.Now,
		log:    zap.NewNop(),
		prices: map[string]decimal.Decimal{},
		queues: map[string][]*Good{},
		byID:   map[string]*Good{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bakery) Name() string { return b.name }

// SetPrice stores amount rounded to cents. Every good of the type, past
// and future, reports the new price immediately.
func (b *Bakery) SetPrice(kind string, amount float64) error {
	p, err := roundPrice(amount)
	if err != nil {
		return err
	}

	b.mu.Lock()
	b.prices[kind] = p
	b.mu.Unlock()

	b.log.Debug("price set", zap.String("type", kind), zap.String("price", p.StringFixed(priceScale)))
	return nil
}

func (b *Bakery) AskPrice(kind string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.priceLocked(kind).InexactFloat64()
}

func (b *Bakery) Produce(kind string) *Good {
	b.mu.Lock()

	now := b.clock()
	if now.Before(b.lastBake) {
		now = b.lastBake
	}
	b.lastBake = now
	b.seq++

	g := &Good{
		id:      "g_" + uuid.NewString(),
		kind:    kind,
		bakedOn: now,
		seq:     b.seq,
		owner:   b,
	}
	b.queues[kind] = append(b.queues[kind], g)
	b.byID[g.id] = g
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.Produced.WithLabelValues(kind).Inc()
	}
	b.log.Debug("good produced", zap.String("type", kind), zap.String("id", g.id), zap.Time("baked_on", now))
	return g
}

func (b *Bakery) QuantityRemaining(kind string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remainingLocked(kind)
}

func (b *Bakery) TotalQuantityRemaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := 0
	for kind := range b.queues {
		total += b.remainingLocked(kind)
	}
	return total
}

// RetrieveOldest returns the earliest available good of the type without
// changing it, or nil.
func (b *Bakery) RetrieveOldest(kind string) *Good {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, g := range b.queues[kind] {
		if g.Available() {
			return g
		}
	}
	return nil
}

func (b *Bakery) PurchaseOne(kind string) (*Good, error) {
	sold, err := b.purchase(kind, 1)
	if err != nil {
		return nil, err
	}
	return sold[0], nil
}

func (b *Bakery) PurchaseMany(kind string, quantity int) ([]*Good, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be a positive count, got %d", ErrInvalidArgument, quantity)
	}
	return b.purchase(kind, quantity)
}

func (b *Bakery) purchase(kind string, quantity int) ([]*Good, error) {
	b.mu.Lock()

	queue := b.queues[kind]
	if len(queue) == 0 {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %q has never been produced", ErrUnknownGood, kind)
	}
	if left := b.remainingLocked(kind); quantity > left {
		b.mu.Unlock()
		return nil, fmt.Errorf("%w: %q requested=%d remaining=%d", ErrInsufficientStock, kind, quantity, left)
	}

	price := b.priceLocked(kind)
	sold := make([]*Good, 0, quantity)
	for _, g := range queue {
		if len(sold) == quantity {
			break
		}
		if g.Available() && g.markSold() {
			sold = append(sold, g)
			b.register = b.register.Add(price)
		}
	}
	register := b.register.InexactFloat64()
	if b.metrics != nil {
		b.metrics.Sold.WithLabelValues(kind).Add(float64(len(sold)))
		b.metrics.Register.Set(register)
	}
	b.mu.Unlock()

	b.log.Info("goods purchased",
		zap.String("type", kind),
		zap.Int("quantity", len(sold)),
		zap.String("unit_price", price.StringFixed(priceScale)),
		zap.Float64("register", register),
	)
	return sold, nil
}

func (b *Bakery) InventoryValue(kind string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.valueLocked(kind).InexactFloat64()
}

func (b *Bakery) TotalInventoryValue() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := decimal.Zero
	for kind := range b.queues {
		total = total.Add(b.valueLocked(kind))
	}
	return total.InexactFloat64()
}

func (b *Bakery) InspectRegister() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.register.InexactFloat64()
}

func (b *Bakery) Lookup(id string) (*Good, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	g, ok := b.byID[id]
	return g, ok
}

// Types lists every type that has been produced, sorted.
func (b *Bakery) Types() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.queues))
	for kind := range b.queues {
		out = append(out, kind)
	}
	sort.Strings(out)
	return out
}

func (b *Bakery) Summary() Summary {
	b.mu.Lock()
	defer b.mu.Unlock()

	qty := 0
	value := decimal.Zero
	for kind := range b.queues {
		qty += b.remainingLocked(kind)
		value = value.Add(b.valueLocked(kind))
	}
	return Summary{
		Name:              b.name,
		QuantityRemaining: qty,
		InventoryValue:    value.InexactFloat64(),
		Register:          b.register.InexactFloat64(),
	}
}

func (b *Bakery) onConsumed(g *Good) {
	if b.metrics != nil {
		b.metrics.Consumed.WithLabelValues(g.kind).Inc()
	}
	b.log.Debug("good consumed", zap.String("type", g.kind), zap.String("id", g.id))
}

func (b *Bakery) priceLocked(kind string) decimal.Decimal {
	p, ok := b.prices[kind]
	if !ok {
		return decimal.Zero
	}
	return p
}

func (b *Bakery) remainingLocked(kind string) int {
	n := 0
	for _, g := range b.queues[kind] {
		if g.Available() {
			n++
		}
	}
	return n
}

func (b *Bakery) valueLocked(kind string) decimal.Decimal {
	return b.priceLocked(kind).Mul(decimal.NewFromInt(int64(b.remainingLocked(kind))))
}
