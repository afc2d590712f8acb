// Package book implements the matching core's resident-interest model:
// Tradable (orders and quote-sides), its immutable Snapshot, and
// BookSideEngine — the price-level-ordered, FIFO-within-level store that
// a ProductBook drives on each side of a symbol.
package book

import (
	"fmt"
	"sync/atomic"

	"matchcore/internal/money"
	"matchcore/internal/validate"
	"matchcore/pkg/types"
)

// Kind distinguishes a standalone order from one side of a two-sided quote.
type Kind = types.Kind

const (
	KindOrder     = types.KindOrder
	KindQuoteSide = types.KindQuoteSide
)

// IDGenerator produces a monotonically increasing per-construction tick,
// used to keep Tradable ids unique within a process lifetime even when
// (user, product, price) repeat. The tick need not track wall-clock time;
// tests must not assert its value.
type IDGenerator struct {
	tick atomic.Int64
}

// NewIDGenerator returns a fresh, independent tick source. Each engine
// Context owns one — there is no process-wide singleton.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{}
}

func (g *IDGenerator) next() int64 {
	return g.tick.Add(1)
}

// Tradable is a single piece of resident interest: a standalone order, or
// one side of a two-sided quote. Invariants (hold after every public
// operation on the owning BookSideEngine):
//
//  1. originalVolume == remainingVolume + cancelledVolume + filledVolume
//  2. remainingVolume > 0 iff resident in a BookSideEngine slot
//  3. a Tradable is in at most one slot at a time; its slot's price equals
//     its own price
//  4. insertion order within a slot is preserved across cancels/partial
//     fills that leave remainingVolume > 0
type Tradable struct {
	id      string
	user    string
	product string
	price   money.Price
	side    types.Side
	kind    Kind

	originalVolume  int
	remainingVolume int
	cancelledVolume int
	filledVolume    int
}

// New constructs a Tradable, validating user format (3 letters, uppercased),
// product symbol format, and original volume (0 < v < 10000). The returned
// Tradable has remainingVolume == originalVolume and is not yet resident in
// any BookSideEngine slot — insert it via BookSideEngine.Insert.
func New(gen *IDGenerator, user, product string, price money.Price, side types.Side, kind Kind, volume int) (*Tradable, error) {
	normUser, err := validate.User(user)
	if err != nil {
		return nil, err
	}
	normProduct, err := validate.Symbol(product)
	if err != nil {
		return nil, err
	}
	if err := validate.Volume(volume); err != nil {
		return nil, err
	}

	id := fmt.Sprintf("%s%s%s%d", normUser, normProduct, price.String(), gen.next())

	return &Tradable{
		id:              id,
		user:            normUser,
		product:         normProduct,
		price:           price,
		side:            side,
		kind:            kind,
		originalVolume:  volume,
		remainingVolume: volume,
	}, nil
}

func (t *Tradable) ID() string           { return t.id }
func (t *Tradable) User() string         { return t.user }
func (t *Tradable) Product() string      { return t.product }
func (t *Tradable) Price() money.Price   { return t.price }
func (t *Tradable) Side() types.Side     { return t.side }
func (t *Tradable) Kind() Kind           { return t.kind }
func (t *Tradable) OriginalVolume() int  { return t.originalVolume }
func (t *Tradable) RemainingVolume() int { return t.remainingVolume }
func (t *Tradable) CancelledVolume() int { return t.cancelledVolume }
func (t *Tradable) FilledVolume() int    { return t.filledVolume }

// Snapshot captures the Tradable's current observable state immutably.
func (t *Tradable) Snapshot() Snapshot {
	return Snapshot{
		ID:              t.id,
		User:            t.user,
		Product:         t.product,
		Price:           t.price,
		Side:            t.side,
		Kind:            t.kind,
		OriginalVolume:  t.originalVolume,
		RemainingVolume: t.remainingVolume,
		CancelledVolume: t.cancelledVolume,
		FilledVolume:    t.filledVolume,
	}
}

// String renders the external textual form, which differs by Kind.
func (t *Tradable) String() string {
	if t.kind == KindQuoteSide {
		return fmt.Sprintf("%s %s side quote for %s: %s, Orig Vol: %d, Rem Vol: %d, Fill Vol: %d, CXL Vol: %d, ID: %s",
			t.user, t.side, t.product, t.price, t.originalVolume, t.remainingVolume, t.filledVolume, t.cancelledVolume, t.id)
	}
	return fmt.Sprintf("%s %s order: %s at %s, Orig Vol: %d, Rem Vol: %d, Fill Vol: %d, CXL Vol: %d, ID: %s",
		t.user, t.side, t.product, t.price, t.originalVolume, t.remainingVolume, t.filledVolume, t.cancelledVolume, t.id)
}

// fill records take units of volume as filled. take must be in
// (0, remainingVolume].
func (t *Tradable) fill(take int) {
	t.remainingVolume -= take
	t.filledVolume += take
}

// cancelRemaining moves all remaining volume to cancelled.
func (t *Tradable) cancelRemaining() {
	t.cancelledVolume += t.remainingVolume
	t.remainingVolume = 0
}
