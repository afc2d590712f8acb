package book

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"matchcore/internal/money"
	"matchcore/internal/validate"
	"matchcore/pkg/types"
)

// level holds the FIFO slot of Tradables resting at one price.
type level struct {
	price money.Price
	slot  []*Tradable
}

// BookSideEngine owns the ordered price map for one side of one symbol:
// an ordered map from Price to a FIFO sequence of Tradable handles. SELL
// sides are ordered ascending (best = lowest); BUY sides descending
// (best = highest).
//
// Structural mutation rule (spec.md §5): while a method traverses the
// price-ordered keys, it may mutate slot contents (values) freely but must
// not add or remove keys mid-traversal — empty levels encountered or
// created during traversal are recorded and pruned only after the
// traversal completes.
type BookSideEngine struct {
	side   types.Side
	prices []int64 // sorted in side-order (best price first)
	levels map[int64]*level
	logger *slog.Logger
}

// NewBookSideEngine creates an empty engine for one side of one symbol.
func NewBookSideEngine(side types.Side, logger *slog.Logger) *BookSideEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &BookSideEngine{
		side:   side,
		levels: make(map[int64]*level),
		logger: logger.With("component", "book-side", "side", string(side)),
	}
}

// Side reports which side this engine holds.
func (e *BookSideEngine) Side() types.Side {
	return e.side
}

// better reports whether cents a sorts before cents b in this side's order.
func (e *BookSideEngine) better(a, b int64) bool {
	if e.side == types.SELL {
		return a < b
	}
	return a > b
}

// atOrBetter reports whether cents is at-or-better than threshold for this
// side: >= for BUY, <= for SELL.
func (e *BookSideEngine) atOrBetter(cents, threshold int64) bool {
	if e.side == types.BUY {
		return cents >= threshold
	}
	return cents <= threshold
}

// findIndex locates cents in the sorted prices slice, returning the
// insertion point and whether it is already present.
func (e *BookSideEngine) findIndex(cents int64) (idx int, found bool) {
	n := len(e.prices)
	idx = sort.Search(n, func(i int) bool { return !e.better(e.prices[i], cents) })
	if idx < n && e.prices[idx] == cents {
		return idx, true
	}
	return idx, false
}

// levelAt returns the level for cents, creating and inserting it in
// side-order if absent.
func (e *BookSideEngine) levelAt(cents int64, price money.Price) *level {
	idx, found := e.findIndex(cents)
	if found {
		return e.levels[cents]
	}
	lv := &level{price: price}
	e.levels[cents] = lv
	e.prices = append(e.prices, 0)
	copy(e.prices[idx+1:], e.prices[idx:])
	e.prices[idx] = cents
	return lv
}

// pruneEmpty removes cents from the ordered key list and the level map if
// its slot is empty. Called only after the traversal that emptied it has
// completed, per the structural-mutation rule.
func (e *BookSideEngine) pruneEmpty(cents int64) {
	lv, ok := e.levels[cents]
	if !ok || len(lv.slot) > 0 {
		return
	}
	idx, found := e.findIndex(cents)
	if !found {
		return
	}
	e.prices = append(e.prices[:idx], e.prices[idx+1:]...)
	delete(e.levels, cents)
}

// Insert appends t to the slot for its price, creating the level if
// necessary. Preconditions: t.Side() matches this engine's side and
// t.RemainingVolume() > 0.
func (e *BookSideEngine) Insert(t *Tradable) (Snapshot, error) {
	if t.Side() != e.side {
		return Snapshot{}, types.ErrIllegalArgument
	}
	if t.RemainingVolume() <= 0 {
		return Snapshot{}, types.ErrIllegalArgument
	}
	lv := e.levelAt(t.Price().Cents(), t.Price())
	lv.slot = append(lv.slot, t)
	return t.Snapshot(), nil
}

// Cancel scans price levels in side-order for the first Tradable whose id
// matches. It moves the Tradable's remaining volume to cancelled, removes
// it from its slot, and prunes the slot afterward if it is now empty.
// Returns (snapshot, true) on a match, or (zero, false) if no such id
// exists.
func (e *BookSideEngine) Cancel(id string) (Snapshot, bool) {
	for _, cents := range e.prices {
		lv := e.levels[cents]
		for i, t := range lv.slot {
			if t.ID() != id {
				continue
			}
			t.cancelRemaining()
			snap := t.Snapshot()
			lv.slot = append(lv.slot[:i], lv.slot[i+1:]...)
			e.pruneEmpty(cents)
			return snap, true
		}
	}
	return Snapshot{}, false
}

// RemoveForUser validates and normalizes user (spec.md §4.2), then scans in
// side-order for the first quote-side Tradable belonging to it and cancels
// it, ignoring standalone orders entirely.
func (e *BookSideEngine) RemoveForUser(user string) (Snapshot, bool, error) {
	norm, err := validate.User(user)
	if err != nil {
		return Snapshot{}, false, err
	}
	for _, cents := range e.prices {
		lv := e.levels[cents]
		for _, t := range lv.slot {
			if t.Kind() == KindQuoteSide && t.User() == norm {
				snap, ok := e.Cancel(t.ID())
				return snap, ok, nil
			}
		}
	}
	return Snapshot{}, false, nil
}

// TradeOut consumes up to volume of resting liquidity at-or-better than
// threshold (>= for BUY, <= for SELL), sweeping full levels and then
// allocating the remainder of a level pro-rata by remaining volume with
// ceiling rounding. notify is called with the post-mutation snapshot of
// every Tradable whose volume changed, in FIFO-within-level and
// price-order-across-levels emission order.
func (e *BookSideEngine) TradeOut(threshold money.Price, volume int, notify func(Snapshot)) {
	remaining := volume
	thresholdCents := threshold.Cents()

	for {
		if remaining <= 0 {
			return
		}
		if len(e.prices) == 0 {
			return
		}
		top := e.prices[0]
		if !e.atOrBetter(top, thresholdCents) {
			return
		}

		lv := e.levels[top]
		slotTotal := 0
		for _, t := range lv.slot {
			slotTotal += t.RemainingVolume()
		}
		if slotTotal == 0 {
			e.pruneEmpty(top)
			continue
		}

		if remaining >= slotTotal {
			for _, t := range lv.slot {
				take := t.RemainingVolume()
				if take <= 0 {
					continue
				}
				t.fill(take)
				notify(t.Snapshot())
			}
			lv.slot = lv.slot[:0]
			e.pruneEmpty(top)
			remaining -= slotTotal
			continue
		}

		// Pro-rata branch: volumeForRound is the remaining value observed
		// on entry, fixed as the denominator for ceiling shares so
		// rounding deficits redistribute to later FIFO entries rather
		// than shrinking as the round progresses.
		volumeForRound := remaining
		i := 0
		for i < len(lv.slot) && remaining > 0 {
			t := lv.slot[i]
			rem := t.RemainingVolume()
			if rem <= 0 {
				i++
				continue
			}
			share := ceilDiv(volumeForRound*rem, slotTotal)
			take := minInt(share, remaining, rem)
			if take <= 0 {
				i++
				continue
			}
			t.fill(take)
			remaining -= take
			if t.RemainingVolume() == 0 {
				notify(t.Snapshot())
				lv.slot = append(lv.slot[:i], lv.slot[i+1:]...)
			} else {
				notify(t.Snapshot())
				i++
			}
		}
		e.pruneEmpty(top)
	}
}

// TopPrice returns the best resting price, or false if the side is empty.
func (e *BookSideEngine) TopPrice() (money.Price, bool) {
	if len(e.prices) == 0 {
		return money.Price{}, false
	}
	return e.levels[e.prices[0]].price, true
}

// TopVolume returns the total remaining volume at the best price, or 0 if
// the side is empty.
func (e *BookSideEngine) TopVolume() int {
	if len(e.prices) == 0 {
		return 0
	}
	total := 0
	for _, t := range e.levels[e.prices[0]].slot {
		total += t.RemainingVolume()
	}
	return total
}

// Depth returns the full enumeration of resting Tradables, in side-order
// across levels and FIFO within each level.
func (e *BookSideEngine) Depth() []Snapshot {
	var out []Snapshot
	for _, cents := range e.prices {
		for _, t := range e.levels[cents].slot {
			out = append(out, t.Snapshot())
		}
	}
	return out
}

// OrdersAt returns the snapshots resting at exactly price p.
func (e *BookSideEngine) OrdersAt(p money.Price) []Snapshot {
	lv, ok := e.levels[p.Cents()]
	if !ok {
		return nil
	}
	out := make([]Snapshot, 0, len(lv.slot))
	for _, t := range lv.slot {
		out = append(out, t.Snapshot())
	}
	return out
}

// HasLevel reports whether p is present with a non-empty slot.
func (e *BookSideEngine) HasLevel(p money.Price) bool {
	lv, ok := e.levels[p.Cents()]
	return ok && len(lv.slot) > 0
}

// IsEmpty reports whether no slot contains any Tradable.
func (e *BookSideEngine) IsEmpty() bool {
	return len(e.prices) == 0
}

// Dump renders the textual BookSide form from spec.md §6: a header line,
// then either "<Empty>" or one line per level followed by its Tradables
// in FIFO order.
func (e *BookSideEngine) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Side: %s\n", e.side)
	if len(e.prices) == 0 {
		b.WriteString("\t<Empty>\n")
		return b.String()
	}
	for _, cents := range e.prices {
		lv := e.levels[cents]
		fmt.Fprintf(&b, "\t%s:\n", lv.price)
		for _, t := range lv.slot {
			fmt.Fprintf(&b, "\t\t%s\n", t)
		}
	}
	return b.String()
}

func ceilDiv(numerator, denominator int) int {
	if denominator == 0 {
		return 0
	}
	return (numerator + denominator - 1) / denominator
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
