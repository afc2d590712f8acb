// Package ledger tracks, per user, the latest snapshot of every Tradable
// they have touched and the latest top-of-book they have been shown for
// each symbol they follow.
package ledger

import (
	"fmt"
	"strings"

	"matchcore/internal/book"
	"matchcore/internal/publish"
	"matchcore/internal/validate"
	"matchcore/pkg/types"
)

// Ledger is one user's insertion-ordered view of their own Tradables plus
// the latest market they have been shown per symbol. It implements
// publish.Observer so it can subscribe directly to a symbol's updates.
type Ledger struct {
	userID string

	order     []string // tradable ids in first-seen order
	tradables map[string]book.Snapshot

	markets map[string]marketPair
}

type marketPair struct {
	buy  publish.MarketSide
	sell publish.MarketSide
}

func newLedger(userID string) *Ledger {
	return &Ledger{
		userID:    userID,
		tradables: make(map[string]book.Snapshot),
		markets:   make(map[string]marketPair),
	}
}

// UserID returns the normalized (uppercase) user id this ledger belongs to.
func (l *Ledger) UserID() string {
	return l.userID
}

// UpdateTradable records snap as the latest state for its id, appending it
// to the insertion order on first sight. A zero Snapshot (empty id) is a
// no-op.
func (l *Ledger) UpdateTradable(snap book.Snapshot) {
	if snap.ID == "" {
		return
	}
	if _, seen := l.tradables[snap.ID]; !seen {
		l.order = append(l.order, snap.ID)
	}
	l.tradables[snap.ID] = snap
}

// UpdateCurrentMarket implements publish.Observer: stores the latest
// (buy, sell) pair for symbol, overwriting any prior value.
func (l *Ledger) UpdateCurrentMarket(symbol string, buy, sell publish.MarketSide) {
	l.markets[symbol] = marketPair{buy: buy, sell: sell}
}

// Tradables returns the recorded snapshots in first-seen order.
func (l *Ledger) Tradables() []book.Snapshot {
	out := make([]book.Snapshot, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.tradables[id])
	}
	return out
}

// GetCurrentMarkets renders one line per followed symbol:
// "{sym} {buy} - {sell}\n", in no particular symbol order beyond Go's map
// iteration (callers needing determinism should sort the symbol set
// themselves).
func (l *Ledger) GetCurrentMarkets() string {
	var b strings.Builder
	for sym, pair := range l.markets {
		fmt.Fprintf(&b, "%s %s - %s\n", sym, pair.buy, pair.sell)
	}
	return b.String()
}

// String renders the external textual dump: a header line followed by one
// indented line per recorded Tradable snapshot, in first-seen order.
func (l *Ledger) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  User Id: %s\n", l.userID)
	for _, id := range l.order {
		fmt.Fprintf(&b, "\t%s\n", l.tradables[id])
	}
	return b.String()
}

// Registry owns all user ledgers, keyed by normalized user id.
type Registry struct {
	users map[string]*Ledger
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{users: make(map[string]*Ledger)}
}

// Init validates and normalizes each id in ids, creating a fresh Ledger for
// each. Duplicates overwrite (a later id in the slice replaces an earlier
// one's ledger).
func (r *Registry) Init(ids []string) error {
	for _, id := range ids {
		norm, err := validate.User(id)
		if err != nil {
			return err
		}
		r.users[norm] = newLedger(norm)
	}
	return nil
}

// AddUser validates, normalizes, and registers a single user id, overwriting
// any existing ledger for that id.
func (r *Registry) AddUser(id string) (*Ledger, error) {
	norm, err := validate.User(id)
	if err != nil {
		return nil, err
	}
	l := newLedger(norm)
	r.users[norm] = l
	return l, nil
}

// GetUser returns the ledger for id, failing with types.ErrUserNotFound if
// absent. id is normalized (trimmed case ignored via uppercase comparison)
// before lookup.
func (r *Registry) GetUser(id string) (*Ledger, error) {
	norm := strings.ToUpper(strings.TrimSpace(id))
	l, ok := r.users[norm]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUserNotFound, id)
	}
	return l, nil
}

// UpdateTradable looks up userID's ledger and records snap against it. A
// missing ledger is a no-op at this layer — callers needing the
// UserNotFound error should resolve the ledger via GetUser first.
func (r *Registry) UpdateTradable(userID string, snap book.Snapshot) {
	l, err := r.GetUser(userID)
	if err != nil {
		return
	}
	l.UpdateTradable(snap)
}
