// Package product implements ProductBook, which couples a BUY and SELL
// BookSideEngine for one symbol and drives the two-phase matching loop, and
// ProductRegistry, the symbol-to-ProductBook directory that is the external
// entry point for order/quote submission.
package product

import (
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"matchcore/internal/book"
	"matchcore/internal/ledger"
	"matchcore/internal/money"
	"matchcore/internal/publish"
	"matchcore/internal/validate"
	"matchcore/pkg/types"
)

// Book couples a BUY and SELL BookSideEngine for one symbol and owns the
// matching loop between them.
type Book struct {
	symbol string
	buy    *book.BookSideEngine
	sell   *book.BookSideEngine

	cache   *money.Cache
	tracker *publish.Tracker
	onFill  func(book.Snapshot)

	logger *slog.Logger
}

// NewBook constructs an empty ProductBook for symbol. onFill is invoked with
// the post-mutation snapshot of every Tradable touched by a match, insert,
// cancel, or removeQuotesForUser call — the caller (ProductRegistry) uses
// it to mirror snapshots into the UserRegistry.
func NewBook(symbol string, cache *money.Cache, tracker *publish.Tracker, onFill func(book.Snapshot), logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "product-book", "symbol", symbol)
	return &Book{
		symbol:  symbol,
		buy:     book.NewBookSideEngine(types.BUY, logger),
		sell:    book.NewBookSideEngine(types.SELL, logger),
		cache:   cache,
		tracker: tracker,
		onFill:  onFill,
		logger:  logger,
	}
}

// Symbol returns the normalized symbol this book serves.
func (pb *Book) Symbol() string {
	return pb.symbol
}

func (pb *Book) sideEngine(side types.Side) *book.BookSideEngine {
	if side == types.BUY {
		return pb.buy
	}
	return pb.sell
}

func (pb *Book) notify(snap book.Snapshot) {
	if pb.onFill != nil {
		pb.onFill(snap)
	}
}

// Add inserts t into the appropriate side, runs the matching loop, and
// publishes the post-match top-of-book exactly once.
func (pb *Book) Add(t *book.Tradable) (book.Snapshot, error) {
	snap, err := pb.sideEngine(t.Side()).Insert(t)
	if err != nil {
		return book.Snapshot{}, err
	}
	pb.notify(snap)
	pb.match()
	pb.publish()
	return t.Snapshot(), nil
}

// AddQuote validates and constructs both of q's sides first, so a malformed
// volume or price leaves any existing resting quote for q.User untouched
// (spec.md §7: no operation leaves the core in a partially mutated state).
// Only once both sides are constructed does it remove any existing
// quote-sides for q.User, insert the new BUY and SELL quote-sides, run the
// matching loop, and publish once. Returns the [buySnapshot, sellSnapshot]
// pair as it stands after matching.
func (pb *Book) AddQuote(gen *book.IDGenerator, q *book.Quote) ([2]book.Snapshot, error) {
	buyT, err := book.New(gen, q.User, pb.symbol, q.BuyPrice, types.BUY, book.KindQuoteSide, q.BuyVolume)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	sellT, err := book.New(gen, q.User, pb.symbol, q.SellPrice, types.SELL, book.KindQuoteSide, q.SellVolume)
	if err != nil {
		return [2]book.Snapshot{}, err
	}

	if _, err := pb.removeQuotesForUserNoPublish(q.User); err != nil {
		return [2]book.Snapshot{}, err
	}

	buySnap, err := pb.buy.Insert(buyT)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	pb.notify(buySnap)
	sellSnap, err := pb.sell.Insert(sellT)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	pb.notify(sellSnap)

	pb.match()
	pb.publish()
	return [2]book.Snapshot{buyT.Snapshot(), sellT.Snapshot()}, nil
}

// Cancel delegates to the given side's engine, publishes once, and returns
// the resulting snapshot (or false if id was not found).
func (pb *Book) Cancel(side types.Side, id string) (book.Snapshot, bool) {
	snap, ok := pb.sideEngine(side).Cancel(id)
	if !ok {
		pb.logger.Info("cancel: unknown id", "side", side, "id", id)
		return book.Snapshot{}, false
	}
	pb.notify(snap)
	pb.publish()
	return snap, true
}

// RemoveQuotesForUser validates user, cancels their resting quote-side on
// each side (if any), publishes once, and returns the [buy, sell] snapshot
// pair. A side with no matching quote-side yields its zero Snapshot in that
// slot.
func (pb *Book) RemoveQuotesForUser(user string) ([2]book.Snapshot, error) {
	result, err := pb.removeQuotesForUserNoPublish(user)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	pb.publish()
	return result, nil
}

func (pb *Book) removeQuotesForUserNoPublish(user string) ([2]book.Snapshot, error) {
	var result [2]book.Snapshot
	snap, ok, err := pb.buy.RemoveForUser(user)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	if ok {
		pb.notify(snap)
		result[0] = snap
	}
	snap, ok, err = pb.sell.RemoveForUser(user)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	if ok {
		pb.notify(snap)
		result[1] = snap
	}
	return result, nil
}

// match runs the two-phase matching loop described in spec.md §4.3: it
// bounds the session by max(topVol(buy), topVol(sell)), then alternates
// tradeOut calls on both sides using the opposite side's former-top price
// as threshold, re-reading tops every iteration, until either side is
// exhausted, the book stops crossing, or the target is consumed.
func (pb *Book) match() {
	bb, okBB := pb.buy.TopPrice()
	ss, okSS := pb.sell.TopPrice()
	if !okBB || !okSS {
		return
	}
	if ss.Compare(bb) > 0 {
		return
	}

	target := pb.buy.TopVolume()
	if v := pb.sell.TopVolume(); v > target {
		target = v
	}

	for target > 0 {
		bb, okBB = pb.buy.TopPrice()
		ss, okSS = pb.sell.TopPrice()
		if !okBB || !okSS || ss.Compare(bb) > 0 {
			return
		}

		buyVol := pb.buy.TopVolume()
		sellVol := pb.sell.TopVolume()
		take := buyVol
		if sellVol < take {
			take = sellVol
		}
		if take <= 0 {
			return
		}

		pb.buy.TradeOut(ss, take, pb.notify)
		pb.sell.TradeOut(bb, take, pb.notify)
		target -= take
	}
}

// publish reads the post-match top-of-book and forwards it to the tracker
// exactly once.
func (pb *Book) publish() {
	buyPrice, okBuy := pb.buy.TopPrice()
	sellPrice, okSell := pb.sell.TopPrice()
	pb.tracker.UpdateMarket(pb.symbol, buyPrice, pb.buy.TopVolume(), okBuy, sellPrice, pb.sell.TopVolume(), okSell)
}

// BuyDepth returns the full enumeration of resting BUY-side Tradables, in
// side-order across levels and FIFO within each level.
func (pb *Book) BuyDepth() []book.Snapshot {
	return pb.buy.Depth()
}

// SellDepth returns the full enumeration of resting SELL-side Tradables, in
// side-order across levels and FIFO within each level.
func (pb *Book) SellDepth() []book.Snapshot {
	return pb.sell.Depth()
}

// Dump renders the textual form from spec.md §6: a rule line, a header,
// the BUY side's dump, the SELL side's dump, and a closing rule line.
func (pb *Book) Dump() string {
	rule := strings.Repeat("-", 44)
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nProduct Book: %s\n", rule, pb.symbol)
	b.WriteString(pb.buy.Dump())
	b.WriteString(pb.sell.Dump())
	b.WriteString(rule)
	return b.String()
}

// Registry maps normalized symbol to Book and is the external entry point
// for all order/quote submission and cancellation.
type Registry struct {
	books   map[string]*Book
	cache   *money.Cache
	tracker *publish.Tracker
	ledgers *ledger.Registry
	logger  *slog.Logger
}

// NewRegistry builds an empty Registry wired to cache (price interning),
// tracker (publication), and ledgers (per-user snapshot mirroring).
func NewRegistry(cache *money.Cache, tracker *publish.Tracker, ledgers *ledger.Registry, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		books:   make(map[string]*Book),
		cache:   cache,
		tracker: tracker,
		ledgers: ledgers,
		logger:  logger.With("component", "product-registry"),
	}
}

func (r *Registry) mirror(snap book.Snapshot) {
	if snap.ID == "" {
		return
	}
	r.ledgers.UpdateTradable(snap.User, snap)
}

// AddProduct validates sym's format and registers a fresh, empty Book for
// it, overwriting any existing book for the same normalized symbol.
func (r *Registry) AddProduct(sym string) (*Book, error) {
	norm, err := validate.Symbol(sym)
	if err != nil {
		return nil, err
	}
	pb := NewBook(norm, r.cache, r.tracker, r.mirror, r.logger)
	r.books[norm] = pb
	return pb, nil
}

// GetProductBook returns the book for sym, failing with
// types.ErrDataValidation if no such product has been registered.
func (r *Registry) GetProductBook(sym string) (*Book, error) {
	norm := strings.ToUpper(strings.TrimSpace(sym))
	pb, ok := r.books[norm]
	if !ok {
		return nil, fmt.Errorf("%w: unknown product %q", types.ErrDataValidation, sym)
	}
	return pb, nil
}

// GetRandomProduct returns a uniformly random registered book, failing with
// types.ErrDataValidation if the registry is empty.
func (r *Registry) GetRandomProduct() (*Book, error) {
	if len(r.books) == 0 {
		return nil, fmt.Errorf("%w: no products registered", types.ErrDataValidation)
	}
	symbols := make([]string, 0, len(r.books))
	for sym := range r.books {
		symbols = append(symbols, sym)
	}
	return r.books[symbols[rand.Intn(len(symbols))]], nil
}

// AddTradable routes t to its product's book, runs the add (matching +
// publish), and mirrors the resulting snapshot into the user registry.
func (r *Registry) AddTradable(t *book.Tradable) (book.Snapshot, error) {
	pb, err := r.GetProductBook(t.Product())
	if err != nil {
		return book.Snapshot{}, err
	}
	snap, err := pb.Add(t)
	if err != nil {
		return book.Snapshot{}, err
	}
	r.mirror(snap)
	return snap, nil
}

// AddQuote routes q to its product's book and mirrors both resulting
// snapshots into the user registry.
func (r *Registry) AddQuote(gen *book.IDGenerator, q *book.Quote) ([2]book.Snapshot, error) {
	pb, err := r.GetProductBook(q.Product)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	snaps, err := pb.AddQuote(gen, q)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	r.mirror(snaps[0])
	r.mirror(snaps[1])
	return snaps, nil
}

// Cancel routes a cancel-by-id request to sym's book and mirrors the result.
func (r *Registry) Cancel(sym string, side types.Side, id string) (book.Snapshot, error) {
	pb, err := r.GetProductBook(sym)
	if err != nil {
		return book.Snapshot{}, err
	}
	snap, ok := pb.Cancel(side, id)
	if !ok {
		return book.Snapshot{}, nil
	}
	r.mirror(snap)
	return snap, nil
}

// CancelQuote removes user's resting quote-sides from sym's book on both
// sides and mirrors any resulting snapshots.
func (r *Registry) CancelQuote(sym string, user string) ([2]book.Snapshot, error) {
	pb, err := r.GetProductBook(sym)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	snaps, err := pb.RemoveQuotesForUser(user)
	if err != nil {
		return [2]book.Snapshot{}, err
	}
	r.mirror(snaps[0])
	r.mirror(snaps[1])
	return snaps, nil
}
