// Package engine wires the matching core's components into one explicit
// context, replacing the reference implementation's process-wide
// singletons (PriceCache, ProductRegistry, UserRegistry, MarketPublisher,
// MarketTracker — see spec.md §9) with a single constructed struct. Tests
// and processes alike build one Context and drop it at teardown.
package engine

import (
	"log/slog"

	"matchcore/internal/book"
	"matchcore/internal/ledger"
	"matchcore/internal/money"
	"matchcore/internal/product"
	"matchcore/internal/publish"
)

// Context holds every shared component the matching core needs: the price
// cache, the ID generator, the product registry, the user ledger registry,
// and the market publisher/tracker pair. It is the single-threaded engine's
// entire mutable state.
type Context struct {
	Cache     *money.Cache
	IDs       *book.IDGenerator
	Products  *product.Registry
	Users     *ledger.Registry
	Publisher *publish.Publisher
	Tracker   *publish.Tracker
	Logger    *slog.Logger
}

// Option configures a Context during construction.
type Option func(*options)

type options struct {
	cacheCapacity int
	logger        *slog.Logger
	initialUsers  []string
	initialSyms   []string
}

// WithCacheCapacity overrides the PriceCache's eviction capacity (default
// money.MaxEntries).
func WithCacheCapacity(n int) Option {
	return func(o *options) { o.cacheCapacity = n }
}

// WithLogger supplies the base logger every component derives its
// "component"-tagged child logger from.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithInitialUsers registers the given user ids at construction time, as
// UserRegistry.init does in the reference implementation.
func WithInitialUsers(ids ...string) Option {
	return func(o *options) { o.initialUsers = ids }
}

// WithInitialProducts registers the given symbols at construction time.
func WithInitialProducts(symbols ...string) Option {
	return func(o *options) { o.initialSyms = symbols }
}

// New constructs a fully-wired Context: a PriceCache, an IDGenerator, a
// MarketPublisher/Tracker pair, a UserRegistry, and a ProductRegistry that
// mirrors fills into it. Any error registering an initial user or product
// aborts construction.
func New(opts ...Option) (*Context, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	cache := money.NewCache(o.cacheCapacity)
	publisher := publish.NewPublisher()
	tracker := publish.NewTracker(cache, publisher, o.logger)
	users := ledger.NewRegistry()
	if err := users.Init(o.initialUsers); err != nil {
		return nil, err
	}
	products := product.NewRegistry(cache, tracker, users, o.logger)

	ctx := &Context{
		Cache:     cache,
		IDs:       book.NewIDGenerator(),
		Products:  products,
		Users:     users,
		Publisher: publisher,
		Tracker:   tracker,
		Logger:    o.logger.With("component", "engine-context"),
	}

	for _, sym := range o.initialSyms {
		if _, err := products.AddProduct(sym); err != nil {
			return nil, err
		}
	}
	return ctx, nil
}

// SubscribeUserToMarket wires user's ledger to receive market updates for
// symbol, so UserLedger.GetCurrentMarkets reflects that symbol once a
// publication occurs.
func (c *Context) SubscribeUserToMarket(symbol, userID string) error {
	l, err := c.Users.GetUser(userID)
	if err != nil {
		return err
	}
	c.Publisher.Subscribe(symbol, l)
	return nil
}
