// Package publish fans out top-of-book changes to interested observers.
//
// MarketTracker composes the post-match top-of-book into a MarketSide pair,
// prints the market banner, and forwards the pair to MarketPublisher, which
// holds the subscriber lists and calls each Observer in subscription order.
package publish

import (
	"fmt"
	"log/slog"
	"strings"

	"matchcore/internal/money"
)

// MarketSide is one side's published state: a price and the total resting
// volume at that price. The null-market sentinel is MarketSide{} (zero
// Price, zero Volume) — substituted whenever the underlying side has no
// top price or its top volume is zero.
type MarketSide struct {
	Price  money.Price
	Volume int
}

// String renders "{price}x{volume}".
func (s MarketSide) String() string {
	return fmt.Sprintf("%sx%d", s.Price, s.Volume)
}

// Observer receives market updates for symbols it has subscribed to.
type Observer interface {
	UpdateCurrentMarket(symbol string, buy, sell MarketSide)
}

// Publisher maps symbol to an ordered list of observers.
type Publisher struct {
	observers map[string][]Observer
}

// NewPublisher returns an empty Publisher.
func NewPublisher() *Publisher {
	return &Publisher{observers: make(map[string][]Observer)}
}

// Subscribe appends obs to symbol's observer list.
func (p *Publisher) Subscribe(symbol string, obs Observer) {
	p.observers[symbol] = append(p.observers[symbol], obs)
}

// Unsubscribe removes the first occurrence of obs from symbol's list, if
// present. No-op if obs is not subscribed.
func (p *Publisher) Unsubscribe(symbol string, obs Observer) {
	list := p.observers[symbol]
	for i, o := range list {
		if o == obs {
			p.observers[symbol] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Accept fans out (buy, sell) to every observer subscribed to symbol, in
// subscription order.
func (p *Publisher) Accept(symbol string, buy, sell MarketSide) {
	for _, obs := range p.observers[symbol] {
		obs.UpdateCurrentMarket(symbol, buy, sell)
	}
}

// Tracker composes raw top-of-book reads into published MarketSide pairs
// and prints the market banner before forwarding to a Publisher.
type Tracker struct {
	cache     *money.Cache
	publisher *Publisher
	logger    *slog.Logger
}

// NewTracker builds a Tracker over cache (used for width arithmetic) and
// publisher (used to fan out the resulting pair).
func NewTracker(cache *money.Cache, publisher *Publisher, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		cache:     cache,
		publisher: publisher,
		logger:    logger.With("component", "market-tracker"),
	}
}

// UpdateMarket composes the top-of-book for symbol, prints the three-line
// banner, and forwards the resulting MarketSide pair to the publisher.
// hasBuy/hasSell report whether the corresponding side has a top price at
// all; a false value (or a zero volume) yields the null-market sentinel.
func (t *Tracker) UpdateMarket(symbol string, buyPrice money.Price, buyVol int, hasBuy bool, sellPrice money.Price, sellVol int, hasSell bool) {
	buy := MarketSide{}
	if hasBuy && buyVol != 0 {
		buy = MarketSide{Price: buyPrice, Volume: buyVol}
	}
	sell := MarketSide{}
	if hasSell && sellVol != 0 {
		sell = MarketSide{Price: sellPrice, Volume: sellVol}
	}

	width := t.cache.Zero()
	if hasBuy && hasSell {
		width = sellPrice.Subtract(t.cache, buyPrice)
	}

	const header = "***** Current Market *****"
	rule := strings.Repeat("*", len(header))
	banner := fmt.Sprintf("%s\n* %s %s - %s [%s]\n%s", header, symbol, buy, sell, width, rule)
	t.logger.Info("market banner", "symbol", symbol, "buy", buy.String(), "sell", sell.String(), "width", width.String())
	fmt.Println(banner)

	t.publisher.Accept(symbol, buy, sell)
}
