package publish

import (
	"testing"

	"matchcore/internal/money"
)

type recordingObserver struct {
	calls []string
	name  string
	order *[]string // shared across observers to record notification order
}

func (r *recordingObserver) UpdateCurrentMarket(symbol string, buy, sell MarketSide) {
	r.calls = append(r.calls, symbol+":"+buy.String()+"-"+sell.String())
	if r.order != nil {
		*r.order = append(*r.order, r.name)
	}
}

func TestPublisherSubscriptionOrder(t *testing.T) {
	t.Parallel()
	p := NewPublisher()
	var order []string
	obsA := &recordingObserver{name: "A", order: &order}
	obsB := &recordingObserver{name: "B", order: &order}

	p.Subscribe("TGT", obsA)
	p.Subscribe("TGT", obsB)

	cache := money.NewCache(0)
	p.Accept("TGT", MarketSide{Price: cache.Intern(10000), Volume: 5}, MarketSide{})

	if len(obsA.calls) != 1 || len(obsB.calls) != 1 {
		t.Fatalf("expected both observers notified once, got a=%d b=%d", len(obsA.calls), len(obsB.calls))
	}
	if len(order) != 2 || order[0] != "A" || order[1] != "B" {
		t.Errorf("notification order = %v, want [A B] (subscription order)", order)
	}
}

func TestPublisherUnsubscribe(t *testing.T) {
	t.Parallel()
	p := NewPublisher()
	obs := &recordingObserver{}
	p.Subscribe("TGT", obs)
	p.Unsubscribe("TGT", obs)
	p.Accept("TGT", MarketSide{}, MarketSide{})
	if len(obs.calls) != 0 {
		t.Errorf("unsubscribed observer should not be notified, got %d calls", len(obs.calls))
	}

	// Unsubscribing an observer that was never subscribed is a no-op.
	p.Unsubscribe("TGT", obs)
}

func TestTrackerNullMarketSentinel(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	pub := NewPublisher()
	obs := &recordingObserver{}
	pub.Subscribe("TGT", obs)
	tracker := NewTracker(cache, pub, nil)

	tracker.UpdateMarket("TGT", money.Price{}, 0, false, money.Price{}, 0, false)

	if len(obs.calls) != 1 {
		t.Fatalf("expected one notification, got %d", len(obs.calls))
	}
	want := "TGT:$0.00x0-$0.00x0"
	if obs.calls[0] != want {
		t.Errorf("null-market notification = %q, want %q", obs.calls[0], want)
	}
}

func TestTrackerZeroVolumeTreatedAsNullMarket(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	pub := NewPublisher()
	obs := &recordingObserver{}
	pub.Subscribe("TGT", obs)
	tracker := NewTracker(cache, pub, nil)

	p := cache.Intern(10000)
	tracker.UpdateMarket("TGT", p, 0, true, p, 0, true)

	want := "TGT:$0.00x0-$0.00x0"
	if obs.calls[0] != want {
		t.Errorf("zero-volume side should use null-market sentinel, got %q, want %q", obs.calls[0], want)
	}
}

func TestTrackerForwardsLiveSides(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	pub := NewPublisher()
	obs := &recordingObserver{}
	pub.Subscribe("TGT", obs)
	tracker := NewTracker(cache, pub, nil)

	buy := cache.Intern(10000)
	sell := cache.Intern(10100)
	tracker.UpdateMarket("TGT", buy, 10, true, sell, 10, true)

	want := "TGT:$100.00x10-$101.00x10"
	if obs.calls[0] != want {
		t.Errorf("forwarded sides = %q, want %q", obs.calls[0], want)
	}
}
