package book

import (
	"testing"

	"matchcore/internal/money"
	"matchcore/pkg/types"
)

func mustTradable(t *testing.T, gen *IDGenerator, user, product string, price money.Price, side types.Side, kind Kind, vol int) *Tradable {
	t.Helper()
	tr, err := New(gen, user, product, price, side, kind, vol)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tr
}

func TestBookSideEngineFIFOAndTopOfBook(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	gen := NewIDGenerator()
	e := NewBookSideEngine(types.SELL, nil)

	p100 := cache.Intern(10000)
	p101 := cache.Intern(10100)

	a := mustTradable(t, gen, "AAA", "TGT", p101, types.SELL, KindOrder, 20)
	b := mustTradable(t, gen, "BBB", "TGT", p100, types.SELL, KindOrder, 10)

	if _, err := e.Insert(a); err != nil {
		t.Fatalf("Insert a: %v", err)
	}
	if _, err := e.Insert(b); err != nil {
		t.Fatalf("Insert b: %v", err)
	}

	top, ok := e.TopPrice()
	if !ok || !top.Equal(p100) {
		t.Fatalf("TopPrice = %v, ok=%v, want %v", top, ok, p100)
	}
	if vol := e.TopVolume(); vol != 10 {
		t.Errorf("TopVolume = %d, want 10", vol)
	}

	depth := e.Depth()
	if len(depth) != 2 || depth[0].ID != b.ID() || depth[1].ID != a.ID() {
		t.Errorf("Depth order = %+v, want [b, a]", depth)
	}
}

func TestBookSideEngineCancel(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	gen := NewIDGenerator()
	e := NewBookSideEngine(types.BUY, nil)

	p := cache.Intern(10000)
	tr := mustTradable(t, gen, "DDD", "TGT", p, types.BUY, KindOrder, 10)
	if _, err := e.Insert(tr); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	snap, ok := e.Cancel(tr.ID())
	if !ok {
		t.Fatal("Cancel: expected match")
	}
	if snap.RemainingVolume != 0 || snap.CancelledVolume != 10 {
		t.Errorf("snap = %+v, want remaining=0 cancelled=10", snap)
	}
	if !e.IsEmpty() {
		t.Error("engine should be empty after cancelling only resting order")
	}

	if _, ok := e.Cancel("unknown-id"); ok {
		t.Error("Cancel of unknown id should report no match")
	}
}

func TestBookSideEngineRemoveForUserIgnoresOrders(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	gen := NewIDGenerator()
	e := NewBookSideEngine(types.BUY, nil)

	p := cache.Intern(9900)
	order := mustTradable(t, gen, "CCC", "TGT", p, types.BUY, KindOrder, 5)
	quote := mustTradable(t, gen, "CCC", "TGT", p, types.BUY, KindQuoteSide, 5)
	e.Insert(order)
	e.Insert(quote)

	snap, ok, err := e.RemoveForUser("CCC")
	if err != nil {
		t.Fatalf("RemoveForUser: %v", err)
	}
	if !ok {
		t.Fatal("expected a quote-side match")
	}
	if snap.ID != quote.ID() {
		t.Errorf("removed id = %s, want %s (the quote side, not the order)", snap.ID, quote.ID())
	}

	depth := e.Depth()
	if len(depth) != 1 || depth[0].ID != order.ID() {
		t.Errorf("depth after removeForUser = %+v, want only the order", depth)
	}
}

func TestBookSideEngineTradeOutFullSweep(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	gen := NewIDGenerator()
	e := NewBookSideEngine(types.SELL, nil)

	p := cache.Intern(10000)
	a := mustTradable(t, gen, "AAA", "TGT", p, types.SELL, KindOrder, 50)
	e.Insert(a)

	var notified []Snapshot
	e.TradeOut(p, 50, func(s Snapshot) { notified = append(notified, s) })

	if !e.IsEmpty() {
		t.Error("side should be empty after full sweep")
	}
	if len(notified) != 1 || notified[0].FilledVolume != 50 || notified[0].RemainingVolume != 0 {
		t.Errorf("notified = %+v, want one full fill of 50", notified)
	}
}

func TestBookSideEngineTradeOutProRata(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	gen := NewIDGenerator()
	e := NewBookSideEngine(types.SELL, nil)

	p := cache.Intern(10000)
	t1 := mustTradable(t, gen, "AAA", "TGT", p, types.SELL, KindOrder, 40)
	t2 := mustTradable(t, gen, "BBB", "TGT", p, types.SELL, KindOrder, 40)
	t3 := mustTradable(t, gen, "CCC", "TGT", p, types.SELL, KindOrder, 20)
	e.Insert(t1)
	e.Insert(t2)
	e.Insert(t3)

	var notified []Snapshot
	e.TradeOut(p, 30, func(s Snapshot) { notified = append(notified, s) })

	if len(notified) != 3 {
		t.Fatalf("notified count = %d, want 3", len(notified))
	}
	wantFills := []int{12, 12, 6}
	wantRemaining := []int{28, 28, 14}
	for i, snap := range notified {
		if snap.FilledVolume != wantFills[i] {
			t.Errorf("notified[%d].FilledVolume = %d, want %d", i, snap.FilledVolume, wantFills[i])
		}
		if snap.RemainingVolume != wantRemaining[i] {
			t.Errorf("notified[%d].RemainingVolume = %d, want %d", i, snap.RemainingVolume, wantRemaining[i])
		}
	}
	if vol := e.TopVolume(); vol != 70 {
		t.Errorf("TopVolume after pro-rata = %d, want 70", vol)
	}
}

func TestBookSideEngineTradeOutSweepThenProRataAcrossLevels(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	gen := NewIDGenerator()
	e := NewBookSideEngine(types.SELL, nil)

	p100 := cache.Intern(10000)
	p101 := cache.Intern(10100)
	a := mustTradable(t, gen, "AAA", "TGT", p100, types.SELL, KindOrder, 10)
	b := mustTradable(t, gen, "BBB", "TGT", p101, types.SELL, KindOrder, 20)
	e.Insert(a)
	e.Insert(b)

	var notified []Snapshot
	e.TradeOut(p101, 25, func(s Snapshot) { notified = append(notified, s) })

	if len(notified) != 2 {
		t.Fatalf("notified count = %d, want 2 (A swept, B partial)", len(notified))
	}
	if notified[0].ID != a.ID() || notified[0].RemainingVolume != 0 {
		t.Errorf("first notification should be A fully filled, got %+v", notified[0])
	}
	if notified[1].ID != b.ID() || notified[1].RemainingVolume != 5 {
		t.Errorf("second notification should be B with 5 remaining, got %+v", notified[1])
	}
}

func TestBookSideEngineBuyDescendingOrder(t *testing.T) {
	t.Parallel()
	cache := money.NewCache(0)
	gen := NewIDGenerator()
	e := NewBookSideEngine(types.BUY, nil)

	low := cache.Intern(9900)
	high := cache.Intern(10100)
	e.Insert(mustTradable(t, gen, "AAA", "TGT", low, types.BUY, KindOrder, 1))
	e.Insert(mustTradable(t, gen, "BBB", "TGT", high, types.BUY, KindOrder, 1))

	top, ok := e.TopPrice()
	if !ok || !top.Equal(high) {
		t.Errorf("TopPrice = %v, want %v (BUY book should be descending)", top, high)
	}
}
