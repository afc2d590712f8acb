package transport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"matchcore/internal/money"
	"matchcore/internal/publish"
)

func TestHubUpdateCurrentMarketBroadcastsJSON(t *testing.T) {
	t.Parallel()
	h := NewHub(nil)
	cache := money.NewCache(0)

	h.UpdateCurrentMarket("TGT", publish.MarketSide{Price: cache.Intern(10000), Volume: 5}, publish.MarketSide{})

	select {
	case msg := <-h.broadcast:
		var evt bannerEvent
		if err := json.Unmarshal(msg, &evt); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		if evt.Symbol != "TGT" || evt.Buy.Price != "$100.00" || evt.Buy.Volume != 5 {
			t.Errorf("broadcast event = %+v, want symbol TGT buy $100.00x5", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestHubDropsWhenBroadcastFull(t *testing.T) {
	t.Parallel()
	h := NewHub(nil)
	cache := money.NewCache(0)
	p := cache.Intern(10000)

	for i := 0; i < cap(h.broadcast)+5; i++ {
		h.UpdateCurrentMarket("TGT", publish.MarketSide{Price: p, Volume: 1}, publish.MarketSide{})
	}
	// Should not block or panic; channel stays at its buffered capacity.
	if len(h.broadcast) != cap(h.broadcast) {
		t.Errorf("broadcast channel len = %d, want full at cap %d", len(h.broadcast), cap(h.broadcast))
	}
}

func TestWebhookObserverPostsBanner(t *testing.T) {
	t.Parallel()
	var received webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cache := money.NewCache(0)
	obs := NewWebhookObserver(srv.URL, nil)
	obs.UpdateCurrentMarket("TGT", publish.MarketSide{Price: cache.Intern(10000), Volume: 5}, publish.MarketSide{Price: cache.Intern(10100), Volume: 3})

	if received.Symbol != "TGT" || received.Buy.Price != "$100.00" || received.Sell.Volume != 3 {
		t.Errorf("received payload = %+v, want symbol TGT buy $100.00 sell vol 3", received)
	}
}

func TestWebhookObserverIgnoresFailure(t *testing.T) {
	t.Parallel()
	obs := NewWebhookObserver("http://127.0.0.1:0", nil)
	// Must not panic even though the endpoint is unreachable.
	obs.UpdateCurrentMarket("TGT", publish.MarketSide{}, publish.MarketSide{})
}
