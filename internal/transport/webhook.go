package transport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"matchcore/internal/publish"
)

// webhookPayload is the JSON body POSTed to the configured URL on every
// market update.
type webhookPayload struct {
	Symbol string  `json:"symbol"`
	Buy    sideDTO `json:"buy"`
	Sell   sideDTO `json:"sell"`
}

// WebhookObserver POSTs the market banner to a configured URL on every
// update. It implements publish.Observer. Delivery is best-effort: a failed
// POST is logged and otherwise ignored, so matching never fails on a
// notification error. The POST is synchronous: UpdateCurrentMarket returns
// only once the request, including its retries, completes or times out.
type WebhookObserver struct {
	http   *resty.Client
	url    string
	logger *slog.Logger
}

// NewWebhookObserver builds an observer that POSTs to url with retry on
// 5xx responses.
func NewWebhookObserver(url string, logger *slog.Logger) *WebhookObserver {
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() >= 500
		}).
		SetHeader("Content-Type", "application/json")

	return &WebhookObserver{
		http:   httpClient,
		url:    url,
		logger: logger.With("component", "webhook-observer"),
	}
}

// UpdateCurrentMarket implements publish.Observer.
func (w *WebhookObserver) UpdateCurrentMarket(symbol string, buy, sell publish.MarketSide) {
	payload := webhookPayload{
		Symbol: symbol,
		Buy:    sideDTO{Price: buy.Price.String(), Volume: buy.Volume},
		Sell:   sideDTO{Price: sell.Price.String(), Volume: sell.Volume},
	}

	resp, err := w.http.R().SetBody(payload).Post(w.url)
	if err != nil {
		w.logger.Warn("webhook post failed", "symbol", symbol, "error", err)
		return
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		w.logger.Warn("webhook post non-2xx", "symbol", symbol, "status", resp.StatusCode(), "body", resp.String())
	}
}
