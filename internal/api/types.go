// Package api exposes the matching core over HTTP and websocket: order and
// quote submission, cancellation, depth and ledger reads, health, and a
// websocket feed of market banners. It is a thin transport — decode, call
// the engine context, encode — with all matching semantics living in
// internal/book and internal/product.
package api

import (
	"matchcore/internal/book"
)

// ProductRequest registers a new symbol.
type ProductRequest struct {
	Symbol string `json:"symbol" validate:"required"`
}

// UserRequest registers a new user id.
type UserRequest struct {
	ID string `json:"id" validate:"required,len=3,alpha"`
}

// OrderRequest submits a standalone order.
type OrderRequest struct {
	User    string `json:"user" validate:"required,len=3,alpha"`
	Product string `json:"product" validate:"required"`
	Side    string `json:"side" validate:"required,oneof=BUY SELL"`
	Price   string `json:"price" validate:"required"`
	Volume  int    `json:"volume" validate:"required,gt=0,lt=10000"`
}

// QuoteRequest submits a two-sided quote.
type QuoteRequest struct {
	User       string `json:"user" validate:"required,len=3,alpha"`
	Product    string `json:"product" validate:"required"`
	BuyPrice   string `json:"buy_price" validate:"required"`
	BuyVolume  int    `json:"buy_volume" validate:"required,gt=0,lt=10000"`
	SellPrice  string `json:"sell_price" validate:"required"`
	SellVolume int    `json:"sell_volume" validate:"required,gt=0,lt=10000"`
}

// SnapshotDTO is the JSON-friendly form of book.Snapshot — Price rendered
// as its canonical string form rather than the internal cents struct.
type SnapshotDTO struct {
	ID              string `json:"id"`
	User            string `json:"user"`
	Product         string `json:"product"`
	Price           string `json:"price"`
	Side            string `json:"side"`
	Kind            string `json:"kind"`
	OriginalVolume  int    `json:"original_volume"`
	RemainingVolume int    `json:"remaining_volume"`
	CancelledVolume int    `json:"cancelled_volume"`
	FilledVolume    int    `json:"filled_volume"`
}

func newSnapshotDTO(s book.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:              s.ID,
		User:            s.User,
		Product:         s.Product,
		Price:           s.Price.String(),
		Side:            string(s.Side),
		Kind:            s.Kind.String(),
		OriginalVolume:  s.OriginalVolume,
		RemainingVolume: s.RemainingVolume,
		CancelledVolume: s.CancelledVolume,
		FilledVolume:    s.FilledVolume,
	}
}

// DepthResponse is the response body for GET /products/{symbol}/depth.
type DepthResponse struct {
	Symbol string        `json:"symbol"`
	Buy    []SnapshotDTO `json:"buy"`
	Sell   []SnapshotDTO `json:"sell"`
}

// errorResponse is the JSON body for any non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}
