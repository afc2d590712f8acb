package book

import "matchcore/internal/money"

// Quote is a transient construct grouping a BUY quote-side and a SELL
// quote-side for the same user and product. It is not itself a Tradable —
// its two sides are. At most one BUY quote-side and one SELL quote-side per
// (user, product) may rest simultaneously; submitting a new Quote first
// removes any existing ones (see product.Book.AddQuote).
type Quote struct {
	User       string
	Product    string
	BuyPrice   money.Price
	BuyVolume  int
	SellPrice  money.Price
	SellVolume int
}
