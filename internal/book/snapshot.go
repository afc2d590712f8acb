package book

import (
	"fmt"

	"matchcore/internal/money"
	"matchcore/pkg/types"
)

// Snapshot is an immutable copy of a Tradable's observable fields, used for
// external notification (ledger updates, API responses) so callers can't
// accidentally mutate live book state.
type Snapshot struct {
	ID              string
	User            string
	Product         string
	Price           money.Price
	Side            types.Side
	Kind            Kind
	OriginalVolume  int
	RemainingVolume int
	CancelledVolume int
	FilledVolume    int
}

// String renders the external textual form from spec.md §6.
func (s Snapshot) String() string {
	return fmt.Sprintf("Product: %s, Price: %s, OriginalVolume: %d, RemainingVolume: %d, CancelledVolume: %d, FilledVolume: %d, User: %s, Side: %s, Id: %s",
		s.Product, s.Price, s.OriginalVolume, s.RemainingVolume, s.CancelledVolume, s.FilledVolume, s.User, s.Side, s.ID)
}
