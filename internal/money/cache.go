package money

import (
	"container/heap"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"matchcore/internal/validate"
	"matchcore/pkg/types"
)

// MaxEntries is the default capacity of a Cache, per spec.
const MaxEntries = 10_000

// Cache is a value-keyed flyweight: a mapping from integer cents to the
// canonical Price handle for that value, bounded at a fixed capacity with
// smallest-cents eviction.
//
// Cache is conceptually process-wide and, in this single-threaded core, is
// unguarded — callers that share a Cache across goroutines must add their
// own mutual exclusion (see spec.md §5).
type Cache struct {
	capacity int
	entries  map[int64]Price
	order    minHeap
}

// NewCache creates a Cache with the given capacity. A capacity <= 0 uses
// MaxEntries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = MaxEntries
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[int64]Price, capacity),
	}
}

// Intern returns the canonical Price handle for cents, constructing one if
// absent. If the cache then exceeds its capacity, the smallest-cents entry
// is evicted repeatedly until back within capacity.
func (c *Cache) Intern(cents int64) Price {
	if p, ok := c.entries[cents]; ok {
		return p
	}
	p := Price{cents: cents}
	c.entries[cents] = p
	heap.Push(&c.order, cents)

	for len(c.entries) > c.capacity {
		smallest := heap.Pop(&c.order).(int64)
		// Lazy deletion: the heap may carry a stale entry for a cents value
		// already evicted by an earlier round; skip it and keep popping.
		if _, ok := c.entries[smallest]; ok {
			delete(c.entries, smallest)
		}
	}
	return p
}

// Len reports how many distinct cent values are currently interned.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Zero returns the canonical $0.00 price.
func (c *Cache) Zero() Price {
	return c.Intern(0)
}

// Parse converts a decimal string into a Price, interning the result.
// Accepts an optional leading '-', an optional '$', comma thousands
// separators, and either zero or exactly two digits after an optional
// single decimal point. Anything else — multiple decimal points,
// non-numeric bytes, an empty string, or a fractional part of length
// other than two digits — fails with ErrInvalidPrice.
func (c *Cache) Parse(s string) (Price, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Price{}, invalidPriceErr(s, "empty")
	}
	if !validate.PriceCharset(trimmed) {
		return Price{}, invalidPriceErr(s, "contains characters outside [0-9$.,-]")
	}

	body := strings.ReplaceAll(trimmed, "$", "")
	body = strings.ReplaceAll(body, ",", "")

	negative := false
	if strings.HasPrefix(body, "-") {
		negative = true
		body = body[1:]
	}
	if strings.Contains(body, "-") {
		return Price{}, invalidPriceErr(s, "'-' only valid as a leading sign")
	}

	parts := strings.Split(body, ".")
	switch len(parts) {
	case 1:
		if !isDigits(parts[0]) || parts[0] == "" {
			return Price{}, invalidPriceErr(s, "non-numeric integer part")
		}
	case 2:
		if !isDigits(parts[0]) || parts[0] == "" {
			return Price{}, invalidPriceErr(s, "non-numeric integer part")
		}
		if len(parts[1]) != 2 || !isDigits(parts[1]) {
			return Price{}, invalidPriceErr(s, "fractional part must be exactly two digits")
		}
	default:
		return Price{}, invalidPriceErr(s, "more than one decimal point")
	}

	normalized := parts[0]
	if len(parts) == 2 {
		normalized += "." + parts[1]
	} else {
		normalized += ".00"
	}
	if negative {
		normalized = "-" + normalized
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return Price{}, invalidPriceErr(s, "unparseable decimal")
	}
	// Guard against integer overflow during digit assembly: cap at a value
	// far below int64's range once shifted two decimal places.
	if d.Abs().GreaterThan(decimal.New(1_000_000_000_000, 0)) {
		return Price{}, invalidPriceErr(s, "magnitude overflow")
	}

	cents := d.Shift(2).Round(0).IntPart()
	return c.Intern(cents), nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func invalidPriceErr(raw, reason string) error {
	return fmt.Errorf("%w: %q: %s", types.ErrInvalidPrice, raw, reason)
}

// minHeap is a min-heap of cent values used to find the smallest-cents
// entry to evict in O(log n) amortized, with lazy deletion of stale
// entries handled by Cache.Intern.
type minHeap []int64

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(int64)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
