// Package money implements the matching core's value-semantic price model:
// an immutable signed integer-cent Price, and a flyweight Cache that interns
// equal values into a shared canonical handle.
//
// Within the single-threaded core (no synchronization required; see the
// package doc on Cache for the multi-threaded caveat), Price values are
// freely copied and compared — equality and ordering are always by cents,
// never by handle identity. Eviction from the Cache can hand out a fresh
// handle for a previously-seen value, so callers must never rely on pointer
// equality across an eviction.
package money

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Price is a signed monetary value stored as an integer count of cents.
// The zero value is $0.00. Negative, zero, and positive cents are all valid.
type Price struct {
	cents int64
}

// Cents returns the raw integer cents this Price represents.
func (p Price) Cents() int64 {
	return p.cents
}

// IsNegative reports whether the price is less than zero.
func (p Price) IsNegative() bool {
	return p.cents < 0
}

// Equal reports value equality: two Prices are equal iff their cents match.
func (p Price) Equal(other Price) bool {
	return p.cents == other.cents
}

// Compare returns -1, 0, or 1 as p is less than, equal to, or greater than
// other. Ordering is total and matches the integer ordering of cents.
func (p Price) Compare(other Price) int {
	switch {
	case p.cents < other.cents:
		return -1
	case p.cents > other.cents:
		return 1
	default:
		return 0
	}
}

// Add returns p + other, interned through c so equal results share storage.
func (p Price) Add(c *Cache, other Price) Price {
	return c.Intern(p.cents + other.cents)
}

// Subtract returns p - other, interned through c.
func (p Price) Subtract(c *Cache, other Price) Price {
	return c.Intern(p.cents - other.cents)
}

// Multiply returns p * n, interned through c.
func (p Price) Multiply(c *Cache, n int) Price {
	return c.Intern(p.cents * int64(n))
}

// String formats the price as "$" then an optional "-" then the absolute
// dollar amount with thousands separators, a dot, and exactly two cent
// digits — e.g. "$1,234.05" or "$-1,234.05". This preserves the reference
// implementation's negative-sign placement (see DESIGN.md Open Question 1)
// rather than the more conventional "-$1,234.05".
func (p Price) String() string {
	cents := p.cents
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	dollars := cents / 100
	remainder := cents % 100
	return fmt.Sprintf("$%s%s.%02d", sign, humanize.Comma(dollars), remainder)
}
