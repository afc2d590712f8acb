// Package validate holds the byte-exact format rules the matching core
// checks at every external entry point: user ids, product symbols, and
// the price character set. These are hand-rolled regexes, not the
// go-playground/validator struct tags used one layer up in internal/api —
// the core's own contract is specified down to the regex, and must not
// drift if the REST DTO validation tags are ever loosened.
package validate

import (
	"fmt"
	"regexp"
	"strings"

	"matchcore/pkg/types"
)

var (
	userRe    = regexp.MustCompile(`^[A-Za-z]{3}$`)
	symbolRe1 = regexp.MustCompile(`^[A-Za-z0-9]{1,5}$`)
	symbolRe2 = regexp.MustCompile(`^[A-Za-z0-9]{1,4}\.[A-Za-z0-9]$`)
	priceRe   = regexp.MustCompile(`^[0-9$.,-]+$`)
)

// User validates a 3-letter user code and returns it uppercased.
func User(id string) (string, error) {
	if !userRe.MatchString(id) {
		return "", fmt.Errorf("%w: user id %q must match [A-Za-z]{3}", types.ErrDataValidation, id)
	}
	return strings.ToUpper(id), nil
}

// Symbol validates a product symbol and returns it trimmed and uppercased.
// Accepts either 1-5 alphanumerics, or 1-4 alphanumerics + "." + 1 alphanumeric.
func Symbol(sym string) (string, error) {
	trimmed := strings.TrimSpace(sym)
	if !symbolRe1.MatchString(trimmed) && !symbolRe2.MatchString(trimmed) {
		return "", fmt.Errorf("%w: symbol %q must match %s or %s", types.ErrDataValidation, sym, symbolRe1.String(), symbolRe2.String())
	}
	return strings.ToUpper(trimmed), nil
}

// PriceCharset reports whether s contains only characters legal in a
// price string: digits, '$', '.', ',', '-'.
func PriceCharset(s string) bool {
	return priceRe.MatchString(s)
}

// Volume validates an original order/quote-side volume: 0 < v < 10000.
func Volume(v int) error {
	if v <= 0 || v >= 10000 {
		return fmt.Errorf("%w: volume %d must satisfy 0 < v < 10000", types.ErrIllegalArgument, v)
	}
	return nil
}
