package money

import (
	"errors"
	"testing"

	"matchcore/pkg/types"
)

func TestPriceString(t *testing.T) {
	t.Parallel()
	cache := NewCache(0)

	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{100, "$1.00"},
		{123405, "$1,234.05"},
		{-123405, "$-1,234.05"},
		{1000000, "$10,000.00"},
	}
	for _, tc := range cases {
		p := cache.Intern(tc.cents)
		if got := p.String(); got != tc.want {
			t.Errorf("Intern(%d).String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestPriceRoundTripArithmetic(t *testing.T) {
	t.Parallel()
	cache := NewCache(0)

	a := cache.Intern(12345)
	b := cache.Intern(678)

	if got := a.Add(cache, b).Subtract(cache, b); !got.Equal(a) {
		t.Errorf("a.Add(b).Subtract(b) = %v, want %v", got, a)
	}
	if got := a.Multiply(cache, 0); !got.Equal(cache.Zero()) {
		t.Errorf("a.Multiply(0) = %v, want zero", got)
	}
	if got := a.Multiply(cache, 1); !got.Equal(a) {
		t.Errorf("a.Multiply(1) = %v, want %v", got, a)
	}
	if got := a.Multiply(cache, -1).Multiply(cache, -1); !got.Equal(a) {
		t.Errorf("a.Multiply(-1).Multiply(-1) = %v, want %v", got, a)
	}
}

func TestPriceCompareAndEqual(t *testing.T) {
	t.Parallel()
	cache := NewCache(0)

	lo := cache.Intern(100)
	hi := cache.Intern(200)
	loAgain := cache.Intern(100)

	if lo.Compare(hi) >= 0 {
		t.Error("lo should compare less than hi")
	}
	if hi.Compare(lo) <= 0 {
		t.Error("hi should compare greater than lo")
	}
	if lo.Compare(loAgain) != 0 {
		t.Error("equal cents should compare equal")
	}
	if !lo.Equal(loAgain) {
		t.Error("Equal should hold for equal cents regardless of handle identity")
	}
}

func TestCacheEvictsSmallestCents(t *testing.T) {
	t.Parallel()
	cache := NewCache(3)

	cache.Intern(10)
	cache.Intern(20)
	cache.Intern(30)
	if cache.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cache.Len())
	}

	// Inserting a 4th distinct value evicts the smallest (10).
	cache.Intern(40)
	if cache.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 after eviction", cache.Len())
	}

	// 10 was evicted; re-interning it still returns a value-correct Price,
	// just via a fresh handle (identity is not guaranteed across eviction).
	p := cache.Intern(10)
	if p.Cents() != 10 {
		t.Errorf("Cents() = %d, want 10", p.Cents())
	}
}

func TestParseRoundTrip(t *testing.T) {
	t.Parallel()
	cache := NewCache(0)

	canonical := []string{"$0.00", "$1.00", "$1,234.05", "$-1,234.05", "$10,000.00"}
	for _, s := range canonical {
		p, err := cache.Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", s, err)
		}
		if got := p.String(); got != s {
			t.Errorf("Parse(%q).String() = %q, want %q", s, got, s)
		}
	}
}

func TestParseAcceptsVariants(t *testing.T) {
	t.Parallel()
	cache := NewCache(0)

	cases := []struct {
		in        string
		wantCents int64
	}{
		{"100", 10000},
		{"-100", -10000},
		{"$1,234.05", 123405},
		{"1234.05", 123405},
		{"  42.00  ", 4200},
	}
	for _, tc := range cases {
		p, err := cache.Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", tc.in, err)
		}
		if p.Cents() != tc.wantCents {
			t.Errorf("Parse(%q).Cents() = %d, want %d", tc.in, p.Cents(), tc.wantCents)
		}
	}
}

func TestParseRejects(t *testing.T) {
	t.Parallel()
	cache := NewCache(0)

	bad := []string{"", "   ", "1.2", "1.234", "1..2", "abc", "$1.2.3", "1-2", "$"}
	for _, s := range bad {
		if _, err := cache.Parse(s); err == nil {
			t.Errorf("Parse(%q) expected error, got none", s)
		} else if !errors.Is(err, types.ErrInvalidPrice) {
			t.Errorf("Parse(%q) error = %v, want wrapping ErrInvalidPrice", s, err)
		}
	}
}
