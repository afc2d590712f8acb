package engine

import (
	"errors"
	"testing"

	"matchcore/internal/book"
	"matchcore/pkg/types"
)

func TestNewWiresInitialUsersAndProducts(t *testing.T) {
	t.Parallel()
	ctx, err := New(WithInitialUsers("AAA", "BBB"), WithInitialProducts("TGT"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := ctx.Users.GetUser("AAA"); err != nil {
		t.Errorf("expected AAA to be registered: %v", err)
	}
	if _, err := ctx.Products.GetProductBook("TGT"); err != nil {
		t.Errorf("expected TGT to be registered: %v", err)
	}
}

func TestNewRejectsBadInitialUser(t *testing.T) {
	t.Parallel()
	if _, err := New(WithInitialUsers("AB")); err == nil {
		t.Error("expected error for malformed initial user id")
	}
}

func TestContextEndToEndMatch(t *testing.T) {
	t.Parallel()
	ctx, err := New(WithInitialUsers("AAA", "BBB"), WithInitialProducts("TGT"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	p := ctx.Cache.Intern(10000)
	sell, err := book.New(ctx.IDs, "AAA", "TGT", p, types.SELL, book.KindOrder, 10)
	if err != nil {
		t.Fatalf("New sell: %v", err)
	}
	if _, err := ctx.Products.AddTradable(sell); err != nil {
		t.Fatalf("AddTradable sell: %v", err)
	}

	buy, err := book.New(ctx.IDs, "BBB", "TGT", p, types.BUY, book.KindOrder, 10)
	if err != nil {
		t.Fatalf("New buy: %v", err)
	}
	if _, err := ctx.Products.AddTradable(buy); err != nil {
		t.Fatalf("AddTradable buy: %v", err)
	}

	aaa, _ := ctx.Users.GetUser("AAA")
	snaps := aaa.Tradables()
	if len(snaps) != 1 || snaps[0].RemainingVolume != 0 {
		t.Errorf("AAA snapshots = %+v, want a single fully-filled entry", snaps)
	}
}

func TestSubscribeUserToMarketUnknownUser(t *testing.T) {
	t.Parallel()
	ctx, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := ctx.SubscribeUserToMarket("TGT", "ZZZ"); !errors.Is(err, types.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
