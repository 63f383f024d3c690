package cartstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type fakeSyncer struct {
	failPush     bool
	failFavorite bool
	failLike     bool

	pushedCarts     [][]CartItem
	pushedFavorites [][]Product
	likes           []string

	pullItems []CartItem
}

var errRemote = errors.New("remote unavailable")

func (f *fakeSyncer) PushCart(_ context.Context, items []CartItem) error {
	if f.failPush {
		return errRemote
	}
	f.pushedCarts = append(f.pushedCarts, items)
	return nil
}

func (f *fakeSyncer) PullCart(_ context.Context) ([]CartItem, error) {
	return f.pullItems, nil
}

func (f *fakeSyncer) PushFavorites(_ context.Context, favorites []Product) error {
	if f.failFavorite {
		return errRemote
	}
	f.pushedFavorites = append(f.pushedFavorites, favorites)
	return nil
}

func (f *fakeSyncer) PushReelLike(_ context.Context, reelID string, liked bool) error {
	if f.failLike {
		return errRemote
	}
	f.likes = append(f.likes, reelID)
	return nil
}

func shirt() Product {
	return Product{ID: "p1", Name: "Shirt", Price: 499, Category: []string{"clothing"}}
}

func TestAddItemIncrementsMatchingLine(t *testing.T) {
	s := New(&fakeSyncer{}, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.AddItem(ctx, shirt(), "M"); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}
	if err := s.AddItem(ctx, shirt(), "L"); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	if got := s.ItemCount("p1", "M"); got != 3 {
		t.Fatalf("expected quantity 3 for size M, got %d", got)
	}
	if got := s.ItemCount("p1", "L"); got != 1 {
		t.Fatalf("expected quantity 1 for size L, got %d", got)
	}
	if got := len(s.Items()); got != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", got)
	}
}

func TestQuantityNeverPersistsAtZero(t *testing.T) {
	s := New(&fakeSyncer{}, nil)
	ctx := context.Background()

	const n = 4
	for i := 0; i < n; i++ {
		if err := s.AddItem(ctx, shirt(), "M"); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}
	for i := 0; i < n; i++ {
		if err := s.RemoveItem(ctx, "p1", "M"); err != nil {
			t.Fatalf("RemoveItem failed: %v", err)
		}
		for _, item := range s.Items() {
			if item.Quantity < 1 {
				t.Fatalf("line persisted with quantity %d", item.Quantity)
			}
		}
	}

	if got := s.ItemCount("p1", "M"); got != 0 {
		t.Fatalf("expected count 0 after symmetric add/remove, got %d", got)
	}
	if got := len(s.Items()); got != 0 {
		t.Fatalf("expected no lines, got %d", got)
	}
}

func TestDeleteCartProductIgnoresQuantity(t *testing.T) {
	s := New(&fakeSyncer{}, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := s.AddItem(ctx, shirt(), "M"); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
	}
	if err := s.DeleteCartProduct(ctx, "p1", "M"); err != nil {
		t.Fatalf("DeleteCartProduct failed: %v", err)
	}
	if got := s.ItemCount("p1", "M"); got != 0 {
		t.Fatalf("expected line gone, got quantity %d", got)
	}
}

func TestCartMutationRollsBackOnSyncFailure(t *testing.T) {
	sync := &fakeSyncer{}
	s := New(sync, nil)
	ctx := context.Background()

	if err := s.AddItem(ctx, shirt(), "M"); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	sync.failPush = true
	err := s.AddItem(ctx, shirt(), "M")
	if err == nil {
		t.Fatal("expected sync error")
	}
	var syncErr *SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected *SyncError, got %T", err)
	}
	if got := s.ItemCount("p1", "M"); got != 1 {
		t.Fatalf("expected rollback to quantity 1, got %d", got)
	}
}

func TestTotalPriceSumsPriceTimesQuantity(t *testing.T) {
	s := New(nil, nil)
	ctx := context.Background()

	a := Product{ID: "a", Price: 100}
	b := Product{ID: "b", Price: 250}

	_ = s.AddItem(ctx, a, "")
	_ = s.AddItem(ctx, a, "")
	_ = s.AddItem(ctx, b, "")

	if got := s.TotalPrice(); got != 450 {
		t.Fatalf("expected total 450, got %v", got)
	}
}

func TestSubtotalPriceAppliesDiscountAsIncrease(t *testing.T) {
	// Pins the literal contract: the discount percentage raises the subtotal.
	s := New(nil, nil)
	ctx := context.Background()

	_ = s.AddItem(ctx, Product{ID: "a", Price: 200, Discount: 10}, "")

	if got := s.SubtotalPrice(); got != 220 {
		t.Fatalf("expected subtotal 220, got %v", got)
	}
}

func TestLoadCartOverwritesLocalState(t *testing.T) {
	sync := &fakeSyncer{pullItems: []CartItem{{Product: shirt(), Quantity: 2, Size: "M"}}}
	s := New(sync, nil)
	ctx := context.Background()

	_ = s.AddItem(ctx, Product{ID: "stale", Price: 1}, "")

	if err := s.LoadCart(ctx); err != nil {
		t.Fatalf("LoadCart failed: %v", err)
	}
	if got := s.ItemCount("stale", ""); got != 0 {
		t.Fatal("expected local-only line to be overwritten")
	}
	if got := s.ItemCount("p1", "M"); got != 2 {
		t.Fatalf("expected server line with quantity 2, got %d", got)
	}
}

func TestToggleFavoriteRoundTrip(t *testing.T) {
	sync := &fakeSyncer{}
	s := New(sync, nil)
	ctx := context.Background()

	liked, err := s.ToggleFavorite(ctx, shirt())
	if err != nil || !liked {
		t.Fatalf("expected favorite added, got liked=%v err=%v", liked, err)
	}
	if !s.IsFavorite("p1") {
		t.Fatal("expected IsFavorite true")
	}

	liked, err = s.ToggleFavorite(ctx, shirt())
	if err != nil || liked {
		t.Fatalf("expected favorite removed, got liked=%v err=%v", liked, err)
	}
	if s.IsFavorite("p1") {
		t.Fatal("expected IsFavorite false")
	}
}

func TestToggleFavoriteRollsBackOnFailure(t *testing.T) {
	sync := &fakeSyncer{failFavorite: true}
	s := New(sync, nil)
	ctx := context.Background()

	if _, err := s.ToggleFavorite(ctx, shirt()); err == nil {
		t.Fatal("expected sync error")
	}
	if s.IsFavorite("p1") {
		t.Fatal("expected rollback to leave product unfavorited")
	}
}

func TestToggleReelLikeRollsBackOnFailure(t *testing.T) {
	sync := &fakeSyncer{}
	s := New(sync, nil)
	ctx := context.Background()

	// Failure on the initial like: state stays unliked.
	sync.failLike = true
	if _, err := s.ToggleReelLike(ctx, "r1"); err == nil {
		t.Fatal("expected sync error")
	}
	if s.IsReelLiked("r1") {
		t.Fatal("expected like rolled back")
	}

	// Successful like, then failure on the unlike: state stays liked.
	sync.failLike = false
	if _, err := s.ToggleReelLike(ctx, "r1"); err != nil {
		t.Fatalf("ToggleReelLike failed: %v", err)
	}
	sync.failLike = true
	if _, err := s.ToggleReelLike(ctx, "r1"); err == nil {
		t.Fatal("expected sync error")
	}
	if !s.IsReelLiked("r1") {
		t.Fatal("expected unlike rolled back")
	}
}

func TestSnapshotSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cart.json")
	ctx := context.Background()

	s := New(nil, NewFilePersister(path))
	_ = s.AddItem(ctx, shirt(), "M")
	_, _ = s.ToggleFavorite(ctx, shirt())
	s.SetGlobalMuted(true)

	reopened := New(nil, NewFilePersister(path))
	if got := reopened.ItemCount("p1", "M"); got != 1 {
		t.Fatalf("expected cart line restored, got quantity %d", got)
	}
	if !reopened.IsFavorite("p1") {
		t.Fatal("expected favorite restored")
	}
	if !reopened.GlobalMuted() {
		t.Fatal("expected mute flag restored")
	}
}
