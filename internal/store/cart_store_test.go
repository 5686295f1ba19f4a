package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mkrupp/nextshop/internal/domain"
	"github.com/mkrupp/nextshop/internal/repo/snapshot"

	. "github.com/mkrupp/nextshop/internal/store"
)

var errSinkUnavailable = errors.New("sink unavailable")

// failingSnapshotRepository rejects every write, for exercising the
// best-effort persistence contract.
type failingSnapshotRepository struct{}

func (failingSnapshotRepository) Store(context.Context, domain.SessionID, string, []byte) error {
	return errSinkUnavailable
}

func (failingSnapshotRepository) Fetch(context.Context, domain.SessionID, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (failingSnapshotRepository) Delete(context.Context, domain.SessionID, string) error {
	return errSinkUnavailable
}

func (failingSnapshotRepository) Close() error { return nil }

func testProduct(id int64, price float64) domain.Product {
	return domain.Product{
		ID:    id,
		Name:  "product",
		Slug:  "product",
		Price: price,
		Stock: 10,
	}
}

func assertCartTotalInvariant(t *testing.T, cart *CartStore) {
	t.Helper()

	want := 0.0
	for _, item := range cart.Items() {
		want += item.Product.Price * float64(item.Quantity)
	}

	if got := cart.Total(); got != want {
		t.Errorf("total = %v, want %v (recomputed from items)", got, want)
	}
}

func TestCartStore_AddItemMerges(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())
	product := testProduct(1, 10)

	cart.AddItem(context.TODO(), product, 2)
	cart.AddItem(context.TODO(), product, 3)

	items := cart.Items()
	if len(items) != 1 {
		t.Fatalf("len(items) = %d, want 1", len(items))
	}
	if items[0].Quantity != 5 {
		t.Errorf("quantity = %d, want 5", items[0].Quantity)
	}
	if cart.Total() != 50 {
		t.Errorf("total = %v, want 50", cart.Total())
	}
	assertCartTotalInvariant(t, cart)
}

func TestCartStore_AddItemPreservesInsertionOrder(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())

	cart.AddItem(context.TODO(), testProduct(3, 1), 1)
	cart.AddItem(context.TODO(), testProduct(1, 2), 1)
	cart.AddItem(context.TODO(), testProduct(2, 3), 1)
	cart.AddItem(context.TODO(), testProduct(3, 1), 1) // merge must not reorder

	var got []int64
	for _, item := range cart.Items() {
		got = append(got, item.ID)
	}

	want := []int64{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestCartStore_AddItemOpensCart(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())

	if cart.IsOpen() {
		t.Fatal("new cart is open")
	}

	cart.AddItem(context.TODO(), testProduct(1, 10), 1)

	if !cart.IsOpen() {
		t.Error("cart not opened by AddItem")
	}
}

func TestCartStore_RemoveItemIdempotent(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())
	cart.AddItem(context.TODO(), testProduct(1, 10), 1)
	cart.AddItem(context.TODO(), testProduct(2, 5), 2)

	cart.RemoveItem(context.TODO(), 1)
	after := cart.Snapshot()

	cart.RemoveItem(context.TODO(), 1)
	again := cart.Snapshot()

	if len(after.Items) != 1 || len(again.Items) != 1 {
		t.Fatalf("items after removes = %d/%d, want 1/1", len(after.Items), len(again.Items))
	}
	if after.Total != again.Total {
		t.Errorf("second remove changed total: %v != %v", again.Total, after.Total)
	}
	assertCartTotalInvariant(t, cart)
}

//nolint:paralleltest
func TestCartStore_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name         string
		productID    int64
		quantity     int
		wantItems    int
		wantQuantity int
		wantTotal    float64
	}{
		{
			name:         "sets quantity of existing item",
			productID:    1,
			quantity:     4,
			wantItems:    1,
			wantQuantity: 4,
			wantTotal:    40,
		},
		{
			name:      "removes item on zero quantity",
			productID: 1,
			quantity:  0,
			wantItems: 0,
			wantTotal: 0,
		},
		{
			name:      "removes item on negative quantity",
			productID: 1,
			quantity:  -2,
			wantItems: 0,
			wantTotal: 0,
		},
		{
			name:         "ignores unknown product",
			productID:    99,
			quantity:     7,
			wantItems:    1,
			wantQuantity: 3,
			wantTotal:    30,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())
			cart.AddItem(context.TODO(), testProduct(1, 10), 3)

			cart.UpdateQuantity(context.TODO(), tt.productID, tt.quantity)

			items := cart.Items()
			if len(items) != tt.wantItems {
				t.Fatalf("len(items) = %d, want %d", len(items), tt.wantItems)
			}
			if tt.wantItems > 0 && items[0].Quantity != tt.wantQuantity {
				t.Errorf("quantity = %d, want %d", items[0].Quantity, tt.wantQuantity)
			}
			if cart.Total() != tt.wantTotal {
				t.Errorf("total = %v, want %v", cart.Total(), tt.wantTotal)
			}
			assertCartTotalInvariant(t, cart)
		})
	}
}

func TestCartStore_Clear(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())
	cart.AddItem(context.TODO(), testProduct(1, 10), 2)
	cart.SetOpen(true)

	cart.Clear(context.TODO())

	if len(cart.Items()) != 0 || cart.Total() != 0 || cart.IsOpen() {
		t.Errorf("cleared cart = %d items, total %v, open %v", len(cart.Items()), cart.Total(), cart.IsOpen())
	}
}

func TestCartStore_ToggleAndSetOpen(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())
	cart.AddItem(context.TODO(), testProduct(1, 10), 2)

	before := cart.Snapshot()

	cart.Toggle()
	if cart.IsOpen() {
		t.Error("Toggle() from open should close")
	}

	cart.SetOpen(true)
	if !cart.IsOpen() {
		t.Error("SetOpen(true) did not open")
	}

	after := cart.Snapshot()
	if len(after.Items) != len(before.Items) || after.Total != before.Total {
		t.Error("UI flag operations changed items or total")
	}
}

func TestCartStore_Count(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())
	cart.AddItem(context.TODO(), testProduct(1, 10), 2)
	cart.AddItem(context.TODO(), testProduct(2, 5), 3)

	if got := cart.Count(); got != 5 {
		t.Errorf("Count() = %d, want 5", got)
	}
}

func TestCartStore_RoundTrip(t *testing.T) {
	t.Parallel()

	repo := snapshot.NewMemorySnapshotRepository()

	cart := NewCartStore("s", repo)
	cart.AddItem(context.TODO(), testProduct(1, 10), 1)
	cart.AddItem(context.TODO(), testProduct(2, 5.5), 2)
	cart.AddItem(context.TODO(), testProduct(3, 2.25), 3)

	restored := NewCartStore("s", repo)
	if err := restored.Restore(context.TODO()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	want := cart.Items()
	got := restored.Items()

	if len(got) != len(want) {
		t.Fatalf("len(items) = %d, want %d", len(got), len(want))
	}

	for i := range want {
		if got[i].ID != want[i].ID || got[i].Quantity != want[i].Quantity {
			t.Errorf("item %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	if restored.Total() != cart.Total() {
		t.Errorf("restored total = %v, want %v", restored.Total(), cart.Total())
	}

	// The open flag is not part of the snapshot
	if restored.IsOpen() {
		t.Error("restored cart is open")
	}
}

func TestCartStore_PersistFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", failingSnapshotRepository{})

	cart.AddItem(context.TODO(), testProduct(1, 10), 1)
	cart.AddItem(context.TODO(), testProduct(1, 10), 2)

	items := cart.Items()
	if len(items) != 1 || items[0].Quantity != 3 {
		t.Errorf("in-memory state lost on persist failure: %+v", items)
	}
	if cart.Total() != 30 {
		t.Errorf("total = %v, want 30", cart.Total())
	}
}

// Scenario from the storefront: add, merge, then zero out the quantity.
func TestCartStore_Scenario(t *testing.T) {
	t.Parallel()

	cart := NewCartStore("s", snapshot.NewMemorySnapshotRepository())
	product := testProduct(1, 10)

	cart.AddItem(context.TODO(), product, 1)
	if cart.Total() != 10 || !cart.IsOpen() {
		t.Fatalf("after first add: total %v, open %v", cart.Total(), cart.IsOpen())
	}

	cart.AddItem(context.TODO(), product, 2)
	items := cart.Items()
	if items[0].Quantity != 3 || cart.Total() != 30 {
		t.Fatalf("after merge: quantity %d, total %v", items[0].Quantity, cart.Total())
	}

	// Setting the quantity to zero removes the line entirely; the store
	// never keeps a non-positive quantity.
	cart.UpdateQuantity(context.TODO(), 1, 0)
	if len(cart.Items()) != 0 || cart.Total() != 0 {
		t.Fatalf("after zero: %d items, total %v", len(cart.Items()), cart.Total())
	}
}
