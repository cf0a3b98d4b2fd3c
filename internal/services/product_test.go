package services

import (
	"errors"
	"strings"
	"testing"
)

func TestAddProductValidation(t *testing.T) {
	store := newTestStore(t)
	svc := NewProductService(store, nil)

	cases := []struct {
		name string
		in   ProductInput
	}{
		{"empty name", ProductInput{Name: "  ", MinStock: 1, InitialStock: 1}},
		{"negative min stock", ProductInput{Name: "Rhum", MinStock: -1}},
		{"negative initial stock", ProductInput{Name: "Rhum", InitialStock: -5}},
	}
	for _, tc := range cases {
		if _, err := svc.AddProduct(tc.in); !errors.Is(err, ErrValidation) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	products, err := svc.GetAllProducts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 0 {
		t.Fatalf("expected no partial writes, got %d products", len(products))
	}
}

func TestGetAllProductsNewestFirst(t *testing.T) {
	store := newTestStore(t)
	svc := NewProductService(store, nil)

	for _, name := range []string{"Rhum", "Gin", "Vodka"} {
		if _, err := svc.AddProduct(ProductInput{Name: name}); err != nil {
			t.Fatalf("add %s: %v", name, err)
		}
	}
	products, err := svc.GetAllProducts()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("expected 3 products got %d", len(products))
	}
	if products[0].Name != "Vodka" || products[2].Name != "Rhum" {
		t.Fatalf("expected newest first, got %s .. %s", products[0].Name, products[2].Name)
	}
}

func TestUpdateProductFullReplace(t *testing.T) {
	store := newTestStore(t)
	svc := NewProductService(store, nil)

	p, err := svc.AddProduct(ProductInput{Name: "Rhum", Type: "spiritueux", MinStock: 5, InitialStock: 12, Unite: "bouteilles"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.UpdateProduct(p.ID, ProductInput{Name: "Rhum ambré", MinStock: 3, InitialStock: 8}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.GetProductByID(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	// Full replace: omitted fields are overwritten too, not patched around.
	if got.Name != "Rhum ambré" || got.Type != "" || got.Unite != "" {
		t.Fatalf("expected full replace, got %+v", got)
	}
	if got.MinStock != 3 || got.StockActuel != 8 {
		t.Fatalf("expected stock fields replaced, got %+v", got)
	}

	if err := svc.UpdateProduct(9999, ProductInput{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for absent id, got %v", err)
	}
}

func TestGetProductByIDAbsent(t *testing.T) {
	store := newTestStore(t)
	svc := NewProductService(store, nil)
	if _, err := svc.GetProductByID(42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteProductIdempotent(t *testing.T) {
	store := newTestStore(t)
	notifs := NewNotificationService(store)
	svc := NewProductService(store, notifs)

	p, err := svc.AddProduct(ProductInput{Name: "Gin"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.DeleteProduct(p.ID); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := svc.DeleteProduct(p.ID); err != nil {
		t.Fatalf("second delete should be a no-op, got %v", err)
	}
	if n := countByTitle(t, notifs, "Suppression"); n != 1 {
		t.Fatalf("expected one deletion notification, got %d", n)
	}
}

func TestAdjustStockRejectsNegative(t *testing.T) {
	store := newTestStore(t)
	notifs := NewNotificationService(store)
	svc := NewProductService(store, notifs)

	p, err := svc.AddProduct(ProductInput{Name: "Vodka", InitialStock: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AdjustStock(p.ID, -3); !errors.Is(err, ErrNegativeStock) {
		t.Fatalf("expected ErrNegativeStock, got %v", err)
	}
	got, err := svc.GetProductByID(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.StockActuel != 2 {
		t.Fatalf("rejected adjustment must not mutate, stock=%d", got.StockActuel)
	}
	entries, err := notifs.GetAll()
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected adjustment must emit nothing, got %d entries", len(entries))
	}
}

func TestAdjustStockScenario(t *testing.T) {
	store := newTestStore(t)
	notifs := NewNotificationService(store)
	svc := NewProductService(store, notifs)

	p, err := svc.AddProduct(ProductInput{Name: "Rum", MinStock: 10, InitialStock: 10, Unite: "bottles"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	total, err := svc.AdjustStock(p.ID, -3)
	if err != nil {
		t.Fatalf("adjust -3: %v", err)
	}
	if total != 7 {
		t.Fatalf("expected total 7 got %d", total)
	}
	entries, err := notifs.GetAll()
	if err != nil {
		t.Fatalf("notifications: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected movement + low-stock, got %d entries", len(entries))
	}
	// Newest first: the low-stock warning was appended after the movement.
	if entries[0].Title != "Alerte Stock Bas" || entries[0].Kind != "warning" {
		t.Fatalf("expected low-stock warning first, got %+v", entries[0])
	}
	if entries[1].Title != "Mouvement Stock" || !strings.Contains(entries[1].Message, "-3") {
		t.Fatalf("expected signed movement message, got %+v", entries[1])
	}
	if !strings.Contains(entries[1].Message, "Total: 7") {
		t.Fatalf("movement message should carry the new total, got %q", entries[1].Message)
	}

	total, err = svc.AdjustStock(p.ID, +20)
	if err != nil {
		t.Fatalf("adjust +20: %v", err)
	}
	if total != 27 {
		t.Fatalf("expected total 27 got %d", total)
	}
	if n := countByTitle(t, notifs, "Mouvement Stock"); n != 2 {
		t.Fatalf("expected 2 movements, got %d", n)
	}
	if n := countByTitle(t, notifs, "Alerte Stock Bas"); n != 1 {
		t.Fatalf("above threshold must not warn, got %d warnings", n)
	}
}

func TestLowStockIsLevelBased(t *testing.T) {
	store := newTestStore(t)
	notifs := NewNotificationService(store)
	svc := NewProductService(store, notifs)

	p, err := svc.AddProduct(ProductInput{Name: "Whisky", MinStock: 20, InitialStock: 25, Unite: "bouteilles"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.AdjustStock(p.ID, -7); err != nil { // 25 -> 18
		t.Fatalf("adjust: %v", err)
	}
	if _, err := svc.AdjustStock(p.ID, -3); err != nil { // 18 -> 15, still below
		t.Fatalf("adjust: %v", err)
	}
	if n := countByTitle(t, notifs, "Alerte Stock Bas"); n != 2 {
		t.Fatalf("warning must re-fire on every at/below-threshold adjustment, got %d", n)
	}
}

func TestUpdateStockEnforcesInvariant(t *testing.T) {
	store := newTestStore(t)
	svc := NewProductService(store, nil)

	p, err := svc.AddProduct(ProductInput{Name: "Gin", InitialStock: 4})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := svc.UpdateStock(p.ID, -1); !errors.Is(err, ErrNegativeStock) {
		t.Fatalf("expected ErrNegativeStock, got %v", err)
	}
	if err := svc.UpdateStock(p.ID, 9); err != nil {
		t.Fatalf("update stock: %v", err)
	}
	got, _ := svc.GetProductByID(p.ID)
	if got.StockActuel != 9 {
		t.Fatalf("expected 9 got %d", got.StockActuel)
	}
	if err := svc.UpdateStock(9999, 1); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
