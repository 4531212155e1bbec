package memory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

const fixtures = `
categories:
  - id: c1
    name_mk: Рози
    name_en: Roses
    slug: roses
products:
  - id: p1
    name_en: Red Roses
    category_id: c1
    price: 1200
    status: published
    is_visible: true
  - id: p2
    name_en: Orphan
    status: published
    is_visible: true
product_images:
  - product_id: p1
    image_path: products/p1/side.jpg
    display_order: 0
  - product_id: p1
    image_path: products/p1/main.jpg
    is_primary: true
    display_order: 2
`

func TestLoadFixturesAndDeriveDetails(t *testing.T) {
	store := New()
	if err := store.LoadFixtures(strings.NewReader(fixtures)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res, err := store.Select(context.Background(), datastore.Query{
		Table:  datastore.TableProductsWithDetail,
		Orders: []datastore.Order{{Field: "id"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(res.Rows))
	}
	first := res.Rows[0]
	if first["category_slug"] != "roses" || first["category_name_en"] != "Roses" {
		t.Fatalf("expected category join, got %#v", first)
	}
	if first["primary_image_path"] != "products/p1/main.jpg" {
		t.Fatalf("expected primary image, got %#v", first["primary_image_path"])
	}
	if _, ok := res.Rows[1]["category_slug"]; ok {
		t.Fatalf("expected no category for orphan product")
	}
}

func TestSelectInjectedFailure(t *testing.T) {
	store := New()
	store.FailWith(datastore.TableProducts, errors.New("connection reset"))

	_, err := store.Select(context.Background(), datastore.Query{Table: datastore.TableProducts})
	var dsErr *datastore.Error
	if !errors.As(err, &dsErr) || !dsErr.IsUnavailable() {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	store.FailWith(datastore.TableProducts, nil)
	if _, err := store.Select(context.Background(), datastore.Query{Table: datastore.TableProducts}); err != nil {
		t.Fatalf("expected failure to be cleared, got %v", err)
	}
	if store.Selects() != 2 {
		t.Fatalf("expected 2 selects, got %d", store.Selects())
	}
}

func TestSelectHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Select(ctx, datastore.Query{Table: datastore.TableProducts}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestReturnedRowsAreCopies(t *testing.T) {
	store := New()
	store.Insert(datastore.TableCategories, datastore.Row{"id": "c1", "slug": "roses"})

	res, _ := store.Select(context.Background(), datastore.Query{Table: datastore.TableCategories})
	res.Rows[0]["slug"] = "mutated"

	res, _ = store.Select(context.Background(), datastore.Query{Table: datastore.TableCategories})
	if res.Rows[0]["slug"] != "roses" {
		t.Fatalf("expected stored row to be unaffected, got %v", res.Rows[0]["slug"])
	}
}
