package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
	"github.com/Micevski239/gerbera-sub000/internal/datastore/memory"
	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/repositories"
	"github.com/Micevski239/gerbera-sub000/internal/repositories/relational"
)

type stubCatalogRepository struct {
	lastFilter   repositories.ProductListFilter
	page         ProductPage
	pool         []Product
	occasions    []Occasion
	links        []domain.ProductOccasion
	categories   []Category
	err          error
	linkRequests int
}

func (s *stubCatalogRepository) ListProducts(_ context.Context, filter repositories.ProductListFilter) (ProductPage, error) {
	s.lastFilter = filter
	return s.page, s.err
}

func (s *stubCatalogRepository) ListEligibleProducts(context.Context, int) ([]Product, error) {
	return s.pool, s.err
}

func (s *stubCatalogRepository) ListCategories(context.Context, bool) ([]Category, error) {
	return s.categories, s.err
}

func (s *stubCatalogRepository) ListOccasions(context.Context, bool) ([]Occasion, error) {
	return s.occasions, s.err
}

func (s *stubCatalogRepository) ListProductOccasions(context.Context, []string) ([]domain.ProductOccasion, error) {
	s.linkRequests++
	return s.links, s.err
}

type unavailableError struct{}

func (unavailableError) Error() string       { return "store unavailable" }
func (unavailableError) IsNotFound() bool    { return false }
func (unavailableError) IsConflict() bool    { return false }
func (unavailableError) IsUnavailable() bool { return true }

func TestNewCatalogServiceRequiresRepository(t *testing.T) {
	_, err := NewCatalogService(CatalogServiceDeps{})
	require.ErrorIs(t, err, ErrCatalogRepositoryMissing)
}

func TestQueryProductsNormalisesCriteria(t *testing.T) {
	repo := &stubCatalogRepository{}
	svc, err := NewCatalogService(CatalogServiceDeps{Catalog: repo})
	require.NoError(t, err)

	slug := "  Birthday "
	_, err = svc.QueryProducts(context.Background(), CatalogQuery{
		CategorySlug: &slug,
		SearchText:   "  rose ",
		Sort:         "bogus",
		Language:     "de",
	})
	require.NoError(t, err)
	require.Equal(t, "birthday", *repo.lastFilter.CategorySlug)
	require.Equal(t, "rose", repo.lastFilter.SearchText)
	require.Equal(t, domain.SortNewest, repo.lastFilter.Sort)
	require.Equal(t, i18n.Macedonian, repo.lastFilter.Language)
	require.Equal(t, DefaultPageSize, repo.lastFilter.PageSize)
	require.Nil(t, repo.lastFilter.Status)

	_, err = svc.QueryProducts(context.Background(), CatalogQuery{PageSize: 5000, Page: 2})
	require.NoError(t, err)
	require.Equal(t, MaxPageSize, repo.lastFilter.PageSize)
	require.Equal(t, 2, repo.lastFilter.Page)

	blank := "   "
	_, err = svc.QueryProducts(context.Background(), CatalogQuery{CategorySlug: &blank})
	require.NoError(t, err)
	require.Nil(t, repo.lastFilter.CategorySlug)
}

func TestQueryProductsRejectsNegativePaging(t *testing.T) {
	svc, _ := NewCatalogService(CatalogServiceDeps{Catalog: &stubCatalogRepository{}})
	_, err := svc.QueryProducts(context.Background(), CatalogQuery{Page: -1})
	require.ErrorIs(t, err, ErrInvalidPage)
	_, err = svc.QueryProducts(context.Background(), CatalogQuery{PageSize: -3})
	require.ErrorIs(t, err, ErrInvalidPageSize)
}

func TestQueryProductsUnpublishedStatusIsEmpty(t *testing.T) {
	repo := &stubCatalogRepository{page: ProductPage{Total: 1, Items: []Product{{}}}}
	svc, _ := NewCatalogService(CatalogServiceDeps{Catalog: repo})
	draft := domain.ProductStatusDraft
	page, err := svc.QueryProducts(context.Background(), CatalogQuery{Status: &draft})
	require.NoError(t, err)
	require.Zero(t, page.Total)
	require.Empty(t, page.Items)
	require.Nil(t, repo.lastFilter.Status, "repository must not be queried")
}

func TestQueryProductsRejectsOverflowingPage(t *testing.T) {
	repo := &stubCatalogRepository{}
	svc, _ := NewCatalogService(CatalogServiceDeps{Catalog: repo})
	_, err := svc.QueryProducts(context.Background(), CatalogQuery{Page: math.MaxInt, PageSize: 100})
	require.ErrorIs(t, err, ErrInvalidPage)

	_, err = svc.QueryProducts(context.Background(), CatalogQuery{Page: math.MaxInt / 100, PageSize: 100})
	require.NoError(t, err)
}

func TestQueryProductsWrapsFetchFailure(t *testing.T) {
	svc, _ := NewCatalogService(CatalogServiceDeps{Catalog: &stubCatalogRepository{err: unavailableError{}}})
	_, err := svc.QueryProducts(context.Background(), CatalogQuery{})

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	require.True(t, fetchErr.Retryable)
	require.Equal(t, "catalog.query_products", fetchErr.Op)
	require.True(t, IsRetryable(err))

	svc, _ = NewCatalogService(CatalogServiceDeps{Catalog: &stubCatalogRepository{err: errors.New("syntax error")}})
	_, err = svc.QueryProducts(context.Background(), CatalogQuery{})
	require.ErrorAs(t, err, &fetchErr)
	require.False(t, fetchErr.Retryable)
}

func newMemoryCatalog(t *testing.T, store *memory.Store) CatalogService {
	t.Helper()
	repo, err := relational.NewCatalogRepository(store)
	require.NoError(t, err)
	svc, err := NewCatalogService(CatalogServiceDeps{Catalog: repo})
	require.NoError(t, err)
	return svc
}

func TestQueryProductsIsIdempotent(t *testing.T) {
	store := memory.New()
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 9; i++ {
		store.Insert(datastore.TableProducts, datastore.Row{
			"id":         fmt.Sprintf("p%d", i),
			"name_mk":    fmt.Sprintf("Букет %d", i%3),
			"price":      i % 4,
			"status":     "published",
			"is_visible": true,
			"created_at": created.Add(time.Duration(i%2) * time.Hour),
		})
	}
	svc := newMemoryCatalog(t, store)

	for _, sort := range []domain.ProductSort{domain.SortNewest, domain.SortPriceAsc, domain.SortNameDesc} {
		query := CatalogQuery{Sort: sort, PageSize: 4, Page: 1}
		first, err := svc.QueryProducts(context.Background(), query)
		require.NoError(t, err)
		second, err := svc.QueryProducts(context.Background(), query)
		require.NoError(t, err)
		require.Equal(t, ids(first.Items), ids(second.Items), "sort %s", sort)
		require.Equal(t, 9, first.Total)
		require.True(t, first.HasMore)
	}
}

func TestShopProductsFiltersPool(t *testing.T) {
	yes := true
	repo := &stubCatalogRepository{
		pool: []Product{
			testProduct("a", "10", withSale("8")),
			testProduct("b", "25", withBestSeller()),
			testProduct("c", "", withBestSeller()),
		},
		occasions: []Occasion{{ID: "o1", Slug: "wedding"}},
		links:     []domain.ProductOccasion{{ProductID: "b", OccasionID: "o1"}, {ProductID: "c", OccasionID: "o1"}},
	}
	svc, _ := NewCatalogService(CatalogServiceDeps{Catalog: repo})

	wedding := "wedding"
	res, err := svc.ShopProducts(context.Background(), ShopQuery{
		Filter: FilterState{OccasionSlug: &wedding, BestSeller: &yes},
		Sort:   domain.SortPriceAsc,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c"}, ids(res.Products))
	require.Equal(t, 1, repo.linkRequests)
	require.True(t, res.Bounds.Min.Decimal.Equal(decimal.RequireFromString("8")))
	require.True(t, res.Bounds.Max.Decimal.Equal(decimal.RequireFromString("25")))

	_, err = svc.ShopProducts(context.Background(), ShopQuery{})
	require.NoError(t, err)
	require.Equal(t, 1, repo.linkRequests, "occasion links are only loaded when filtering by occasion")
}

func ids(products []Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.ID
	}
	return out
}

type productOption func(*Product)

func withSale(price string) productOption {
	return func(p *Product) {
		p.IsOnSale = true
		p.SalePrice = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
}

func withBestSeller() productOption {
	return func(p *Product) { p.IsBestSeller = true }
}

func withCategory(slug string) productOption {
	return func(p *Product) { p.CategorySlug = slug }
}

func withCreated(at time.Time) productOption {
	return func(p *Product) { p.CreatedAt = at }
}

func withStatus(status domain.ProductStatus) productOption {
	return func(p *Product) { p.Status = status }
}

func testProduct(id, price string, opts ...productOption) Product {
	p := Product{Product: domain.Product{
		ID:        id,
		Text:      i18n.Fields{"name_mk": "Производ " + id, "name_en": "Product " + id},
		Status:    domain.ProductStatusPublished,
		IsVisible: true,
		CreatedAt: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	if price != "" {
		p.Price = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
