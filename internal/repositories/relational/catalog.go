package relational

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/repositories"
)

// SearchFields are the product columns matched by free-text search.
var SearchFields = []string{"name_mk", "name_en", "description_mk", "description_en"}

var errClientMissing = errors.New("relational repository: datastore client is required")

// CatalogRepository reads products and taxonomy through a datastore.Client.
type CatalogRepository struct {
	client datastore.Client
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository constructs a catalog repository.
func NewCatalogRepository(client datastore.Client) (*CatalogRepository, error) {
	if client == nil {
		return nil, errClientMissing
	}
	return &CatalogRepository{client: client}, nil
}

// ProductQuery translates a normalised filter into a datastore query against
// the product detail view.
func ProductQuery(filter repositories.ProductListFilter) datastore.Query {
	q := datastore.Query{
		Table: datastore.TableProductsWithDetail,
		Filters: []datastore.Filter{
			datastore.Eq("status", string(domain.ProductStatusPublished)),
			datastore.Eq("is_visible", true),
		},
		Orders: ProductOrders(filter.Sort, filter.Language),
		Count:  true,
	}
	// A requested status narrows the published set; any other value matches nothing.
	if filter.Status != nil && *filter.Status != domain.ProductStatusPublished {
		q.Filters = append(q.Filters, datastore.Eq("status", string(*filter.Status)))
	}
	if filter.CategorySlug != nil {
		q.Filters = append(q.Filters, datastore.Eq("category_slug", *filter.CategorySlug))
	}
	if filter.IsBestSeller != nil {
		q.Filters = append(q.Filters, datastore.Eq("is_best_seller", *filter.IsBestSeller))
	}
	if filter.IsOnSale != nil {
		q.Filters = append(q.Filters, datastore.Eq("is_on_sale", *filter.IsOnSale))
	}
	if search := strings.TrimSpace(filter.SearchText); search != "" {
		group := make([]datastore.Filter, len(SearchFields))
		for i, field := range SearchFields {
			group[i] = datastore.ILike(field, search)
		}
		q.Any = append(q.Any, group)
	}
	if filter.PageSize > 0 {
		q.Range = &datastore.Range{Offset: filter.Page * filter.PageSize, Limit: filter.PageSize}
	}
	return q
}

// ProductOrders returns the ordering keys for sort. Every ordering ends with
// the product id so pages never overlap.
func ProductOrders(sort domain.ProductSort, lang i18n.Language) []datastore.Order {
	if !lang.Valid() {
		lang = i18n.Default
	}
	tiebreak := datastore.Order{Field: "id"}
	nameField := "name_" + string(lang)
	switch sort {
	case domain.SortOldest:
		return []datastore.Order{{Field: "created_at"}, tiebreak}
	case domain.SortPriceAsc:
		return []datastore.Order{{Field: "price", NullsLast: true}, tiebreak}
	case domain.SortPriceDesc:
		return []datastore.Order{{Field: "price", Desc: true, NullsLast: true}, tiebreak}
	case domain.SortNameAsc:
		return []datastore.Order{{Field: nameField, NullsLast: true}, tiebreak}
	case domain.SortNameDesc:
		return []datastore.Order{{Field: nameField, Desc: true, NullsLast: true}, tiebreak}
	default:
		return []datastore.Order{{Field: "created_at", Desc: true}, tiebreak}
	}
}

func (r *CatalogRepository) ListProducts(ctx context.Context, filter repositories.ProductListFilter) (domain.Page[domain.ProductWithDetails], error) {
	res, err := r.client.Select(ctx, ProductQuery(filter))
	if err != nil {
		return domain.Page[domain.ProductWithDetails]{}, fmt.Errorf("products.list: %w", err)
	}
	items := make([]domain.ProductWithDetails, 0, len(res.Rows))
	for _, row := range res.Rows {
		items = append(items, decodeProductWithDetails(row))
	}
	return domain.NewPage(items, res.Total, filter.Page, filter.PageSize), nil
}

func (r *CatalogRepository) ListEligibleProducts(ctx context.Context, limit int) ([]domain.ProductWithDetails, error) {
	q := datastore.Query{
		Table: datastore.TableProductsWithDetail,
		Filters: []datastore.Filter{
			datastore.Eq("status", string(domain.ProductStatusPublished)),
			datastore.Eq("is_visible", true),
		},
		Orders: ProductOrders(domain.SortNewest, i18n.Default),
	}
	if limit > 0 {
		q.Range = &datastore.Range{Limit: limit}
	}
	res, err := r.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("products.eligible: %w", err)
	}
	items := make([]domain.ProductWithDetails, 0, len(res.Rows))
	for _, row := range res.Rows {
		items = append(items, decodeProductWithDetails(row))
	}
	return items, nil
}

func (r *CatalogRepository) ListCategories(ctx context.Context, visibleOnly bool) ([]domain.Category, error) {
	res, err := r.client.Select(ctx, taxonomyQuery(datastore.TableCategories, visibleOnly))
	if err != nil {
		return nil, fmt.Errorf("categories.list: %w", err)
	}
	out := make([]domain.Category, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, decodeCategory(row))
	}
	return out, nil
}

func (r *CatalogRepository) ListOccasions(ctx context.Context, visibleOnly bool) ([]domain.Occasion, error) {
	res, err := r.client.Select(ctx, taxonomyQuery(datastore.TableOccasions, visibleOnly))
	if err != nil {
		return nil, fmt.Errorf("occasions.list: %w", err)
	}
	out := make([]domain.Occasion, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, decodeOccasion(row))
	}
	return out, nil
}

func (r *CatalogRepository) ListProductOccasions(ctx context.Context, productIDs []string) ([]domain.ProductOccasion, error) {
	q := datastore.Query{
		Table:  datastore.TableProductOccasions,
		Orders: []datastore.Order{{Field: "product_id"}, {Field: "occasion_id"}},
	}
	if len(productIDs) > 0 {
		ids := make([]any, len(productIDs))
		for i, id := range productIDs {
			ids[i] = id
		}
		q.Filters = append(q.Filters, datastore.In("product_id", ids...))
	}
	res, err := r.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("product_occasions.list: %w", err)
	}
	out := make([]domain.ProductOccasion, 0, len(res.Rows))
	for _, row := range res.Rows {
		link := domain.ProductOccasion{ProductID: str(row, "product_id"), OccasionID: str(row, "occasion_id")}
		if link.ProductID == "" || link.OccasionID == "" {
			continue
		}
		out = append(out, link)
	}
	return out, nil
}

func taxonomyQuery(table string, visibleOnly bool) datastore.Query {
	q := datastore.Query{
		Table:  table,
		Orders: []datastore.Order{{Field: "display_order"}, {Field: "id"}},
	}
	if visibleOnly {
		q.Filters = append(q.Filters, datastore.Eq("is_visible", true))
	}
	return q
}
