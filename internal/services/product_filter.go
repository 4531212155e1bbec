package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/platform/textutil"
)

// ProductTag names a boolean product flag usable as a filter tag.
type ProductTag string

const (
	TagOnSale     ProductTag = "on_sale"
	TagBestSeller ProductTag = "best_seller"
)

// FilterState is the shop view's filter selection. Nil and empty fields do not constrain.
type FilterState struct {
	CategorySlug *string
	OccasionSlug *string
	// Occasions matches products tagged with any of the slugs.
	Occasions  []string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	OnSale     *bool
	BestSeller *bool
	// Tags require every listed flag; unknown tags are ignored.
	Tags []ProductTag
}

// OccasionIndex maps a product id to the slugs of its occasions.
type OccasionIndex map[string]map[string]struct{}

// NewOccasionIndex builds the product to occasion-slug index once per link set.
// Links to unknown occasions are skipped.
func NewOccasionIndex(links []domain.ProductOccasion, occasions []domain.Occasion) OccasionIndex {
	slugs := make(map[string]string, len(occasions))
	for _, o := range occasions {
		if slug := strings.ToLower(strings.TrimSpace(o.Slug)); slug != "" {
			slugs[o.ID] = slug
		}
	}
	idx := make(OccasionIndex)
	for _, link := range links {
		slug, ok := slugs[link.OccasionID]
		if !ok {
			continue
		}
		set, ok := idx[link.ProductID]
		if !ok {
			set = map[string]struct{}{}
			idx[link.ProductID] = set
		}
		set[slug] = struct{}{}
	}
	return idx
}

// Has reports whether productID is tagged with slug.
func (idx OccasionIndex) Has(productID, slug string) bool {
	_, ok := idx[productID][strings.ToLower(strings.TrimSpace(slug))]
	return ok
}

// FilterProducts keeps eligible products matching every set predicate. Input
// order is preserved and the input slice is not modified.
func FilterProducts(products []Product, state FilterState, idx OccasionIndex) []Product {
	predicates := state.predicates(idx)
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !p.Eligible() {
			continue
		}
		matched := true
		for _, pred := range predicates {
			if !pred(p) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, p)
		}
	}
	return out
}

func (s FilterState) predicates(idx OccasionIndex) []func(Product) bool {
	var preds []func(Product) bool
	if s.CategorySlug != nil {
		slug := strings.ToLower(strings.TrimSpace(*s.CategorySlug))
		preds = append(preds, func(p Product) bool { return strings.EqualFold(p.CategorySlug, slug) })
	}
	if s.OccasionSlug != nil {
		slug := *s.OccasionSlug
		preds = append(preds, func(p Product) bool { return idx.Has(p.ID, slug) })
	}
	if len(s.Occasions) > 0 {
		slugs := s.Occasions
		preds = append(preds, func(p Product) bool {
			for _, slug := range slugs {
				if idx.Has(p.ID, slug) {
					return true
				}
			}
			return false
		})
	}
	if s.MinPrice != nil {
		lo := *s.MinPrice
		preds = append(preds, func(p Product) bool {
			price := p.EffectivePrice()
			return price.Valid && price.Decimal.GreaterThanOrEqual(lo)
		})
	}
	if s.MaxPrice != nil {
		hi := *s.MaxPrice
		preds = append(preds, func(p Product) bool {
			price := p.EffectivePrice()
			return price.Valid && price.Decimal.LessThanOrEqual(hi)
		})
	}
	if s.OnSale != nil {
		want := *s.OnSale
		preds = append(preds, func(p Product) bool { return p.IsOnSale == want })
	}
	if s.BestSeller != nil {
		want := *s.BestSeller
		preds = append(preds, func(p Product) bool { return p.IsBestSeller == want })
	}
	for _, tag := range s.Tags {
		switch tag {
		case TagOnSale:
			preds = append(preds, func(p Product) bool { return p.IsOnSale })
		case TagBestSeller:
			preds = append(preds, func(p Product) bool { return p.IsBestSeller })
		}
	}
	return preds
}

// SortProducts returns a copy of products in the catalog ordering for sortBy.
// Null prices and blank names sort last; ties break on id.
func SortProducts(products []Product, sortBy domain.ProductSort, lang i18n.Language) []Product {
	out := make([]Product, len(products))
	copy(out, products)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch sortBy {
		case domain.SortOldest:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.Before(b.CreatedAt)
			}
		case domain.SortPriceAsc, domain.SortPriceDesc:
			if cmp, decided := compareNullDecimal(a.Price, b.Price, sortBy == domain.SortPriceDesc); decided {
				return cmp
			}
		case domain.SortNameAsc, domain.SortNameDesc:
			an := textutil.Fold(i18n.Resolve(a.Text, "name", lang))
			bn := textutil.Fold(i18n.Resolve(b.Text, "name", lang))
			if an != bn {
				switch {
				case an == "":
					return false
				case bn == "":
					return true
				case sortBy == domain.SortNameDesc:
					return an > bn
				default:
					return an < bn
				}
			}
		default:
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
		}
		return a.ID < b.ID
	})
	return out
}

// compareNullDecimal orders with nulls last in both directions. decided is false on ties.
func compareNullDecimal(a, b decimal.NullDecimal, desc bool) (less, decided bool) {
	switch {
	case !a.Valid && !b.Valid:
		return false, false
	case !a.Valid:
		return false, true
	case !b.Valid:
		return true, true
	}
	cmp := a.Decimal.Cmp(b.Decimal)
	if cmp == 0 {
		return false, false
	}
	if desc {
		return cmp > 0, true
	}
	return cmp < 0, true
}

// PriceRange is the span of effective prices in a product set.
type PriceRange struct {
	Min decimal.NullDecimal
	Max decimal.NullDecimal
}

// PriceBounds reports the min and max effective price; both are null when no product has a price.
func PriceBounds(products []Product) PriceRange {
	var r PriceRange
	for _, p := range products {
		price := p.EffectivePrice()
		if !price.Valid {
			continue
		}
		if !r.Min.Valid || price.Decimal.LessThan(r.Min.Decimal) {
			r.Min = price
		}
		if !r.Max.Valid || price.Decimal.GreaterThan(r.Max.Decimal) {
			r.Max = price
		}
	}
	return r
}

// ShopQuery drives the in-memory shop view.
type ShopQuery struct {
	Filter   FilterState
	Sort     domain.ProductSort
	Language i18n.Language
}

// ShopResult is the filtered, sorted pool. Bounds covers the unfiltered
// eligible pool so price sliders keep their range while filtering.
type ShopResult struct {
	Products    []Product
	Bounds      PriceRange
	GeneratedAt time.Time
}

func (s *catalogService) ShopProducts(ctx context.Context, query ShopQuery) (ShopResult, error) {
	ctx, span := tracer.Start(ctx, "catalog.ShopProducts")
	defer span.End()

	pool, err := s.repo.ListEligibleProducts(ctx, s.poolSize)
	if err != nil {
		return ShopResult{}, newFetchError("catalog.shop_products", err)
	}

	var idx OccasionIndex
	if query.Filter.OccasionSlug != nil || len(query.Filter.Occasions) > 0 {
		occasions, err := s.repo.ListOccasions(ctx, true)
		if err != nil {
			return ShopResult{}, newFetchError("catalog.shop_products", err)
		}
		ids := make([]string, len(pool))
		for i, p := range pool {
			ids[i] = p.ID
		}
		links, err := s.repo.ListProductOccasions(ctx, ids)
		if err != nil {
			return ShopResult{}, newFetchError("catalog.shop_products", err)
		}
		idx = NewOccasionIndex(links, occasions)
	}

	sortBy := query.Sort
	if !sortBy.Valid() {
		sortBy = domain.SortNewest
	}
	filtered := FilterProducts(pool, query.Filter, idx)
	return ShopResult{
		Products:    SortProducts(filtered, sortBy, query.Language),
		Bounds:      PriceBounds(FilterProducts(pool, FilterState{}, nil)),
		GeneratedAt: s.clock(),
	}, nil
}
