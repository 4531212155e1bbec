package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Micevski239/gerbera-sub000/internal/i18n"
)

// SectionType identifies how a homepage section renders.
type SectionType string

const (
	SectionTypeProductGrid  SectionType = "product_grid"
	SectionTypeCategoryGrid SectionType = "category_grid"
	SectionTypeBanner       SectionType = "banner"
	SectionTypeTextImage    SectionType = "text_image"
	SectionTypeGallery      SectionType = "gallery"
	SectionTypeTrustBadges  SectionType = "trust_badges"
)

// Known reports whether the type has a renderer.
func (t SectionType) Known() bool {
	switch t {
	case SectionTypeProductGrid, SectionTypeCategoryGrid, SectionTypeBanner,
		SectionTypeTextImage, SectionTypeGallery, SectionTypeTrustBadges:
		return true
	default:
		return false
	}
}

// ProductStatus is the publication lifecycle of a product.
type ProductStatus string

const (
	ProductStatusDraft     ProductStatus = "draft"
	ProductStatusPublished ProductStatus = "published"
	ProductStatusSold      ProductStatus = "sold"
)

// ProductSort enumerates the catalog orderings.
type ProductSort string

const (
	SortNewest    ProductSort = "newest"
	SortOldest    ProductSort = "oldest"
	SortPriceAsc  ProductSort = "price_asc"
	SortPriceDesc ProductSort = "price_desc"
	SortNameAsc   ProductSort = "name_asc"
	SortNameDesc  ProductSort = "name_desc"
)

// Valid reports whether s is one of the six supported orderings.
func (s ProductSort) Valid() bool {
	switch s {
	case SortNewest, SortOldest, SortPriceAsc, SortPriceDesc, SortNameAsc, SortNameDesc:
		return true
	default:
		return false
	}
}

// Section is an admin-configured homepage block. Config holds the raw,
// type-specific payload; it is parsed by the sections package.
type Section struct {
	ID              string
	Type            SectionType
	Text            i18n.Fields
	LayoutStyle     string
	ItemShape       string
	Config          map[string]any
	BackgroundColor string
	TextColor       string
	PaddingY        string
	DisplayOrder    int
	IsActive        bool
	CreatedAt       time.Time
}

// SectionItem is an explicit tile/badge/image owned by a section.
type SectionItem struct {
	ID              string
	SectionID       string
	Text            i18n.Fields
	ImagePath       string
	Link            *string
	Icon            *string
	BackgroundColor string
	TextColor       string
	DisplayOrder    int
	IsActive        bool
}

// Product is a catalog entry. Price and SalePrice are nullable; a product
// without a price is sold through inquiry.
type Product struct {
	ID           string
	Text         i18n.Fields
	CategoryID   string
	Price        decimal.NullDecimal
	SalePrice    decimal.NullDecimal
	IsOnSale     bool
	IsBestSeller bool
	Status       ProductStatus
	IsVisible    bool
	DisplayOrder int
	CreatedAt    time.Time
}

// EffectivePrice is the sale price when the product is on sale and has one,
// otherwise the regular price.
func (p Product) EffectivePrice() decimal.NullDecimal {
	if p.IsOnSale && p.SalePrice.Valid {
		return p.SalePrice
	}
	return p.Price
}

// Eligible reports whether the product may appear on a public surface.
func (p Product) Eligible() bool {
	return p.Status == ProductStatusPublished && p.IsVisible
}

// ProductWithDetails is a product joined with its category and primary image.
type ProductWithDetails struct {
	Product
	CategoryText     i18n.Fields
	CategorySlug     string
	PrimaryImagePath string
}

// Category groups products for navigation.
type Category struct {
	ID           string
	Text         i18n.Fields
	Slug         string
	ImagePath    string
	DisplayOrder int
	IsVisible    bool
}

// Occasion is a many-to-many product tag such as "birthday" or "wedding".
type Occasion struct {
	ID           string
	Text         i18n.Fields
	Slug         string
	ImagePath    string
	DisplayOrder int
	IsVisible    bool
}

// ProductOccasion links a product to an occasion.
type ProductOccasion struct {
	ProductID  string
	OccasionID string
}

// CatalogQuery captures shop criteria. Nil pointers mean "no constraint".
type CatalogQuery struct {
	CategorySlug *string
	Status       *ProductStatus
	IsBestSeller *bool
	IsOnSale     *bool
	SearchText   string
	Sort         ProductSort
	// Language picks the name column used by the name orderings.
	Language i18n.Language
	Page     int
	PageSize int
}

// Page is a zero-based offset page of results with an exact total.
type Page[T any] struct {
	Items    []T
	Total    int
	HasMore  bool
	Page     int
	PageSize int
}

// NewPage assembles a page and derives HasMore: a full page whose window does
// not yet reach the total.
func NewPage[T any](items []T, total, page, pageSize int) Page[T] {
	offset := page * pageSize
	return Page[T]{
		Items:    items,
		Total:    total,
		HasMore:  pageSize > 0 && len(items) == pageSize && total > offset+len(items),
		Page:     page,
		PageSize: pageSize,
	}
}

const (
	HealthStatusOK       = "ok"
	HealthStatusDegraded = "degraded"
	HealthStatusError    = "error"
)

// HealthCheck is the outcome of one dependency probe.
type HealthCheck struct {
	Status    string
	Detail    string
	Latency   time.Duration
	CheckedAt time.Time
}

// HealthReport aggregates dependency probes for readiness endpoints.
type HealthReport struct {
	Status      string
	Checks      map[string]HealthCheck
	GeneratedAt time.Time
}
