package services

import (
	"context"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Product      = domain.ProductWithDetails
	ProductPage  = domain.Page[domain.ProductWithDetails]
	CatalogQuery = domain.CatalogQuery
	Section      = domain.Section
	SectionItem  = domain.SectionItem
	Category     = domain.Category
	Occasion     = domain.Occasion
	HealthReport = domain.HealthReport
)

// CatalogService answers product and taxonomy reads for the storefront.
type CatalogService interface {
	QueryProducts(ctx context.Context, query CatalogQuery) (ProductPage, error)
	// ShopProducts filters and sorts the eligible product pool in memory.
	ShopProducts(ctx context.Context, query ShopQuery) (ShopResult, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListOccasions(ctx context.Context) ([]Occasion, error)
}

// HomepageService composes the homepage.
type HomepageService interface {
	LoadHomepage(ctx context.Context, lang i18n.Language) (Homepage, error)
	SectionItems(ctx context.Context, sectionID string) ([]SectionItem, error)
}

// SystemService reports readiness of runtime dependencies.
type SystemService interface {
	Readiness(ctx context.Context) (HealthReport, error)
}
