package repositories

import (
	"context"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ProductListFilter is a normalised catalog query ready to be translated for the store.
type ProductListFilter struct {
	CategorySlug *string
	// Status narrows the published set. Only published products are ever listed.
	Status       *domain.ProductStatus
	IsBestSeller *bool
	IsOnSale     *bool
	SearchText   string
	Sort         domain.ProductSort
	Language     i18n.Language
	Page         int
	PageSize     int
}

// CatalogRepository reads products and taxonomy.
type CatalogRepository interface {
	// ListProducts returns one page of visible products with an exact total.
	ListProducts(ctx context.Context, filter ProductListFilter) (domain.Page[domain.ProductWithDetails], error)
	// ListEligibleProducts returns up to limit published and visible products, newest first.
	ListEligibleProducts(ctx context.Context, limit int) ([]domain.ProductWithDetails, error)
	ListCategories(ctx context.Context, visibleOnly bool) ([]domain.Category, error)
	ListOccasions(ctx context.Context, visibleOnly bool) ([]domain.Occasion, error)
	// ListProductOccasions returns links for the given products, or every link when productIDs is empty.
	ListProductOccasions(ctx context.Context, productIDs []string) ([]domain.ProductOccasion, error)
}

// ContentRepository reads homepage sections and their items.
type ContentRepository interface {
	ListSections(ctx context.Context, activeOnly bool) ([]domain.Section, error)
	// ListSectionItems returns the items of sectionID, or of every section when sectionID is empty.
	ListSectionItems(ctx context.Context, sectionID string) ([]domain.SectionItem, error)
}

// HealthRepository probes runtime dependencies.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.HealthReport, error)
}
