package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/repositories"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
	// DefaultPoolSize bounds the eligible products loaded for in-memory views.
	DefaultPoolSize = 200
)

var tracer = otel.Tracer("github.com/Micevski239/gerbera-sub000/internal/services")

var (
	// ErrCatalogRepositoryMissing indicates the repository dependency is absent.
	ErrCatalogRepositoryMissing = errors.New("catalog service: catalog repository is not configured")
	// ErrInvalidPage indicates a negative page index.
	ErrInvalidPage = errors.New("catalog service: page must not be negative")
	// ErrInvalidPageSize indicates a negative page size.
	ErrInvalidPageSize = errors.New("catalog service: page size must not be negative")
)

// CatalogServiceDeps bundles constructor inputs for the catalog service.
type CatalogServiceDeps struct {
	Catalog         repositories.CatalogRepository
	Logger          *zap.Logger
	DefaultPageSize int
	MaxPageSize     int
	PoolSize        int
	Clock           func() time.Time
}

type catalogService struct {
	repo            repositories.CatalogRepository
	logger          *zap.Logger
	defaultPageSize int
	maxPageSize     int
	poolSize        int
	clock           func() time.Time
}

// NewCatalogService constructs the catalog service with the supplied dependencies.
func NewCatalogService(deps CatalogServiceDeps) (CatalogService, error) {
	if deps.Catalog == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	maxSize := deps.MaxPageSize
	if maxSize <= 0 {
		maxSize = MaxPageSize
	}
	defaultSize := deps.DefaultPageSize
	if defaultSize <= 0 {
		defaultSize = DefaultPageSize
	}
	if defaultSize > maxSize {
		defaultSize = maxSize
	}
	pool := deps.PoolSize
	if pool <= 0 {
		pool = DefaultPoolSize
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &catalogService{
		repo:            deps.Catalog,
		logger:          logger.Named("catalog"),
		defaultPageSize: defaultSize,
		maxPageSize:     maxSize,
		poolSize:        pool,
		clock:           func() time.Time { return clock().UTC() },
	}, nil
}

// QueryProducts returns one page of eligible products. Identical queries
// against unchanged data return identical pages.
func (s *catalogService) QueryProducts(ctx context.Context, query CatalogQuery) (ProductPage, error) {
	filter, err := s.normalize(query)
	if err != nil {
		return ProductPage{}, err
	}
	if filter.Status != nil && *filter.Status != domain.ProductStatusPublished {
		return domain.NewPage([]domain.ProductWithDetails{}, 0, filter.Page, filter.PageSize), nil
	}

	ctx, span := tracer.Start(ctx, "catalog.QueryProducts", trace.WithAttributes(
		attribute.String("catalog.sort", string(filter.Sort)),
		attribute.Int("catalog.page", filter.Page),
		attribute.Int("catalog.page_size", filter.PageSize),
		attribute.Bool("catalog.search", filter.SearchText != ""),
	))
	defer span.End()

	page, err := s.repo.ListProducts(ctx, filter)
	if err != nil {
		err = newFetchError("catalog.query_products", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "query products")
		s.logger.Error("query products failed", zap.Error(err), zap.Int("page", filter.Page))
		return ProductPage{}, err
	}
	span.SetAttributes(attribute.Int("catalog.total", page.Total))
	return page, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]Category, error) {
	categories, err := s.repo.ListCategories(ctx, true)
	if err != nil {
		return nil, newFetchError("catalog.list_categories", err)
	}
	return categories, nil
}

func (s *catalogService) ListOccasions(ctx context.Context) ([]Occasion, error) {
	occasions, err := s.repo.ListOccasions(ctx, true)
	if err != nil {
		return nil, newFetchError("catalog.list_occasions", err)
	}
	return occasions, nil
}

// normalize validates paging and canonicalises criteria. Out-of-range sizes
// are clamped rather than rejected.
func (s *catalogService) normalize(query CatalogQuery) (repositories.ProductListFilter, error) {
	if query.Page < 0 {
		return repositories.ProductListFilter{}, ErrInvalidPage
	}
	if query.PageSize < 0 {
		return repositories.ProductListFilter{}, ErrInvalidPageSize
	}
	size := query.PageSize
	switch {
	case size == 0:
		size = s.defaultPageSize
	case size > s.maxPageSize:
		size = s.maxPageSize
	}
	if query.Page > math.MaxInt/size {
		return repositories.ProductListFilter{}, ErrInvalidPage
	}
	sort := query.Sort
	if !sort.Valid() {
		sort = domain.SortNewest
	}
	lang := query.Language
	if !lang.Valid() {
		lang = i18n.Default
	}
	filter := repositories.ProductListFilter{
		CategorySlug: normalizeSlug(query.CategorySlug),
		IsBestSeller: query.IsBestSeller,
		IsOnSale:     query.IsOnSale,
		SearchText:   strings.TrimSpace(query.SearchText),
		Sort:         sort,
		Language:     lang,
		Page:         query.Page,
		PageSize:     size,
	}
	if query.Status != nil {
		status := domain.ProductStatus(strings.ToLower(strings.TrimSpace(string(*query.Status))))
		if status != "" {
			filter.Status = &status
		}
	}
	return filter, nil
}

func normalizeSlug(value *string) *string {
	if value == nil {
		return nil
	}
	slug := strings.ToLower(strings.TrimSpace(*value))
	if slug == "" {
		return nil
	}
	return &slug
}
