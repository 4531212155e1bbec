package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/repositories"
)

var (
	// ErrContentRepositoryMissing signals that the content repository dependency is absent.
	ErrContentRepositoryMissing = errors.New("homepage service: content repository is not configured")
	// ErrSectionIDRequired is returned when a section id is blank.
	ErrSectionIDRequired = errors.New("homepage service: section id is required")
)

// HomepageServiceDeps groups constructor parameters for the homepage service.
type HomepageServiceDeps struct {
	Content  repositories.ContentRepository
	Catalog  repositories.CatalogRepository
	Composer *Composer
	Logger   *zap.Logger
	// PoolSize bounds the candidate products shared by every product grid.
	PoolSize int
	Clock    func() time.Time
}

type homepageService struct {
	content  repositories.ContentRepository
	catalog  repositories.CatalogRepository
	composer *Composer
	logger   *zap.Logger
	poolSize int
	clock    func() time.Time
}

// NewHomepageService constructs the homepage service.
func NewHomepageService(deps HomepageServiceDeps) (HomepageService, error) {
	if deps.Content == nil {
		return nil, ErrContentRepositoryMissing
	}
	if deps.Catalog == nil {
		return nil, ErrCatalogRepositoryMissing
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	composer := deps.Composer
	if composer == nil {
		composer = NewComposer(WithComposerLogger(logger))
	}
	pool := deps.PoolSize
	if pool <= 0 {
		pool = DefaultPoolSize
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &homepageService{
		content:  deps.Content,
		catalog:  deps.Catalog,
		composer: composer,
		logger:   logger.Named("homepage"),
		poolSize: pool,
		clock:    func() time.Time { return clock().UTC() },
	}, nil
}

// LoadHomepage fetches sections, items, the product pool and taxonomy
// concurrently. The join fails on the first fetch error and nothing is composed.
func (s *homepageService) LoadHomepage(ctx context.Context, lang i18n.Language) (Homepage, error) {
	if !lang.Valid() {
		lang = i18n.Default
	}
	ctx, span := tracer.Start(ctx, "homepage.LoadHomepage")
	defer span.End()
	span.SetAttributes(attribute.String("homepage.language", string(lang)))

	var in CompositionInput
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Sections, err = s.content.ListSections(gctx, true)
		return err
	})
	g.Go(func() error {
		var err error
		in.Items, err = s.content.ListSectionItems(gctx, "")
		return err
	})
	g.Go(func() error {
		var err error
		in.Products, err = s.catalog.ListEligibleProducts(gctx, s.poolSize)
		return err
	})
	g.Go(func() error {
		var err error
		in.Categories, err = s.catalog.ListCategories(gctx, true)
		return err
	})
	g.Go(func() error {
		var err error
		in.Occasions, err = s.catalog.ListOccasions(gctx, true)
		return err
	})
	if err := g.Wait(); err != nil {
		err = newFetchError("homepage.load", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "load homepage")
		s.logger.Error("load homepage failed", zap.Error(err))
		return Homepage{}, err
	}

	widgets := s.composer.Compose(ctx, in, lang)
	span.SetAttributes(attribute.Int("homepage.widgets", len(widgets)))
	return Homepage{Language: lang, Widgets: widgets, GeneratedAt: s.clock()}, nil
}

// SectionItems returns the active items of one section in display order.
func (s *homepageService) SectionItems(ctx context.Context, sectionID string) ([]SectionItem, error) {
	sectionID = strings.TrimSpace(sectionID)
	if sectionID == "" {
		return nil, ErrSectionIDRequired
	}
	items, err := s.content.ListSectionItems(ctx, sectionID)
	if err != nil {
		return nil, newFetchError("homepage.section_items", err)
	}
	return ResolveItems(items, sectionID), nil
}
