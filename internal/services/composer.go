package services

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/platform/storage"
	"github.com/Micevski239/gerbera-sub000/internal/sections"
)

// CompositionInput is everything a homepage composition reads.
type CompositionInput struct {
	Sections   []Section
	Items      []SectionItem
	Products   []Product
	Categories []Category
	Occasions  []Occasion
}

// Composer turns sections into widgets. It performs no I/O besides image URL
// resolution and is safe for concurrent use.
type Composer struct {
	logger   *zap.Logger
	images   storage.ImageResolver
	bundle   *i18n.Bundle
	renderer *ContentRenderer
	dropped  metric.Int64Counter
}

// ComposerOption customises a Composer.
type ComposerOption func(*Composer)

// WithComposerLogger sets the logger used for dropped sections.
func WithComposerLogger(logger *zap.Logger) ComposerOption {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithImageResolver sets how stored image paths become URLs.
func WithImageResolver(resolver storage.ImageResolver) ComposerOption {
	return func(c *Composer) {
		if resolver != nil {
			c.images = resolver
		}
	}
}

// WithBundle sets the static UI strings used for badges and labels.
func WithBundle(bundle *i18n.Bundle) ComposerOption {
	return func(c *Composer) {
		if bundle != nil {
			c.bundle = bundle
		}
	}
}

// NewComposer builds a Composer. Without options images resolve only when
// already absolute and labels come from the embedded bundle.
func NewComposer(opts ...ComposerOption) *Composer {
	// a nil bundle echoes keys
	bundle, _ := i18n.DefaultBundle()
	c := &Composer{
		logger:   zap.NewNop(),
		images:   storage.PassthroughResolver,
		bundle:   bundle,
		renderer: NewContentRenderer(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	counter, err := otel.Meter("github.com/Micevski239/gerbera-sub000/internal/services").Int64Counter(
		"storefront.homepage.sections_dropped",
		metric.WithDescription("Homepage sections skipped because their type has no renderer"),
	)
	if err == nil {
		c.dropped = counter
	}
	return c
}

// ComposeHomepage composes with a default Composer.
func ComposeHomepage(sectionList []Section, items []SectionItem, pool []Product, lang i18n.Language) []Widget {
	return NewComposer().Compose(context.Background(), CompositionInput{
		Sections: sectionList,
		Items:    items,
		Products: pool,
	}, lang)
}

// Compose returns one widget per active, known section in (display_order, id)
// order. Sections whose content resolves to nothing still produce a widget.
func (c *Composer) Compose(ctx context.Context, in CompositionInput, lang i18n.Language) []Widget {
	if !lang.Valid() {
		lang = i18n.Default
	}
	ordered := orderSections(in.Sections)
	widgets := make([]Widget, 0, len(ordered))
	for _, section := range ordered {
		if !section.Type.Known() {
			c.logger.Warn("dropping homepage section with unknown type",
				zap.String("section_id", section.ID),
				zap.String("section_type", string(section.Type)),
			)
			if c.dropped != nil {
				c.dropped.Add(ctx, 1, metric.WithAttributes(attribute.String("section_type", string(section.Type))))
			}
			continue
		}
		widgets = append(widgets, c.composeSection(ctx, section, in, lang))
	}
	return widgets
}

func (c *Composer) composeSection(ctx context.Context, section Section, in CompositionInput, lang i18n.Language) Widget {
	cfg := sections.ParseConfig(string(section.Type), section.Config)
	w := Widget{
		SectionID: section.ID,
		Type:      section.Type,
		Title:     i18n.Resolve(section.Text, "title", lang),
		Subtitle:  i18n.Resolve(section.Text, "subtitle", lang),
		Layout:    sections.ParseLayout(section.LayoutStyle),
		Shape:     sections.ParseShape(section.ItemShape),
		Presentation: Presentation{
			BackgroundColor: strings.TrimSpace(section.BackgroundColor),
			TextColor:       strings.TrimSpace(section.TextColor),
			PaddingY:        strings.TrimSpace(section.PaddingY),
		},
		Config: cfg,
	}

	switch typed := cfg.(type) {
	case sections.ProductGridConfig:
		w.Products = c.productCards(ctx, SelectGridProducts(in.Products, typed), typed, lang)
	case sections.CategoryGridConfig:
		w.Items = c.itemCards(ctx, ResolveItems(in.Items, section.ID), lang)
		if len(w.Items) == 0 {
			w.Tiles = c.taxonomyTiles(ctx, typed.CategoryType, in, lang)
		}
	case sections.GalleryConfig, sections.TrustBadgesConfig:
		w.Items = c.itemCards(ctx, ResolveItems(in.Items, section.ID), lang)
	case sections.BannerConfig:
		w.Media = &Media{
			ImageURL: c.imageURL(ctx, typed.ImagePath),
			Link:     typed.Link,
			CTA:      resolveCTA(typed.CTA, lang),
		}
	case sections.TextImageConfig:
		w.Media = &Media{
			ImageURL:    c.imageURL(ctx, typed.ImagePath),
			ContentHTML: c.renderer.Render(i18n.Resolve(typed.Content, "content", lang)),
			CTA:         resolveCTA(typed.CTA, lang),
		}
	}
	return w
}

// SelectGridProducts applies a product grid's named filter to the pool and
// truncates to the grid limit. Only eligible products are considered.
func SelectGridProducts(pool []Product, cfg sections.ProductGridConfig) []Product {
	var keep func(Product) bool
	switch cfg.Filter.Kind {
	case sections.FilterBestSeller:
		keep = func(p Product) bool { return p.IsBestSeller }
	case sections.FilterOnSale:
		keep = func(p Product) bool { return p.IsOnSale }
	case sections.FilterCategory:
		keep = func(p Product) bool { return strings.EqualFold(p.CategorySlug, cfg.Filter.CategorySlug) }
	case sections.FilterNewArrival:
		keep = func(Product) bool { return true }
	default:
		keep = func(p Product) bool { return p.IsBestSeller || p.IsOnSale }
	}

	selected := make([]Product, 0, len(pool))
	for _, p := range pool {
		if p.Eligible() && keep(p) {
			selected = append(selected, p)
		}
	}
	if cfg.Filter.Kind == sections.FilterNewArrival {
		selected = SortProducts(selected, domain.SortNewest, i18n.Default)
	} else {
		sort.SliceStable(selected, func(i, j int) bool {
			a, b := selected[i], selected[j]
			if a.DisplayOrder != b.DisplayOrder {
				return a.DisplayOrder < b.DisplayOrder
			}
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		})
	}
	limit := cfg.Limit
	if limit <= 0 {
		limit = sections.DefaultProductLimit
	}
	if len(selected) > limit {
		selected = selected[:limit]
	}
	return selected
}

func (c *Composer) productCards(ctx context.Context, products []Product, cfg sections.ProductGridConfig, lang i18n.Language) []ProductCard {
	cards := make([]ProductCard, 0, len(products))
	for _, p := range products {
		card := ProductCard{
			ID:           p.ID,
			Name:         i18n.Resolve(p.Text, "name", lang),
			Description:  i18n.Resolve(p.Text, "description", lang),
			CategoryName: i18n.Resolve(p.CategoryText, "name", lang),
			CategorySlug: p.CategorySlug,
			ImageURL:     c.imageURL(ctx, p.PrimaryImagePath),
			IsOnSale:     p.IsOnSale,
			IsBestSeller: p.IsBestSeller,
		}
		effective := p.EffectivePrice()
		card.PriceOnRequest = !effective.Valid
		if cfg.ShowPrice {
			card.Price = p.Price
			card.EffectivePrice = effective
			if p.IsOnSale {
				card.SalePrice = p.SalePrice
			}
		}
		if cfg.ShowBadge {
			switch {
			case p.IsOnSale:
				card.Badge = c.bundle.T(lang, "product.on_sale")
			case p.IsBestSeller:
				card.Badge = c.bundle.T(lang, "product.best_seller")
			}
		}
		if cfg.ShowInquiryButton {
			card.InquiryLabel = c.bundle.T(lang, "product.inquire")
		}
		cards = append(cards, card)
	}
	return cards
}

func (c *Composer) itemCards(ctx context.Context, items []SectionItem, lang i18n.Language) []ItemCard {
	cards := make([]ItemCard, 0, len(items))
	for _, item := range items {
		card := ItemCard{
			ID:              item.ID,
			Title:           i18n.Resolve(item.Text, "title", lang),
			Subtitle:        i18n.Resolve(item.Text, "subtitle", lang),
			ImageURL:        c.imageURL(ctx, item.ImagePath),
			BackgroundColor: strings.TrimSpace(item.BackgroundColor),
			TextColor:       strings.TrimSpace(item.TextColor),
		}
		if item.Link != nil {
			card.Link = strings.TrimSpace(*item.Link)
		}
		if item.Icon != nil {
			card.Icon = strings.TrimSpace(*item.Icon)
		}
		cards = append(cards, card)
	}
	return cards
}

// taxonomyTiles lists visible categories or occasions for grids that have no
// explicit items. Custom grids stay empty.
func (c *Composer) taxonomyTiles(ctx context.Context, kind sections.CategoryType, in CompositionInput, lang i18n.Language) []Tile {
	var tiles []Tile
	switch kind {
	case sections.CategoryTypeCategories:
		for _, cat := range sortTaxonomy(in.Categories) {
			tiles = append(tiles, c.tile(ctx, cat, "category", lang))
		}
	case sections.CategoryTypeOccasions:
		converted := make([]Category, len(in.Occasions))
		for i, o := range in.Occasions {
			converted[i] = Category(o)
		}
		for _, o := range sortTaxonomy(converted) {
			tiles = append(tiles, c.tile(ctx, o, "occasion", lang))
		}
	}
	return tiles
}

func (c *Composer) tile(ctx context.Context, entry Category, param string, lang i18n.Language) Tile {
	return Tile{
		ID:       entry.ID,
		Name:     i18n.Resolve(entry.Text, "name", lang),
		Slug:     entry.Slug,
		ImageURL: c.imageURL(ctx, entry.ImagePath),
		Link:     "/shop?" + url.Values{param: {entry.Slug}}.Encode(),
	}
}

func sortTaxonomy(entries []Category) []Category {
	out := make([]Category, 0, len(entries))
	for _, e := range entries {
		if e.IsVisible && strings.TrimSpace(e.Slug) != "" {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayOrder != out[j].DisplayOrder {
			return out[i].DisplayOrder < out[j].DisplayOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (c *Composer) imageURL(ctx context.Context, path string) string {
	if strings.TrimSpace(path) == "" {
		return ""
	}
	resolved, ok := c.images.ResolveImage(ctx, path)
	if !ok {
		return ""
	}
	return resolved
}

func resolveCTA(cta sections.CallToAction, lang i18n.Language) *CallToAction {
	if !cta.Present() {
		return nil
	}
	return &CallToAction{Text: i18n.Resolve(cta.Text, "cta_text", lang), Link: strings.TrimSpace(cta.Link)}
}
