package sections

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
)

func TestParseConfigDefaults(t *testing.T) {
	gallery, ok := ParseConfig("gallery", map[string]any{}).(GalleryConfig)
	require.True(t, ok)
	require.Equal(t, DefaultGalleryColumns, gallery.Columns)

	grid, ok := ParseConfig("product_grid", nil).(ProductGridConfig)
	require.True(t, ok)
	require.Equal(t, ProductFilter{Kind: FilterFeatured}, grid.Filter)
	require.Equal(t, DefaultProductLimit, grid.Limit)
	require.True(t, grid.ShowPrice)
	require.True(t, grid.ShowBadge)
	require.False(t, grid.ShowInquiryButton)

	banner, ok := ParseConfig("banner", map[string]any{}).(BannerConfig)
	require.True(t, ok)
	require.Equal(t, "medium", banner.Height)
	require.Equal(t, "center", banner.TextPosition)
	require.Equal(t, DefaultOverlayOpacity, banner.OverlayOpacity)
	require.False(t, banner.CTA.Present())

	badges, ok := ParseConfig("trust_badges", map[string]any{"icon_size": "gigantic"}).(TrustBadgesConfig)
	require.True(t, ok)
	require.Equal(t, "medium", badges.IconSize)

	categories, ok := ParseConfig("category_grid", map[string]any{"category_type": 7}).(CategoryGridConfig)
	require.True(t, ok)
	require.Equal(t, CategoryTypeCategories, categories.CategoryType)
}

func TestParseConfigClamps(t *testing.T) {
	banner := ParseConfig("banner", map[string]any{"overlay_opacity": 500.0}).(BannerConfig)
	require.Equal(t, 100, banner.OverlayOpacity)

	banner = ParseConfig("banner", map[string]any{"overlay_opacity": -3}).(BannerConfig)
	require.Equal(t, 0, banner.OverlayOpacity)

	grid := ParseConfig("product_grid", map[string]any{"limit": "1000"}).(ProductGridConfig)
	require.Equal(t, MaxProductLimit, grid.Limit)

	grid = ParseConfig("product_grid", map[string]any{"limit": 0}).(ProductGridConfig)
	require.Equal(t, MinProductLimit, grid.Limit)

	gallery := ParseConfig("gallery", map[string]any{"columns": 12}).(GalleryConfig)
	require.Equal(t, 6, gallery.Columns)

	gallery = ParseConfig("gallery", map[string]any{"columns": json.Number("1")}).(GalleryConfig)
	require.Equal(t, 3, gallery.Columns)

	gallery = ParseConfig("gallery", map[string]any{"columns": "five"}).(GalleryConfig)
	require.Equal(t, DefaultGalleryColumns, gallery.Columns)
}

func TestParseConfigLooseTypes(t *testing.T) {
	grid := ParseConfig("product_grid", map[string]any{
		"filter":              " Category:Roses ",
		"limit":               "4",
		"show_price":          "false",
		"show_inquiry_button": "1",
		"unexpected":          []any{1, 2},
	}).(ProductGridConfig)

	require.Equal(t, ProductFilter{Kind: FilterCategory, CategorySlug: "roses"}, grid.Filter)
	require.Equal(t, 4, grid.Limit)
	require.False(t, grid.ShowPrice)
	require.True(t, grid.ShowInquiryButton)
}

func TestParseConfigLocalizedFields(t *testing.T) {
	cfg := ParseConfig("text_image", map[string]any{
		"image_position": "RIGHT",
		"content_mk":     "**Свежо** цвеќе",
		"content_en":     "**Fresh** flowers",
		"cta_text_en":    "Visit",
		"cta_link":       "/shop",
	}).(TextImageConfig)

	require.Equal(t, "right", cfg.ImagePosition)
	require.Equal(t, "**Fresh** flowers", i18n.Resolve(cfg.Content, "content", i18n.English))
	require.True(t, cfg.CTA.Present())
	require.Equal(t, "Visit", i18n.Resolve(cfg.CTA.Text, "cta_text", i18n.English))
	require.Equal(t, "", i18n.Resolve(cfg.CTA.Text, "cta_text", i18n.Macedonian))
}

func TestParseConfigUnknownType(t *testing.T) {
	cfg := ParseConfig("made_up_type", map[string]any{"anything": true})
	unknown, ok := cfg.(UnknownConfig)
	require.True(t, ok)
	require.Equal(t, domain.SectionType("made_up_type"), unknown.SectionType())
	require.False(t, unknown.SectionType().Known())
}

func TestParseProductFilter(t *testing.T) {
	cases := map[string]ProductFilter{
		"best_seller":  {Kind: FilterBestSeller},
		"on_sale":      {Kind: FilterOnSale},
		"new_arrival":  {Kind: FilterNewArrival},
		"featured":     {Kind: FilterFeatured},
		"category:":    {Kind: FilterFeatured},
		"category:mix": {Kind: FilterCategory, CategorySlug: "mix"},
		"trending":     {Kind: FilterFeatured},
		"":             {Kind: FilterFeatured},
	}
	for input, want := range cases {
		require.Equal(t, want, ParseProductFilter(input), "input %q", input)
	}
	require.Equal(t, "category:mix", ProductFilter{Kind: FilterCategory, CategorySlug: "mix"}.String())
}

func TestParseLayoutAndShape(t *testing.T) {
	require.Equal(t, LayoutStyle("grid-3"), ParseLayout("grid-3"))
	require.Equal(t, 3, ParseLayout("grid-3").Columns())
	require.Equal(t, LayoutCarousel, ParseLayout(" Carousel "))
	require.Equal(t, DefaultLayout, ParseLayout("grid-9"))
	require.Equal(t, DefaultLayout, ParseLayout(""))
	require.Equal(t, 0, LayoutList.Columns())

	require.Equal(t, ShapeCircle, ParseShape("circle"))
	require.Equal(t, DefaultShape, ParseShape("hexagon"))
}
