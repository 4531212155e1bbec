// Package sections turns the loosely typed configuration payload of a homepage
// section into a typed configuration. Parsing never fails: missing, malformed
// or out-of-range values degrade to documented defaults.
package sections

import (
	"strings"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/platform/textutil"
)

const (
	DefaultProductLimit   = 8
	MinProductLimit       = 1
	MaxProductLimit       = 48
	DefaultGalleryColumns = 4
	DefaultOverlayOpacity = 40
	MaxOverlayOpacity     = 100
	DefaultProductColumns = 4
)

// Config is the typed configuration of one section. The concrete type is one
// of the *Config structs in this package.
type Config interface {
	SectionType() domain.SectionType
	isConfig()
}

// ProductFilterKind names the product selection rule of a product grid.
type ProductFilterKind string

const (
	FilterFeatured   ProductFilterKind = "featured"
	FilterBestSeller ProductFilterKind = "best_seller"
	FilterOnSale     ProductFilterKind = "on_sale"
	FilterNewArrival ProductFilterKind = "new_arrival"
	FilterCategory   ProductFilterKind = "category"
)

// ProductFilter selects products for a product grid. CategorySlug is set only
// for FilterCategory.
type ProductFilter struct {
	Kind         ProductFilterKind
	CategorySlug string
}

// String renders the filter in its stored form.
func (f ProductFilter) String() string {
	if f.Kind == FilterCategory {
		return string(FilterCategory) + ":" + f.CategorySlug
	}
	return string(f.Kind)
}

// ParseProductFilter parses "best_seller", "on_sale", "new_arrival", "featured"
// or "category:<slug>". Anything else yields the featured filter.
func ParseProductFilter(value string) ProductFilter {
	value = strings.ToLower(strings.TrimSpace(value))
	if slug, ok := strings.CutPrefix(value, string(FilterCategory)+":"); ok {
		if slug = strings.TrimSpace(slug); slug != "" {
			return ProductFilter{Kind: FilterCategory, CategorySlug: slug}
		}
		return ProductFilter{Kind: FilterFeatured}
	}
	switch ProductFilterKind(value) {
	case FilterBestSeller, FilterOnSale, FilterNewArrival, FilterFeatured:
		return ProductFilter{Kind: ProductFilterKind(value)}
	default:
		return ProductFilter{Kind: FilterFeatured}
	}
}

// CallToAction is an optional localized button.
type CallToAction struct {
	Text i18n.Fields
	Link string
}

// Present reports whether the button should render at all.
func (c CallToAction) Present() bool {
	return strings.TrimSpace(c.Link) != ""
}

type ProductGridConfig struct {
	Filter            ProductFilter
	Limit             int
	ShowPrice         bool
	ShowBadge         bool
	ShowInquiryButton bool
	Columns           int
}

type CategoryType string

const (
	CategoryTypeCategories CategoryType = "categories"
	CategoryTypeOccasions  CategoryType = "occasions"
	CategoryTypeCustom     CategoryType = "custom"
)

type CategoryGridConfig struct {
	CategoryType CategoryType
}

type BannerConfig struct {
	ImagePath      string
	Link           string
	Height         string
	TextPosition   string
	OverlayOpacity int
	CTA            CallToAction
}

type TextImageConfig struct {
	ImagePosition string
	ImagePath     string
	Content       i18n.Fields
	CTA           CallToAction
}

type GalleryConfig struct {
	Columns int
}

type TrustBadgesConfig struct {
	IconSize string
}

// UnknownConfig is returned for section types without a renderer.
type UnknownConfig struct {
	Type string
}

func (ProductGridConfig) SectionType() domain.SectionType  { return domain.SectionTypeProductGrid }
func (CategoryGridConfig) SectionType() domain.SectionType { return domain.SectionTypeCategoryGrid }
func (BannerConfig) SectionType() domain.SectionType       { return domain.SectionTypeBanner }
func (TextImageConfig) SectionType() domain.SectionType    { return domain.SectionTypeTextImage }
func (GalleryConfig) SectionType() domain.SectionType      { return domain.SectionTypeGallery }
func (TrustBadgesConfig) SectionType() domain.SectionType  { return domain.SectionTypeTrustBadges }
func (c UnknownConfig) SectionType() domain.SectionType    { return domain.SectionType(c.Type) }

func (ProductGridConfig) isConfig()  {}
func (CategoryGridConfig) isConfig() {}
func (BannerConfig) isConfig()       {}
func (TextImageConfig) isConfig()    {}
func (GalleryConfig) isConfig()      {}
func (TrustBadgesConfig) isConfig()  {}
func (UnknownConfig) isConfig()      {}

var (
	bannerHeights  = []string{"small", "medium", "large", "full"}
	textPositions  = []string{"left", "center", "right"}
	imagePositions = []string{"left", "right"}
	iconSizes      = []string{"small", "medium", "large"}
	galleryColumns = []int{3, 4, 5, 6}
	productColumns = []int{2, 3, 4, 5, 6}
	categoryTypes  = []string{string(CategoryTypeCategories), string(CategoryTypeOccasions), string(CategoryTypeCustom)}
)

// ParseConfig builds the typed configuration for sectionType from raw. It is
// total: unknown keys are ignored and invalid values fall back to defaults.
func ParseConfig(sectionType string, raw map[string]any) Config {
	r := reader(raw)
	switch domain.SectionType(strings.TrimSpace(sectionType)) {
	case domain.SectionTypeProductGrid:
		filterName, _ := r.str("filter")
		return ProductGridConfig{
			Filter:            ParseProductFilter(filterName),
			Limit:             r.clampedInt("limit", DefaultProductLimit, MinProductLimit, MaxProductLimit),
			ShowPrice:         r.boolean("show_price", true),
			ShowBadge:         r.boolean("show_badge", true),
			ShowInquiryButton: r.boolean("show_inquiry_button", false),
			Columns:           r.snappedInt("columns", productColumns, DefaultProductColumns),
		}
	case domain.SectionTypeCategoryGrid:
		return CategoryGridConfig{
			CategoryType: CategoryType(r.oneOf("category_type", categoryTypes, string(CategoryTypeCategories))),
		}
	case domain.SectionTypeBanner:
		imagePath, _ := r.str("image_path")
		link, _ := r.str("link")
		return BannerConfig{
			ImagePath:      imagePath,
			Link:           link,
			Height:         r.oneOf("height", bannerHeights, "medium"),
			TextPosition:   r.oneOf("text_position", textPositions, "center"),
			OverlayOpacity: r.clampedInt("overlay_opacity", DefaultOverlayOpacity, 0, MaxOverlayOpacity),
			CTA:            r.cta(),
		}
	case domain.SectionTypeTextImage:
		imagePath, _ := r.str("image_path")
		return TextImageConfig{
			ImagePosition: r.oneOf("image_position", imagePositions, "left"),
			ImagePath:     imagePath,
			Content:       r.localized("content"),
			CTA:           r.cta(),
		}
	case domain.SectionTypeGallery:
		return GalleryConfig{Columns: r.snappedInt("columns", galleryColumns, DefaultGalleryColumns)}
	case domain.SectionTypeTrustBadges:
		return TrustBadgesConfig{IconSize: r.oneOf("icon_size", iconSizes, "medium")}
	default:
		return UnknownConfig{Type: sectionType}
	}
}

type reader map[string]any

func (r reader) str(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	return textutil.TrimmedString(r[key])
}

func (r reader) boolean(key string, fallback bool) bool {
	if r == nil {
		return fallback
	}
	if v, ok := textutil.Bool(r[key]); ok {
		return v
	}
	return fallback
}

func (r reader) clampedInt(key string, fallback, lo, hi int) int {
	if r == nil {
		return fallback
	}
	v, ok := textutil.Int(r[key])
	if !ok {
		return fallback
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (r reader) oneOf(key string, allowed []string, fallback string) string {
	v, ok := r.str(key)
	if !ok {
		return fallback
	}
	v = strings.ToLower(v)
	for _, candidate := range allowed {
		if v == candidate {
			return v
		}
	}
	return fallback
}

// snappedInt maps the value to the nearest allowed entry; ties go to the
// smaller entry. allowed must be sorted ascending.
func (r reader) snappedInt(key string, allowed []int, fallback int) int {
	if r == nil {
		return fallback
	}
	v, ok := textutil.Int(r[key])
	if !ok {
		return fallback
	}
	best := allowed[0]
	for _, candidate := range allowed[1:] {
		if abs(candidate-v) < abs(best-v) {
			best = candidate
		}
	}
	return best
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// localized collects "<base>", "<base>_mk" and "<base>_en" string entries.
func (r reader) localized(base string) i18n.Fields {
	var out i18n.Fields
	keys := []string{base}
	for _, lang := range i18n.Supported() {
		keys = append(keys, base+"_"+string(lang))
	}
	for _, key := range keys {
		if v, ok := i18n.MapSource(r).Field(key); ok {
			out.Set(key, v)
		}
	}
	return out
}

func (r reader) cta() CallToAction {
	link, _ := r.str("cta_link")
	return CallToAction{Text: r.localized("cta_text"), Link: link}
}
