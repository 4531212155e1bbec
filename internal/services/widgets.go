package services

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/sections"
)

// Homepage is a composed, localized homepage.
type Homepage struct {
	Language    i18n.Language
	Widgets     []Widget
	GeneratedAt time.Time
}

// Widget is the render-ready form of one section. Exactly one of Products,
// Items, Tiles or Media is populated, depending on Type.
type Widget struct {
	SectionID    string
	Type         domain.SectionType
	Title        string
	Subtitle     string
	Layout       sections.LayoutStyle
	Shape        sections.ItemShape
	Presentation Presentation
	Config       sections.Config
	Products     []ProductCard
	Items        []ItemCard
	Tiles        []Tile
	Media        *Media
}

// Presentation carries the section's style overrides verbatim.
type Presentation struct {
	BackgroundColor string
	TextColor       string
	PaddingY        string
}

// ProductCard is a localized product tile. Prices are omitted when the grid
// hides them; PriceOnRequest marks products without any price.
type ProductCard struct {
	ID             string
	Name           string
	Description    string
	CategoryName   string
	CategorySlug   string
	ImageURL       string
	Price          decimal.NullDecimal
	SalePrice      decimal.NullDecimal
	EffectivePrice decimal.NullDecimal
	PriceOnRequest bool
	IsOnSale       bool
	IsBestSeller   bool
	Badge          string
	InquiryLabel   string
}

// ItemCard is an explicit section item (tile, gallery image or trust badge).
type ItemCard struct {
	ID              string
	Title           string
	Subtitle        string
	ImageURL        string
	Link            string
	Icon            string
	BackgroundColor string
	TextColor       string
}

// Tile is a taxonomy entry rendered by a category grid without explicit items.
type Tile struct {
	ID       string
	Name     string
	Slug     string
	ImageURL string
	Link     string
}

// Media is the body of banner and text/image sections.
type Media struct {
	ImageURL    string
	Link        string
	ContentHTML string
	CTA         *CallToAction
}

// CallToAction is a resolved button.
type CallToAction struct {
	Text string
	Link string
}
