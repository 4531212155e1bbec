package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Micevski239/gerbera-sub000/internal/sections"
	"github.com/Micevski239/gerbera-sub000/internal/services"
)

type homepageResponse struct {
	Language    string          `json:"language"`
	GeneratedAt string          `json:"generated_at"`
	Widgets     []widgetPayload `json:"widgets"`
}

type widgetPayload struct {
	SectionID    string               `json:"section_id"`
	Type         string               `json:"type"`
	Title        string               `json:"title,omitempty"`
	Subtitle     string               `json:"subtitle,omitempty"`
	Layout       string               `json:"layout"`
	Columns      int                  `json:"columns,omitempty"`
	Shape        string               `json:"shape"`
	Presentation presentationPayload  `json:"presentation"`
	Settings     map[string]any       `json:"settings,omitempty"`
	Products     []productCardPayload `json:"products,omitempty"`
	Items        []itemCardPayload    `json:"items,omitempty"`
	Tiles        []tilePayload        `json:"tiles,omitempty"`
	Media        *mediaPayload        `json:"media,omitempty"`
}

type presentationPayload struct {
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	PaddingY        string `json:"padding_y,omitempty"`
}

type productCardPayload struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	CategoryName   string  `json:"category_name,omitempty"`
	CategorySlug   string  `json:"category_slug,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	Price          *string `json:"price,omitempty"`
	SalePrice      *string `json:"sale_price,omitempty"`
	EffectivePrice *string `json:"effective_price,omitempty"`
	PriceOnRequest bool    `json:"price_on_request"`
	IsOnSale       bool    `json:"is_on_sale"`
	IsBestSeller   bool    `json:"is_best_seller"`
	Badge          string  `json:"badge,omitempty"`
	InquiryLabel   string  `json:"inquiry_label,omitempty"`
}

type itemCardPayload struct {
	ID              string `json:"id"`
	Title           string `json:"title,omitempty"`
	Subtitle        string `json:"subtitle,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	Link            string `json:"link,omitempty"`
	Icon            string `json:"icon,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
}

type tilePayload struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"image_url,omitempty"`
	Link     string `json:"link"`
}

type mediaPayload struct {
	ImageURL    string      `json:"image_url,omitempty"`
	Link        string      `json:"link,omitempty"`
	ContentHTML string      `json:"content_html,omitempty"`
	CTA         *ctaPayload `json:"cta,omitempty"`
}

type ctaPayload struct {
	Text string `json:"text"`
	Link string `json:"link"`
}

type productListResponse struct {
	Products []productPayload `json:"products"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
	HasMore  bool             `json:"has_more"`
}

type shopResponse struct {
	Products    []productPayload   `json:"products"`
	Total       int                `json:"total"`
	PriceBounds priceBoundsPayload `json:"price_bounds"`
	GeneratedAt string             `json:"generated_at"`
}

type priceBoundsPayload struct {
	Min *string `json:"min"`
	Max *string `json:"max"`
}

type productPayload struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description,omitempty"`
	CategoryName   string  `json:"category_name,omitempty"`
	CategorySlug   string  `json:"category_slug,omitempty"`
	ImageURL       string  `json:"image_url,omitempty"`
	Price          *string `json:"price"`
	SalePrice      *string `json:"sale_price,omitempty"`
	EffectivePrice *string `json:"effective_price"`
	PriceOnRequest bool    `json:"price_on_request"`
	IsOnSale       bool    `json:"is_on_sale"`
	IsBestSeller   bool    `json:"is_best_seller"`
	CreatedAt      string  `json:"created_at,omitempty"`
}

type taxonomyPayload struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Slug         string `json:"slug"`
	ImageURL     string `json:"image_url,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

type categoryListResponse struct {
	Categories []taxonomyPayload `json:"categories"`
}

type occasionListResponse struct {
	Occasions []taxonomyPayload `json:"occasions"`
}

type sectionItemPayload struct {
	ID              string `json:"id"`
	SectionID       string `json:"section_id"`
	Title           string `json:"title,omitempty"`
	Subtitle        string `json:"subtitle,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	Link            string `json:"link,omitempty"`
	Icon            string `json:"icon,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	DisplayOrder    int    `json:"display_order"`
}

type sectionItemListResponse struct {
	Items []sectionItemPayload `json:"items"`
}

func newHomepageResponse(page services.Homepage) homepageResponse {
	widgets := make([]widgetPayload, 0, len(page.Widgets))
	for _, w := range page.Widgets {
		widgets = append(widgets, newWidgetPayload(w))
	}
	return homepageResponse{
		Language:    string(page.Language),
		GeneratedAt: formatTimestamp(page.GeneratedAt),
		Widgets:     widgets,
	}
}

func newWidgetPayload(w services.Widget) widgetPayload {
	payload := widgetPayload{
		SectionID: w.SectionID,
		Type:      string(w.Type),
		Title:     w.Title,
		Subtitle:  w.Subtitle,
		Layout:    string(w.Layout),
		Columns:   w.Layout.Columns(),
		Shape:     string(w.Shape),
		Presentation: presentationPayload{
			BackgroundColor: w.Presentation.BackgroundColor,
			TextColor:       w.Presentation.TextColor,
			PaddingY:        w.Presentation.PaddingY,
		},
		Settings: widgetSettings(w.Config),
	}
	for _, card := range w.Products {
		payload.Products = append(payload.Products, productCardPayload{
			ID:             card.ID,
			Name:           card.Name,
			Description:    card.Description,
			CategoryName:   card.CategoryName,
			CategorySlug:   card.CategorySlug,
			ImageURL:       card.ImageURL,
			Price:          formatPrice(card.Price),
			SalePrice:      formatPrice(card.SalePrice),
			EffectivePrice: formatPrice(card.EffectivePrice),
			PriceOnRequest: card.PriceOnRequest,
			IsOnSale:       card.IsOnSale,
			IsBestSeller:   card.IsBestSeller,
			Badge:          card.Badge,
			InquiryLabel:   card.InquiryLabel,
		})
	}
	for _, item := range w.Items {
		payload.Items = append(payload.Items, itemCardPayload(item))
	}
	for _, tile := range w.Tiles {
		payload.Tiles = append(payload.Tiles, tilePayload(tile))
	}
	if w.Media != nil {
		media := &mediaPayload{ImageURL: w.Media.ImageURL, Link: w.Media.Link, ContentHTML: w.Media.ContentHTML}
		if w.Media.CTA != nil {
			media.CTA = &ctaPayload{Text: w.Media.CTA.Text, Link: w.Media.CTA.Link}
		}
		payload.Media = media
	}
	return payload
}

// widgetSettings flattens the typed section configuration for clients.
func widgetSettings(cfg sections.Config) map[string]any {
	switch c := cfg.(type) {
	case sections.ProductGridConfig:
		return map[string]any{
			"filter":              c.Filter.String(),
			"limit":               c.Limit,
			"columns":             c.Columns,
			"show_price":          c.ShowPrice,
			"show_badge":          c.ShowBadge,
			"show_inquiry_button": c.ShowInquiryButton,
		}
	case sections.CategoryGridConfig:
		return map[string]any{"category_type": string(c.CategoryType)}
	case sections.BannerConfig:
		return map[string]any{
			"height":          c.Height,
			"text_position":   c.TextPosition,
			"overlay_opacity": c.OverlayOpacity,
		}
	case sections.TextImageConfig:
		return map[string]any{"image_position": c.ImagePosition}
	case sections.GalleryConfig:
		return map[string]any{"columns": c.Columns}
	case sections.TrustBadgesConfig:
		return map[string]any{"icon_size": c.IconSize}
	default:
		return nil
	}
}

func formatPrice(value decimal.NullDecimal) *string {
	if !value.Valid {
		return nil
	}
	s := value.Decimal.StringFixed(2)
	return &s
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
