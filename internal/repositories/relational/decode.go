// Package relational implements the storefront repositories on top of the
// backend-neutral datastore client. Rows are decoded leniently: MySQL returns
// tinyint flags and byte strings, Firestore and Mongo return native types.
package relational

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/platform/textutil"
)

var localeSuffixes = []string{"", "_" + string(i18n.Macedonian), "_" + string(i18n.English)}

func str(row datastore.Row, key string) string {
	v, _ := textutil.String(row[key])
	return v
}

func optionalStr(row datastore.Row, key string) *string {
	v, ok := textutil.TrimmedString(row[key])
	if !ok {
		return nil
	}
	return &v
}

func boolean(row datastore.Row, key string) bool {
	v, _ := textutil.Bool(row[key])
	return v
}

func integer(row datastore.Row, key string) int {
	v, _ := textutil.Int(row[key])
	return v
}

// localized copies every "<base>", "<base>_mk" and "<base>_en" column present on row.
func localized(row datastore.Row, bases ...string) i18n.Fields {
	var fields i18n.Fields
	for _, base := range bases {
		for _, suffix := range localeSuffixes {
			if v, ok := textutil.String(row[base+suffix]); ok {
				fields.Set(base+suffix, v)
			}
		}
	}
	return fields
}

// prefixed is localized for joined columns such as category_name_mk, stored under the unprefixed key.
func prefixed(row datastore.Row, prefix, base string) i18n.Fields {
	var fields i18n.Fields
	for _, suffix := range localeSuffixes {
		if v, ok := textutil.String(row[prefix+base+suffix]); ok {
			fields.Set(base+suffix, v)
		}
	}
	return fields
}

func nullDecimal(value any) decimal.NullDecimal {
	switch v := value.(type) {
	case decimal.Decimal:
		return decimal.NewNullDecimal(v)
	case float64:
		return decimal.NewNullDecimal(decimal.NewFromFloat(v))
	}
	s, ok := textutil.TrimmedString(value)
	if !ok {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// configMap accepts a decoded object or JSON text (json/jsonb columns scanned as strings).
func configMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case nil:
		return map[string]any{}
	}
	s, ok := textutil.TrimmedString(value)
	if !ok {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil || out == nil {
		return map[string]any{}
	}
	return out
}

func decodeProduct(row datastore.Row) domain.Product {
	created, _ := textutil.Time(row["created_at"])
	return domain.Product{
		ID:           str(row, "id"),
		Text:         localized(row, "name", "description"),
		CategoryID:   str(row, "category_id"),
		Price:        nullDecimal(row["price"]),
		SalePrice:    nullDecimal(row["sale_price"]),
		IsOnSale:     boolean(row, "is_on_sale"),
		IsBestSeller: boolean(row, "is_best_seller"),
		Status:       domain.ProductStatus(strings.ToLower(strings.TrimSpace(str(row, "status")))),
		IsVisible:    boolean(row, "is_visible"),
		DisplayOrder: integer(row, "display_order"),
		CreatedAt:    created,
	}
}

func decodeProductWithDetails(row datastore.Row) domain.ProductWithDetails {
	slug, _ := textutil.TrimmedString(row["category_slug"])
	image, _ := textutil.TrimmedString(row["primary_image_path"])
	return domain.ProductWithDetails{
		Product:          decodeProduct(row),
		CategoryText:     prefixed(row, "category_", "name"),
		CategorySlug:     slug,
		PrimaryImagePath: image,
	}
}

func decodeCategory(row datastore.Row) domain.Category {
	return domain.Category{
		ID:           str(row, "id"),
		Text:         localized(row, "name", "description"),
		Slug:         strings.TrimSpace(str(row, "slug")),
		ImagePath:    strings.TrimSpace(str(row, "image_path")),
		DisplayOrder: integer(row, "display_order"),
		IsVisible:    boolean(row, "is_visible"),
	}
}

func decodeOccasion(row datastore.Row) domain.Occasion {
	return domain.Occasion(decodeCategory(row))
}

func decodeSection(row datastore.Row) domain.Section {
	created, _ := textutil.Time(row["created_at"])
	return domain.Section{
		ID:              str(row, "id"),
		Type:            domain.SectionType(strings.ToLower(strings.TrimSpace(str(row, "type")))),
		Text:            localized(row, "title", "subtitle"),
		LayoutStyle:     str(row, "layout_style"),
		ItemShape:       str(row, "item_shape"),
		Config:          configMap(row["config"]),
		BackgroundColor: str(row, "background_color"),
		TextColor:       str(row, "text_color"),
		PaddingY:        str(row, "padding_y"),
		DisplayOrder:    integer(row, "display_order"),
		IsActive:        boolean(row, "is_active"),
		CreatedAt:       created,
	}
}

func decodeSectionItem(row datastore.Row) domain.SectionItem {
	return domain.SectionItem{
		ID:              str(row, "id"),
		SectionID:       str(row, "section_id"),
		Text:            localized(row, "title", "subtitle"),
		ImagePath:       strings.TrimSpace(str(row, "image_path")),
		Link:            optionalStr(row, "link"),
		Icon:            optionalStr(row, "icon"),
		BackgroundColor: str(row, "background_color"),
		TextColor:       str(row, "text_color"),
		DisplayOrder:    integer(row, "display_order"),
		IsActive:        boolean(row, "is_active"),
	}
}
