package sections

import (
	"strconv"
	"strings"
)

// LayoutStyle controls how a section arranges its entries.
type LayoutStyle string

const (
	LayoutCarousel LayoutStyle = "carousel"
	LayoutList     LayoutStyle = "list"

	DefaultLayout LayoutStyle = "grid-4"
)

// ParseLayout accepts "grid-2" through "grid-6", "carousel" and "list".
func ParseLayout(value string) LayoutStyle {
	value = strings.ToLower(strings.TrimSpace(value))
	switch LayoutStyle(value) {
	case LayoutCarousel, LayoutList:
		return LayoutStyle(value)
	}
	if n, ok := strings.CutPrefix(value, "grid-"); ok {
		if cols, err := strconv.Atoi(n); err == nil && cols >= 2 && cols <= 6 {
			return LayoutStyle(value)
		}
	}
	return DefaultLayout
}

// Columns returns the grid arity, or zero for non-grid layouts.
func (l LayoutStyle) Columns() int {
	n, ok := strings.CutPrefix(string(l), "grid-")
	if !ok {
		return 0
	}
	cols, err := strconv.Atoi(n)
	if err != nil {
		return 0
	}
	return cols
}

// ItemShape is the tile shape used by item-based sections.
type ItemShape string

const (
	ShapeSquare    ItemShape = "square"
	ShapeCircle    ItemShape = "circle"
	ShapeRectangle ItemShape = "rectangle"
	ShapeCard      ItemShape = "card"

	DefaultShape = ShapeCard
)

// ParseShape returns the shape or the card default.
func ParseShape(value string) ItemShape {
	switch s := ItemShape(strings.ToLower(strings.TrimSpace(value))); s {
	case ShapeSquare, ShapeCircle, ShapeRectangle, ShapeCard:
		return s
	default:
		return DefaultShape
	}
}
