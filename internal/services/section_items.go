package services

import (
	"sort"
	"strings"
)

// ResolveItems returns the active items owned by sectionID ordered by
// (display_order, id). The input slice is not modified.
func ResolveItems(items []SectionItem, sectionID string) []SectionItem {
	sectionID = strings.TrimSpace(sectionID)
	out := make([]SectionItem, 0, len(items))
	for _, item := range items {
		if item.IsActive && item.SectionID == sectionID {
			out = append(out, item)
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

// orderSections returns the active sections ordered by (display_order, id).
func orderSections(sections []Section) []Section {
	out := make([]Section, 0, len(sections))
	for _, s := range sections {
		if s.IsActive {
			out = append(out, s)
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
