package relational

import (
	"context"
	"fmt"
	"strings"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/repositories"
)

// ContentRepository reads homepage sections and items through a datastore.Client.
type ContentRepository struct {
	client datastore.Client
}

var _ repositories.ContentRepository = (*ContentRepository)(nil)

// NewContentRepository constructs a content repository.
func NewContentRepository(client datastore.Client) (*ContentRepository, error) {
	if client == nil {
		return nil, errClientMissing
	}
	return &ContentRepository{client: client}, nil
}

func (r *ContentRepository) ListSections(ctx context.Context, activeOnly bool) ([]domain.Section, error) {
	q := datastore.Query{
		Table:  datastore.TableSections,
		Orders: []datastore.Order{{Field: "display_order"}, {Field: "id"}},
	}
	if activeOnly {
		q.Filters = append(q.Filters, datastore.Eq("is_active", true))
	}
	res, err := r.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sections.list: %w", err)
	}
	out := make([]domain.Section, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, decodeSection(row))
	}
	return out, nil
}

func (r *ContentRepository) ListSectionItems(ctx context.Context, sectionID string) ([]domain.SectionItem, error) {
	q := datastore.Query{
		Table:  datastore.TableSectionItems,
		Orders: []datastore.Order{{Field: "section_id"}, {Field: "display_order"}, {Field: "id"}},
	}
	if id := strings.TrimSpace(sectionID); id != "" {
		q.Filters = append(q.Filters, datastore.Eq("section_id", id))
	}
	res, err := r.client.Select(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("section_items.list: %w", err)
	}
	out := make([]domain.SectionItem, 0, len(res.Rows))
	for _, row := range res.Rows {
		out = append(out, decodeSectionItem(row))
	}
	return out, nil
}
