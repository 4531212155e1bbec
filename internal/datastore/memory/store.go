// Package memory is an in-process datastore backend seeded from YAML fixtures.
// It backs local development and deterministic tests.
package memory

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
	"github.com/Micevski239/gerbera-sub000/internal/platform/textutil"
)

// Store keeps tables as slices of rows.
type Store struct {
	mu       sync.RWMutex
	tables   map[string][]datastore.Row
	failures map[string]error
	selects  int
}

var _ datastore.Client = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{tables: map[string][]datastore.Row{}, failures: map[string]error{}}
}

// Insert appends rows to table.
func (s *Store) Insert(table string, rows ...datastore.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range rows {
		s.tables[table] = append(s.tables[table], copyRow(row))
	}
}

// Replace swaps the contents of table.
func (s *Store) Replace(table string, rows []datastore.Row) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]datastore.Row, len(rows))
	for i, row := range rows {
		copied[i] = copyRow(row)
	}
	s.tables[table] = copied
}

// FailWith makes every select against table return err until cleared with a nil err.
func (s *Store) FailWith(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, table)
		return
	}
	s.failures[table] = err
}

// Selects reports how many selects have been served.
func (s *Store) Selects() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selects
}

// Select implements datastore.Client.
func (s *Store) Select(ctx context.Context, q datastore.Query) (datastore.Result, error) {
	if err := ctx.Err(); err != nil {
		return datastore.Result{}, err
	}
	s.mu.Lock()
	s.selects++
	failure := s.failures[q.Table]
	var rows []datastore.Row
	if q.Table == datastore.TableProductsWithDetail && len(s.tables[q.Table]) == 0 {
		rows = s.productDetailsLocked()
	} else {
		rows = s.tables[q.Table]
	}
	s.mu.Unlock()

	if failure != nil {
		return datastore.Result{}, datastore.WrapError("select "+q.Table, failure, datastore.CategoryUnavailable)
	}
	return datastore.Evaluate(rows, q)
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// productDetailsLocked joins products with their category and primary image,
// mirroring the products_with_details view of the relational schema.
func (s *Store) productDetailsLocked() []datastore.Row {
	categories := make(map[string]datastore.Row, len(s.tables[datastore.TableCategories]))
	for _, c := range s.tables[datastore.TableCategories] {
		if id, ok := textutil.String(c["id"]); ok {
			categories[id] = c
		}
	}

	images := map[string][]datastore.Row{}
	for _, img := range s.tables[datastore.TableProductImages] {
		if pid, ok := textutil.String(img["product_id"]); ok {
			images[pid] = append(images[pid], img)
		}
	}

	out := make([]datastore.Row, 0, len(s.tables[datastore.TableProducts]))
	for _, p := range s.tables[datastore.TableProducts] {
		row := copyRow(p)
		if cid, ok := textutil.String(p["category_id"]); ok {
			if c, ok := categories[cid]; ok {
				for _, key := range []string{"name", "name_mk", "name_en"} {
					if v, ok := c[key]; ok {
						row["category_"+key] = v
					}
				}
				row["category_slug"] = c["slug"]
			}
		}
		if pid, ok := textutil.String(p["id"]); ok {
			if path := primaryImage(images[pid]); path != "" {
				row["primary_image_path"] = path
			}
		}
		out = append(out, row)
	}
	return out
}

func primaryImage(images []datastore.Row) string {
	if len(images) == 0 {
		return ""
	}
	sorted := make([]datastore.Row, len(images))
	copy(sorted, images)
	sort.SliceStable(sorted, func(i, j int) bool {
		pi, _ := textutil.Bool(sorted[i]["is_primary"])
		pj, _ := textutil.Bool(sorted[j]["is_primary"])
		if pi != pj {
			return pi
		}
		oi, _ := textutil.Int(sorted[i]["display_order"])
		oj, _ := textutil.Int(sorted[j]["display_order"])
		return oi < oj
	})
	path, _ := textutil.TrimmedString(sorted[0]["image_path"])
	return path
}

// LoadFixtures seeds the store from a YAML document mapping table names to
// lists of rows.
func (s *Store) LoadFixtures(r io.Reader) error {
	var doc map[string][]map[string]any
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return fmt.Errorf("memory: decode fixtures: %w", err)
	}
	for table, rows := range doc {
		converted := make([]datastore.Row, len(rows))
		for i, row := range rows {
			converted[i] = datastore.Row(row)
		}
		s.Replace(table, converted)
	}
	return nil
}

// LoadFixturesFile opens path and calls LoadFixtures.
func (s *Store) LoadFixturesFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("memory: open fixtures: %w", err)
	}
	defer f.Close()
	return s.LoadFixtures(f)
}

func copyRow(row datastore.Row) datastore.Row {
	out := make(datastore.Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
