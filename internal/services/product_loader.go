package services

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// LoaderState is the lifecycle of a ProductLoader.
type LoaderState string

const (
	StateIdle    LoaderState = "idle"
	StateLoading LoaderState = "loading"
	StateLoaded  LoaderState = "loaded"
	StateError   LoaderState = "error"
)

var (
	// ErrLoadInProgress is returned by LoadMore while another page request is outstanding.
	ErrLoadInProgress = errors.New("product loader: a page request is already in flight")
	// ErrLoadSuperseded is returned to a caller whose response arrived after a newer request started.
	ErrLoadSuperseded = errors.New("product loader: request superseded")
	// ErrProductQuerierMissing indicates the loader was built without a querier.
	ErrProductQuerierMissing = errors.New("product loader: querier is required")
)

// ProductQuerier runs catalog queries; CatalogService satisfies it.
type ProductQuerier interface {
	QueryProducts(ctx context.Context, query CatalogQuery) (ProductPage, error)
}

// LoaderSnapshot is a consistent copy of the loader state.
type LoaderSnapshot struct {
	State    LoaderState
	Query    CatalogQuery
	Items    []Product
	Total    int
	HasMore  bool
	NextPage int
	// Generation identifies the request that produced the current state.
	Generation string
	Err        error
	Retryable  bool
}

// Empty reports a successful load with zero results.
func (s LoaderSnapshot) Empty() bool {
	return s.State == StateLoaded && len(s.Items) == 0
}

// ProductLoader accumulates catalog pages for one consumer. It allows one
// outstanding page request at a time; Refresh and FilterChanged supersede any
// outstanding request and its response is discarded.
type ProductLoader struct {
	querier ProductQuerier
	clock   func() time.Time

	mu         sync.Mutex
	entropy    io.Reader
	query      CatalogQuery
	state      LoaderState
	items      []Product
	total      int
	hasMore    bool
	nextPage   int
	replace    bool
	inflight   bool
	generation ulid.ULID
	err        error
}

// LoaderOption customises a ProductLoader.
type LoaderOption func(*ProductLoader)

// WithLoaderClock injects the clock used for generation tokens.
func WithLoaderClock(clock func() time.Time) LoaderOption {
	return func(l *ProductLoader) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// NewProductLoader returns an idle loader for query. Page in query is ignored.
func NewProductLoader(querier ProductQuerier, query CatalogQuery, opts ...LoaderOption) (*ProductLoader, error) {
	if querier == nil {
		return nil, ErrProductQuerierMissing
	}
	l := &ProductLoader{
		querier: querier,
		clock:   time.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
		query:   query,
		state:   StateIdle,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l, nil
}

// Refresh reloads page 0 with the current criteria. Loaded items stay visible
// until the new first page arrives.
func (l *ProductLoader) Refresh(ctx context.Context) (LoaderSnapshot, error) {
	l.mu.Lock()
	l.replace = true
	l.nextPage = 0
	req := l.beginLocked()
	l.mu.Unlock()
	return l.run(ctx, req)
}

// FilterChanged switches criteria, drops accumulated items and loads page 0.
func (l *ProductLoader) FilterChanged(ctx context.Context, query CatalogQuery) (LoaderSnapshot, error) {
	l.mu.Lock()
	l.query = query
	l.items = nil
	l.total = 0
	l.hasMore = false
	l.nextPage = 0
	l.replace = true
	req := l.beginLocked()
	l.mu.Unlock()
	return l.run(ctx, req)
}

// LoadMore fetches the next page and appends it. From idle it loads the first
// page; after an error it retries the failed page. With nothing more to load it
// returns the current snapshot without querying.
func (l *ProductLoader) LoadMore(ctx context.Context) (LoaderSnapshot, error) {
	l.mu.Lock()
	if l.inflight {
		snap := l.snapshotLocked()
		l.mu.Unlock()
		return snap, ErrLoadInProgress
	}
	if l.state == StateLoaded && !l.hasMore {
		snap := l.snapshotLocked()
		l.mu.Unlock()
		return snap, nil
	}
	if l.state == StateIdle {
		l.replace = true
	}
	req := l.beginLocked()
	l.mu.Unlock()
	return l.run(ctx, req)
}

// Snapshot returns the current state.
func (l *ProductLoader) Snapshot() LoaderSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

type loadRequest struct {
	generation ulid.ULID
	query      CatalogQuery
}

func (l *ProductLoader) beginLocked() loadRequest {
	l.generation = ulid.MustNew(ulid.Timestamp(l.clock()), l.entropy)
	l.inflight = true
	l.state = StateLoading
	q := l.query
	q.Page = l.nextPage
	return loadRequest{generation: l.generation, query: q}
}

func (l *ProductLoader) run(ctx context.Context, req loadRequest) (LoaderSnapshot, error) {
	page, err := l.querier.QueryProducts(ctx, req.query)

	l.mu.Lock()
	defer l.mu.Unlock()
	if req.generation != l.generation {
		return l.snapshotLocked(), ErrLoadSuperseded
	}
	l.inflight = false
	if err != nil {
		l.state = StateError
		l.err = err
		return l.snapshotLocked(), err
	}
	if l.replace {
		l.items = nil
		l.replace = false
	}
	l.items = append(l.items, page.Items...)
	l.total = page.Total
	l.hasMore = page.HasMore
	l.nextPage = req.query.Page + 1
	l.state = StateLoaded
	l.err = nil
	return l.snapshotLocked(), nil
}

func (l *ProductLoader) snapshotLocked() LoaderSnapshot {
	items := make([]Product, len(l.items))
	copy(items, l.items)
	snap := LoaderSnapshot{
		State:     l.state,
		Query:     l.query,
		Items:     items,
		Total:     l.total,
		HasMore:   l.hasMore,
		NextPage:  l.nextPage,
		Err:       l.err,
		Retryable: l.state == StateError,
	}
	if l.generation != (ulid.ULID{}) {
		snap.Generation = l.generation.String()
	}
	return snap
}
