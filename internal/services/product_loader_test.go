package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
	"github.com/Micevski239/gerbera-sub000/internal/datastore/memory"
	"github.com/Micevski239/gerbera-sub000/internal/domain"
)

// gatedQuerier blocks each call until the test replies to it.
type gatedQuerier struct {
	mu      sync.Mutex
	calls   []CatalogQuery
	started chan *gatedCall
}

type gatedCall struct {
	query CatalogQuery
	reply chan gatedResult
}

type gatedResult struct {
	page ProductPage
	err  error
}

func newGatedQuerier() *gatedQuerier {
	return &gatedQuerier{started: make(chan *gatedCall, 4)}
}

func (g *gatedQuerier) QueryProducts(_ context.Context, q CatalogQuery) (ProductPage, error) {
	g.mu.Lock()
	g.calls = append(g.calls, q)
	g.mu.Unlock()
	call := &gatedCall{query: q, reply: make(chan gatedResult, 1)}
	g.started <- call
	res := <-call.reply
	return res.page, res.err
}

func pageOf(page, size, total int, idList ...string) ProductPage {
	items := make([]Product, len(idList))
	for i, id := range idList {
		items[i] = testProduct(id, "1")
	}
	return domain.NewPage(items, total, page, size)
}

func TestProductLoaderAccumulatesPages(t *testing.T) {
	store := memory.New()
	for i := 0; i < 10; i++ {
		store.Insert(datastore.TableProducts, datastore.Row{
			"id":         fmt.Sprintf("p%02d", i),
			"status":     "published",
			"is_visible": true,
			"created_at": time.Date(2025, 1, 1, i, 0, 0, 0, time.UTC),
		})
	}
	svc := newMemoryCatalog(t, store)

	loader, err := NewProductLoader(svc, CatalogQuery{PageSize: 3})
	require.NoError(t, err)
	require.Equal(t, StateIdle, loader.Snapshot().State)

	var snap LoaderSnapshot
	for {
		snap, err = loader.LoadMore(context.Background())
		require.NoError(t, err)
		if !snap.HasMore {
			break
		}
	}
	require.Equal(t, StateLoaded, snap.State)
	require.Len(t, snap.Items, 10)
	require.Equal(t, 4, snap.NextPage)

	full, err := svc.QueryProducts(context.Background(), CatalogQuery{PageSize: 12})
	require.NoError(t, err)
	require.Equal(t, ids(full.Items), ids(snap.Items))

	before := store.Selects()
	again, err := loader.LoadMore(context.Background())
	require.NoError(t, err)
	require.Len(t, again.Items, 10)
	require.Equal(t, before, store.Selects(), "load more without more pages must not query")
}

func TestProductLoaderRejectsConcurrentLoadMore(t *testing.T) {
	q := newGatedQuerier()
	loader, _ := NewProductLoader(q, CatalogQuery{PageSize: 2})

	done := make(chan error, 1)
	go func() {
		_, err := loader.LoadMore(context.Background())
		done <- err
	}()
	call := <-q.started

	snap, err := loader.LoadMore(context.Background())
	require.ErrorIs(t, err, ErrLoadInProgress)
	require.Equal(t, StateLoading, snap.State)

	call.reply <- gatedResult{page: pageOf(0, 2, 3, "a", "b")}
	require.NoError(t, <-done)
	require.True(t, loader.Snapshot().HasMore)
}

func TestProductLoaderFilterChangedDiscardsStaleResponse(t *testing.T) {
	q := newGatedQuerier()
	loader, _ := NewProductLoader(q, CatalogQuery{PageSize: 2})

	stale := make(chan error, 1)
	go func() {
		_, err := loader.LoadMore(context.Background())
		stale <- err
	}()
	first := <-q.started

	slug := "wedding"
	type outcome struct {
		snap LoaderSnapshot
		err  error
	}
	fresh := make(chan outcome, 1)
	go func() {
		snap, err := loader.FilterChanged(context.Background(), CatalogQuery{PageSize: 2, CategorySlug: &slug})
		fresh <- outcome{snap, err}
	}()
	second := <-q.started
	require.Equal(t, 0, second.query.Page)
	require.Equal(t, "wedding", *second.query.CategorySlug)

	second.reply <- gatedResult{page: pageOf(0, 2, 2, "fresh-1")}
	got := <-fresh
	require.NoError(t, got.err)
	require.Equal(t, []string{"fresh-1"}, ids(got.snap.Items))

	first.reply <- gatedResult{page: pageOf(0, 2, 5, "stale-1", "stale-2")}
	require.ErrorIs(t, <-stale, ErrLoadSuperseded)
	require.Equal(t, []string{"fresh-1"}, ids(loader.Snapshot().Items))
}

func TestProductLoaderKeepsItemsOnFailure(t *testing.T) {
	q := newGatedQuerier()
	loader, _ := NewProductLoader(q, CatalogQuery{PageSize: 2})

	load := func(res gatedResult) (LoaderSnapshot, error) {
		type outcome struct {
			snap LoaderSnapshot
			err  error
		}
		out := make(chan outcome, 1)
		go func() {
			snap, err := loader.LoadMore(context.Background())
			out <- outcome{snap, err}
		}()
		call := <-q.started
		call.reply <- res
		o := <-out
		return o.snap, o.err
	}

	_, err := load(gatedResult{page: pageOf(0, 2, 4, "a", "b")})
	require.NoError(t, err)

	failure := &FetchError{Op: "catalog.query_products", Err: errors.New("timeout"), Retryable: true}
	snap, err := load(gatedResult{err: failure})
	require.ErrorIs(t, err, failure)
	require.Equal(t, StateError, snap.State)
	require.True(t, snap.Retryable)
	require.Equal(t, []string{"a", "b"}, ids(snap.Items))
	require.Equal(t, 1, snap.NextPage)

	snap, err = load(gatedResult{page: pageOf(1, 2, 4, "c", "d")})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c", "d"}, ids(snap.Items))
	require.Nil(t, snap.Err)
	require.Equal(t, 1, q.calls[2].Page, "retry re-requests the failed page")
}

func TestProductLoaderEmptyResult(t *testing.T) {
	svc := newMemoryCatalog(t, memory.New())
	loader, _ := NewProductLoader(svc, CatalogQuery{})
	snap, err := loader.Refresh(context.Background())
	require.NoError(t, err)
	require.True(t, snap.Empty())
	require.NotEmpty(t, snap.Generation)
}

func TestNewProductLoaderRequiresQuerier(t *testing.T) {
	_, err := NewProductLoader(nil, CatalogQuery{})
	require.ErrorIs(t, err, ErrProductQuerierMissing)
}
