package firestoredb

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

func TestServerFiltersPushesEqualityOnly(t *testing.T) {
	many := make([]any, maxInValues+1)
	for i := range many {
		many[i] = i
	}
	q := datastore.Query{
		Table: datastore.TableProductsWithDetail,
		Filters: []datastore.Filter{
			datastore.Eq("status", "published"),
			datastore.Gte("price", 100),
			datastore.In("category_slug", "roses", "tulips"),
			datastore.In("id", many...),
			datastore.ILike("name_en", "rose"),
		},
	}

	got := ServerFilters(q)
	if len(got) != 2 {
		t.Fatalf("expected 2 server filters, got %v", got)
	}
	if got[0].Field != "status" || got[1].Field != "category_slug" {
		t.Fatalf("unexpected server filters %v", got)
	}
}

func TestWrapErrorMapsStatusCodes(t *testing.T) {
	cases := []struct {
		code        codes.Code
		unavailable bool
		notFound    bool
	}{
		{code: codes.Unavailable, unavailable: true},
		{code: codes.DeadlineExceeded, unavailable: true},
		{code: codes.NotFound, notFound: true},
		{code: codes.PermissionDenied},
	}
	for _, tc := range cases {
		err := wrapError("select products", status.Error(tc.code, "x"))
		var dsErr *datastore.Error
		if !errors.As(err, &dsErr) {
			t.Fatalf("%s: expected datastore error, got %v", tc.code, err)
		}
		if dsErr.IsUnavailable() != tc.unavailable || dsErr.IsNotFound() != tc.notFound {
			t.Fatalf("%s: unexpected categories %+v", tc.code, dsErr)
		}
	}

	if err := wrapError("select", status.Error(codes.Canceled, "x")); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type failingProvider struct{ err error }

func (p failingProvider) Client(context.Context) (*firestore.Client, error) { return nil, p.err }

func TestSelectSurfacesProviderFailure(t *testing.T) {
	store := New(failingProvider{err: status.Error(codes.Unavailable, "emulator down")})
	_, err := store.Select(context.Background(), datastore.Query{Table: datastore.TableCategories})
	var dsErr *datastore.Error
	if !errors.As(err, &dsErr) || !dsErr.IsUnavailable() {
		t.Fatalf("expected unavailable error, got %v", err)
	}
}
