// Package firestoredb is the Firestore datastore backend. Tables map to
// top-level collections; equality predicates run server side and the rest of
// the query (substring search, nulls-last ordering, ranges, counts) is
// evaluated over the fetched documents.
package firestoredb

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

// Firestore caps "in" filters at 30 values.
const maxInValues = 30

// ClientProvider yields a Firestore client; *firestore.Provider from the
// platform package satisfies it.
type ClientProvider interface {
	Client(ctx context.Context) (*firestore.Client, error)
}

// Store implements datastore.Client over Firestore.
type Store struct {
	provider ClientProvider
}

var _ datastore.Client = (*Store)(nil)

// New binds a Store to provider.
func New(provider ClientProvider) *Store {
	return &Store{provider: provider}
}

// Select implements datastore.Client.
func (s *Store) Select(ctx context.Context, q datastore.Query) (datastore.Result, error) {
	if err := q.Validate(); err != nil {
		return datastore.Result{}, err
	}
	client, err := s.provider.Client(ctx)
	if err != nil {
		return datastore.Result{}, wrapError("client", err)
	}

	query := client.Collection(q.Table).Query
	for _, f := range ServerFilters(q) {
		op := "=="
		if f.Op == datastore.OpIn {
			op = "in"
		}
		query = query.Where(f.Field, op, f.Value)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var rows []datastore.Row
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return datastore.Result{}, wrapError("select "+q.Table, err)
		}
		row := datastore.Row(snap.Data())
		if _, ok := row["id"]; !ok {
			row["id"] = snap.Ref.ID
		}
		rows = append(rows, row)
	}
	return datastore.Evaluate(rows, q)
}

// ServerFilters returns the ANDed predicates Firestore can evaluate without a
// composite index: equality and bounded "in" lists.
func ServerFilters(q datastore.Query) []datastore.Filter {
	var out []datastore.Filter
	for _, f := range q.Filters {
		switch f.Op {
		case datastore.OpEq:
			out = append(out, f)
		case datastore.OpIn:
			values, _ := datastore.InValues(f.Value)
			if len(values) > 0 && len(values) <= maxInValues {
				out = append(out, datastore.Filter{Field: f.Field, Op: f.Op, Value: values})
			}
		}
	}
	return out
}

func wrapError(op string, err error) error {
	switch status.Code(err) {
	case codes.Canceled:
		return context.Canceled
	case codes.NotFound:
		return datastore.WrapError(op, err, datastore.CategoryNotFound)
	case codes.AlreadyExists, codes.Aborted:
		return datastore.WrapError(op, err, datastore.CategoryConflict)
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded, codes.Internal:
		return datastore.WrapError(op, err, datastore.CategoryUnavailable)
	default:
		return datastore.WrapError(op, err, datastore.CategoryInternal)
	}
}
