// Package mongostore is the MongoDB datastore backend. Each table is a
// collection whose documents carry the relational column names.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

const defaultConnectTimeout = 10 * time.Second

// Store runs datastore queries as aggregations.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ datastore.Client = (*Store)(nil)

// Open connects to uri and selects database.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	uri = strings.TrimSpace(uri)
	database = strings.TrimSpace(database)
	if uri == "" || database == "" {
		return nil, errors.New("mongostore: uri and database are required")
	}
	connectCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, wrapError("connect", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, wrapError("ping", err)
	}
	return &Store{client: client, db: client.Database(database)}, nil
}

// Select implements datastore.Client.
func (s *Store) Select(ctx context.Context, q datastore.Query) (datastore.Result, error) {
	if err := q.Validate(); err != nil {
		return datastore.Result{}, err
	}
	pipeline, err := BuildPipeline(q)
	if err != nil {
		return datastore.Result{}, err
	}

	coll := s.db.Collection(q.Table)
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return datastore.Result{}, wrapError("aggregate "+q.Table, err)
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return datastore.Result{}, wrapError("decode "+q.Table, err)
	}

	result := datastore.Result{Rows: make([]datastore.Row, len(docs))}
	for i, doc := range docs {
		result.Rows[i] = toRow(doc)
	}

	if q.Count {
		filter, err := BuildFilter(q)
		if err != nil {
			return datastore.Result{}, err
		}
		total, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return datastore.Result{}, wrapError("count "+q.Table, err)
		}
		result.Total = int(total)
	}
	return result, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

func toRow(doc bson.M) datastore.Row {
	row := make(datastore.Row, len(doc))
	for k, v := range doc {
		row[k] = normalize(v)
	}
	return row
}

func normalize(v any) any {
	switch val := v.(type) {
	case primitive.DateTime:
		return val.Time().UTC()
	case primitive.Decimal128:
		return val.String()
	case primitive.ObjectID:
		return val.Hex()
	case int32:
		return int64(val)
	case primitive.Null, primitive.Undefined:
		return nil
	case bson.M:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			out[k] = normalize(inner)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(val))
		for _, e := range val {
			out[e.Key] = normalize(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = normalize(inner)
		}
		return out
	default:
		return v
	}
}

func wrapError(op string, err error) error {
	category := datastore.CategoryInternal
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		category = datastore.CategoryNotFound
	case mongo.IsTimeout(err), mongo.IsNetworkError(err), errors.Is(err, mongo.ErrClientDisconnected):
		category = datastore.CategoryUnavailable
	case mongo.IsDuplicateKeyError(err):
		category = datastore.CategoryConflict
	}
	return datastore.WrapError(op, err, category)
}

func (s *Store) String() string {
	if s == nil || s.db == nil {
		return "mongostore(<nil>)"
	}
	return fmt.Sprintf("mongostore(%s)", s.db.Name())
}
