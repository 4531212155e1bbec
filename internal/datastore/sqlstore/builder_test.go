package sqlstore

import (
	"errors"
	"reflect"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Micevski239/gerbera-sub000/internal/datastore"
)

func catalogQuery() datastore.Query {
	return datastore.Query{
		Table: datastore.TableProductsWithDetail,
		Filters: []datastore.Filter{
			datastore.Eq("status", "published"),
			datastore.Eq("is_visible", true),
		},
		Any: [][]datastore.Filter{{
			datastore.ILike("name_mk", "50%"),
			datastore.ILike("name_en", "50%"),
		}},
		Orders: []datastore.Order{{Field: "price", NullsLast: true}, {Field: "id"}},
		Range:  &datastore.Range{Offset: 24, Limit: 12},
		Count:  true,
	}
}

func TestBuildPostgres(t *testing.T) {
	stmt, count, err := Build(Postgres, catalogQuery())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSQL := `SELECT * FROM "products_with_details" WHERE "status" = $1 AND "is_visible" = $2 AND ("name_mk" ILIKE $3 OR "name_en" ILIKE $4) ORDER BY "price" ASC NULLS LAST, "id" ASC LIMIT 12 OFFSET 24`
	if stmt.SQL != wantSQL {
		t.Fatalf("expected\n%s\ngot\n%s", wantSQL, stmt.SQL)
	}
	wantArgs := []any{"published", true, `%50\%%`, `%50\%%`}
	if !reflect.DeepEqual(stmt.Args, wantArgs) {
		t.Fatalf("expected args %#v, got %#v", wantArgs, stmt.Args)
	}

	wantCount := `SELECT COUNT(*) FROM "products_with_details" WHERE "status" = $1 AND "is_visible" = $2 AND ("name_mk" ILIKE $3 OR "name_en" ILIKE $4)`
	if count == nil || count.SQL != wantCount {
		t.Fatalf("unexpected count statement %#v", count)
	}
}

func TestBuildMySQL(t *testing.T) {
	q := catalogQuery()
	q.Orders = []datastore.Order{{Field: "price", Desc: true, NullsLast: true}, {Field: "id"}}
	q.Count = false

	stmt, count, err := Build(MySQL, q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantSQL := "SELECT * FROM `products_with_details` WHERE `status` = ? AND `is_visible` = ? AND (LOWER(`name_mk`) LIKE LOWER(?) OR LOWER(`name_en`) LIKE LOWER(?)) ORDER BY (`price` IS NULL) ASC, `price` DESC, `id` ASC LIMIT 12 OFFSET 24"
	if stmt.SQL != wantSQL {
		t.Fatalf("expected\n%s\ngot\n%s", wantSQL, stmt.SQL)
	}
	if count != nil {
		t.Fatalf("expected no count statement")
	}
}

func TestBuildInAndEmptyIn(t *testing.T) {
	stmt, _, err := Build(Postgres, datastore.Query{
		Table:   datastore.TableProductOccasions,
		Filters: []datastore.Filter{datastore.In("product_id", "p1", "p2"), datastore.In("occasion_id")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `SELECT * FROM "product_occasions" WHERE "product_id" IN ($1, $2) AND 1 = 0`
	if stmt.SQL != want {
		t.Fatalf("expected %s, got %s", want, stmt.SQL)
	}
}

func TestBuildRejectsInvalidIdentifiers(t *testing.T) {
	_, _, err := Build(MySQL, datastore.Query{Table: "products`; --"})
	if !errors.Is(err, datastore.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want datastore.Category
	}{
		{name: "mysql gone away", err: &mysql.MySQLError{Number: 2006}, want: datastore.CategoryUnavailable},
		{name: "mysql syntax", err: &mysql.MySQLError{Number: 1064}, want: datastore.CategoryInternal},
		{name: "mysql invalid conn", err: mysql.ErrInvalidConn, want: datastore.CategoryUnavailable},
		{name: "postgres connection failure", err: &pgconn.PgError{Code: "08006"}, want: datastore.CategoryUnavailable},
		{name: "postgres undefined table", err: &pgconn.PgError{Code: "42P01"}, want: datastore.CategoryInternal},
		{name: "postgres unique", err: &pgconn.PgError{Code: "23505"}, want: datastore.CategoryConflict},
		{name: "unknown", err: errors.New("boom"), want: datastore.CategoryInternal},
	}
	for _, tc := range cases {
		if got := classify(tc.err); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestParseDialect(t *testing.T) {
	for input, want := range map[string]Dialect{"mysql": MySQL, "Supabase": Postgres, "postgres": Postgres} {
		got, err := ParseDialect(input)
		if err != nil || got != want {
			t.Fatalf("ParseDialect(%q): expected %s, got %s (%v)", input, want, got, err)
		}
	}
	if _, err := ParseDialect("sqlite"); err == nil {
		t.Fatalf("expected error for unsupported dialect")
	}
	if Postgres.DriverName() != "pgx" || MySQL.DriverName() != "mysql" {
		t.Fatalf("unexpected driver names")
	}
}
