package textutil

import (
	"encoding/json"
	"testing"
	"time"
)

func TestLooseNumbers(t *testing.T) {
	t.Helper()

	cases := []struct {
		in   any
		want int
		ok   bool
	}{
		{in: 12.0, want: 12, ok: true},
		{in: 7, want: 7, ok: true},
		{in: int64(3), want: 3, ok: true},
		{in: json.Number("24"), want: 24, ok: true},
		{in: " 6 ", want: 6, ok: true},
		{in: "six", ok: false},
		{in: nil, ok: false},
		{in: true, ok: false},
	}
	for _, tc := range cases {
		got, ok := Int(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("Int(%#v): expected (%d,%v), got (%d,%v)", tc.in, tc.want, tc.ok, got, ok)
		}
	}
}

func TestLooseBool(t *testing.T) {
	truthy := []any{true, "true", "1", "TRUE", int64(1), []byte("1")}
	for _, v := range truthy {
		if got, ok := Bool(v); !ok || !got {
			t.Fatalf("expected %#v to be true", v)
		}
	}
	falsy := []any{false, "false", "0", int64(0)}
	for _, v := range falsy {
		if got, ok := Bool(v); !ok || got {
			t.Fatalf("expected %#v to be false", v)
		}
	}
	if _, ok := Bool("maybe"); ok {
		t.Fatalf("expected unparseable string to be rejected")
	}
}

func TestLooseTime(t *testing.T) {
	want := time.Date(2024, 3, 8, 9, 30, 0, 0, time.UTC)
	for _, v := range []any{want, "2024-03-08T09:30:00Z", "2024-03-08 09:30:00", []byte("2024-03-08T10:30:00+01:00")} {
		got, ok := Time(v)
		if !ok || !got.Equal(want) {
			t.Fatalf("Time(%#v): expected %s, got %s (ok=%v)", v, want, got, ok)
		}
	}
	if _, ok := Time(""); ok {
		t.Fatalf("expected empty string to be rejected")
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("Букет од Рози", "рози") {
		t.Fatalf("expected cyrillic match")
	}
	if !ContainsFold("Red ROSES", "roses") {
		t.Fatalf("expected latin match")
	}
	if ContainsFold("Tulips", "rose") {
		t.Fatalf("unexpected match")
	}
}

func TestClip(t *testing.T) {
	cases := map[string]struct {
		in    string
		limit int
		want  string
	}{
		"control characters": {"catalog\nunavailable\r", 0, "catalog unavailable"},
		"rune limit":         {"Букети", 3, "Бук"},
		"short":              {" /v1/products ", 64, "/v1/products"},
	}
	for name, tc := range cases {
		if got := Clip(tc.in, tc.limit); got != tc.want {
			t.Errorf("%s: Clip(%q, %d) = %q, want %q", name, tc.in, tc.limit, got, tc.want)
		}
	}
}
