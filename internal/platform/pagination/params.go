// Package pagination parses offset paging and sort parameters from query strings.
package pagination

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is used when the client omits page_size.
	DefaultPageSize = 12
	// DefaultMaxPageSize caps page_size to prevent unbounded queries.
	DefaultMaxPageSize = 100
)

var (
	ErrInvalidPage     = errors.New("pagination: invalid page")
	ErrInvalidPageSize = errors.New("pagination: invalid page_size")
	ErrInvalidSort     = errors.New("pagination: invalid sort")
)

// Params is a zero-based offset page request.
type Params struct {
	Page     int
	PageSize int
	Sort     string
}

// Offset is the index of the first row of the page.
func (p Params) Offset() int { return p.Page * p.PageSize }

// Options control how Parse behaves for a given endpoint.
type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	DefaultSort     string
	// AllowedSorts lists accepted sort values; empty accepts any value.
	AllowedSorts []string
}

// FromRequest parses the paging parameters of r.
func FromRequest(r *http.Request, opts Options) (Params, error) {
	if r == nil {
		return Params{}, errors.New("pagination: nil request")
	}
	return Parse(r.URL.Query(), opts)
}

// Parse reads "page", "page_size" (or "pageSize") and "sort". Oversized pages
// are clamped to the maximum; malformed or negative values are errors.
func Parse(values url.Values, opts Options) (Params, error) {
	if values == nil {
		values = url.Values{}
	}
	maxSize := opts.MaxPageSize
	if maxSize <= 0 {
		maxSize = DefaultMaxPageSize
	}
	size := opts.DefaultPageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > maxSize {
		size = maxSize
	}

	params := Params{PageSize: size, Sort: opts.DefaultSort}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return Params{}, fmt.Errorf("%w: %q", ErrInvalidPage, raw)
		}
		params.Page = page
	}

	raw := strings.TrimSpace(values.Get("page_size"))
	if raw == "" {
		raw = strings.TrimSpace(values.Get("pageSize"))
	}
	if raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Params{}, fmt.Errorf("%w: %q", ErrInvalidPageSize, raw)
		}
		if n > maxSize {
			n = maxSize
		}
		params.PageSize = n
	}

	if params.Page > math.MaxInt/params.PageSize {
		return Params{}, fmt.Errorf("%w: %d is out of range", ErrInvalidPage, params.Page)
	}

	if sort := strings.ToLower(strings.TrimSpace(values.Get("sort"))); sort != "" {
		if len(opts.AllowedSorts) > 0 && !contains(opts.AllowedSorts, sort) {
			return Params{}, fmt.Errorf("%w: %q", ErrInvalidSort, sort)
		}
		params.Sort = sort
	}
	return params, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
