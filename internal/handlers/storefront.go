package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Micevski239/gerbera-sub000/internal/domain"
	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/platform/httpx"
	"github.com/Micevski239/gerbera-sub000/internal/platform/pagination"
	"github.com/Micevski239/gerbera-sub000/internal/platform/requestctx"
	"github.com/Micevski239/gerbera-sub000/internal/platform/storage"
	"github.com/Micevski239/gerbera-sub000/internal/services"
)

const (
	homepageCacheControl = "public, max-age=60"
	catalogCacheControl  = "public, max-age=300"
)

var productSorts = []string{
	string(domain.SortNewest),
	string(domain.SortOldest),
	string(domain.SortPriceAsc),
	string(domain.SortPriceDesc),
	string(domain.SortNameAsc),
	string(domain.SortNameDesc),
}

// StorefrontHandlers exposes the unauthenticated storefront read API.
type StorefrontHandlers struct {
	catalog  services.CatalogService
	homepage services.HomepageService
	images   storage.ImageResolver

	defaultPageSize int
	maxPageSize     int
}

// StorefrontOption customises construction of StorefrontHandlers.
type StorefrontOption func(*StorefrontHandlers)

// WithCatalogService injects the catalog service dependency.
func WithCatalogService(svc services.CatalogService) StorefrontOption {
	return func(h *StorefrontHandlers) {
		h.catalog = svc
	}
}

// WithHomepageService injects the homepage service dependency.
func WithHomepageService(svc services.HomepageService) StorefrontOption {
	return func(h *StorefrontHandlers) {
		h.homepage = svc
	}
}

// WithProductImageResolver sets the resolver used for product and taxonomy images.
func WithProductImageResolver(resolver storage.ImageResolver) StorefrontOption {
	return func(h *StorefrontHandlers) {
		if resolver != nil {
			h.images = resolver
		}
	}
}

// WithPageSizes overrides the default and maximum page sizes of product listings.
func WithPageSizes(defaultSize, maxSize int) StorefrontOption {
	return func(h *StorefrontHandlers) {
		if defaultSize > 0 {
			h.defaultPageSize = defaultSize
		}
		if maxSize > 0 {
			h.maxPageSize = maxSize
		}
	}
}

// NewStorefrontHandlers constructs the storefront handlers.
func NewStorefrontHandlers(opts ...StorefrontOption) *StorefrontHandlers {
	h := &StorefrontHandlers{
		images:          storage.PassthroughResolver,
		defaultPageSize: services.DefaultPageSize,
		maxPageSize:     services.MaxPageSize,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers storefront endpoints against the provided router.
func (h *StorefrontHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/homepage", h.getHomepage)
	r.Get("/products", h.listProducts)
	r.Get("/shop/products", h.shopProducts)
	r.Get("/categories", h.listCategories)
	r.Get("/occasions", h.listOccasions)
	r.Get("/sections/{sectionID}/items", h.listSectionItems)
}

func (h *StorefrontHandlers) getHomepage(w http.ResponseWriter, r *http.Request) {
	if h.homepage == nil {
		writeUnavailable(r.Context(), w, "homepage")
		return
	}
	page, err := h.homepage.LoadHomepage(r.Context(), requestctx.Language(r.Context()))
	if err != nil {
		writeServiceError(r.Context(), w, err, "homepage")
		return
	}
	w.Header().Set("Cache-Control", homepageCacheControl)
	writeJSON(w, http.StatusOK, newHomepageResponse(page))
}

func (h *StorefrontHandlers) listProducts(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeUnavailable(r.Context(), w, "catalog")
		return
	}
	query, err := h.parseCatalogQuery(r)
	if err != nil {
		writeInvalidRequest(r.Context(), w, err)
		return
	}
	page, err := h.catalog.QueryProducts(r.Context(), query)
	if err != nil {
		writeServiceError(r.Context(), w, err, "catalog")
		return
	}

	items := make([]productPayload, 0, len(page.Items))
	for _, p := range page.Items {
		items = append(items, h.productPayload(r.Context(), p, query.Language))
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, productListResponse{
		Products: items,
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
		HasMore:  page.HasMore,
	})
}

func (h *StorefrontHandlers) shopProducts(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeUnavailable(r.Context(), w, "catalog")
		return
	}
	query, err := parseShopQuery(r)
	if err != nil {
		writeInvalidRequest(r.Context(), w, err)
		return
	}
	result, err := h.catalog.ShopProducts(r.Context(), query)
	if err != nil {
		writeServiceError(r.Context(), w, err, "catalog")
		return
	}

	items := make([]productPayload, 0, len(result.Products))
	for _, p := range result.Products {
		items = append(items, h.productPayload(r.Context(), p, query.Language))
	}
	writeJSON(w, http.StatusOK, shopResponse{
		Products: items,
		Total:    len(items),
		PriceBounds: priceBoundsPayload{
			Min: formatPrice(result.Bounds.Min),
			Max: formatPrice(result.Bounds.Max),
		},
		GeneratedAt: formatTimestamp(result.GeneratedAt),
	})
}

func (h *StorefrontHandlers) listCategories(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeUnavailable(r.Context(), w, "catalog")
		return
	}
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "category")
		return
	}
	lang := requestctx.Language(r.Context())
	items := make([]taxonomyPayload, 0, len(categories))
	for _, c := range categories {
		items = append(items, h.taxonomyPayload(r.Context(), c.ID, c.Text, c.Slug, c.ImagePath, c.DisplayOrder, lang))
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, categoryListResponse{Categories: items})
}

func (h *StorefrontHandlers) listOccasions(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeUnavailable(r.Context(), w, "catalog")
		return
	}
	occasions, err := h.catalog.ListOccasions(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err, "occasion")
		return
	}
	lang := requestctx.Language(r.Context())
	items := make([]taxonomyPayload, 0, len(occasions))
	for _, o := range occasions {
		items = append(items, h.taxonomyPayload(r.Context(), o.ID, o.Text, o.Slug, o.ImagePath, o.DisplayOrder, lang))
	}
	w.Header().Set("Cache-Control", catalogCacheControl)
	writeJSON(w, http.StatusOK, occasionListResponse{Occasions: items})
}

func (h *StorefrontHandlers) listSectionItems(w http.ResponseWriter, r *http.Request) {
	if h.homepage == nil {
		writeUnavailable(r.Context(), w, "homepage")
		return
	}
	items, err := h.homepage.SectionItems(r.Context(), chi.URLParam(r, "sectionID"))
	if err != nil {
		writeServiceError(r.Context(), w, err, "section")
		return
	}
	lang := requestctx.Language(r.Context())
	out := make([]sectionItemPayload, 0, len(items))
	for _, item := range items {
		payload := sectionItemPayload{
			ID:              item.ID,
			SectionID:       item.SectionID,
			Title:           i18n.Resolve(item.Text, "title", lang),
			Subtitle:        i18n.Resolve(item.Text, "subtitle", lang),
			ImageURL:        h.resolveImage(r.Context(), item.ImagePath),
			BackgroundColor: item.BackgroundColor,
			TextColor:       item.TextColor,
			DisplayOrder:    item.DisplayOrder,
		}
		if item.Link != nil {
			payload.Link = strings.TrimSpace(*item.Link)
		}
		if item.Icon != nil {
			payload.Icon = strings.TrimSpace(*item.Icon)
		}
		out = append(out, payload)
	}
	writeJSON(w, http.StatusOK, sectionItemListResponse{Items: out})
}

func (h *StorefrontHandlers) productPayload(ctx context.Context, p services.Product, lang i18n.Language) productPayload {
	effective := p.EffectivePrice()
	payload := productPayload{
		ID:             p.ID,
		Name:           i18n.Resolve(p.Text, "name", lang),
		Description:    i18n.Resolve(p.Text, "description", lang),
		CategoryName:   i18n.Resolve(p.CategoryText, "name", lang),
		CategorySlug:   p.CategorySlug,
		ImageURL:       h.resolveImage(ctx, p.PrimaryImagePath),
		Price:          formatPrice(p.Price),
		EffectivePrice: formatPrice(effective),
		PriceOnRequest: !effective.Valid,
		IsOnSale:       p.IsOnSale,
		IsBestSeller:   p.IsBestSeller,
		CreatedAt:      formatTimestamp(p.CreatedAt),
	}
	if p.IsOnSale {
		payload.SalePrice = formatPrice(p.SalePrice)
	}
	return payload
}

func (h *StorefrontHandlers) taxonomyPayload(ctx context.Context, id string, text i18n.Fields, slug, imagePath string, order int, lang i18n.Language) taxonomyPayload {
	return taxonomyPayload{
		ID:           id,
		Name:         i18n.Resolve(text, "name", lang),
		Description:  i18n.Resolve(text, "description", lang),
		Slug:         slug,
		ImageURL:     h.resolveImage(ctx, imagePath),
		DisplayOrder: order,
	}
}

func (h *StorefrontHandlers) resolveImage(ctx context.Context, path string) string {
	if strings.TrimSpace(path) == "" || h.images == nil {
		return ""
	}
	resolved, ok := h.images.ResolveImage(ctx, path)
	if !ok {
		return ""
	}
	return resolved
}

func (h *StorefrontHandlers) parseCatalogQuery(r *http.Request) (services.CatalogQuery, error) {
	params, err := pagination.FromRequest(r, pagination.Options{
		DefaultPageSize: h.defaultPageSize,
		MaxPageSize:     h.maxPageSize,
		DefaultSort:     string(domain.SortNewest),
		AllowedSorts:    productSorts,
	})
	if err != nil {
		return services.CatalogQuery{}, err
	}
	values := r.URL.Query()
	query := services.CatalogQuery{
		CategorySlug: optionalString(values.Get("category")),
		SearchText:   strings.TrimSpace(firstNonEmpty(values.Get("search"), values.Get("q"))),
		Sort:         domain.ProductSort(params.Sort),
		Language:     requestctx.Language(r.Context()),
		Page:         params.Page,
		PageSize:     params.PageSize,
	}
	if query.IsBestSeller, err = optionalBool(values, "best_seller"); err != nil {
		return services.CatalogQuery{}, err
	}
	if query.IsOnSale, err = optionalBool(values, "on_sale"); err != nil {
		return services.CatalogQuery{}, err
	}
	return query, nil
}

func parseShopQuery(r *http.Request) (services.ShopQuery, error) {
	values := r.URL.Query()
	sort := strings.ToLower(strings.TrimSpace(values.Get("sort")))
	if sort == "" {
		sort = string(domain.SortNewest)
	}
	if !domain.ProductSort(sort).Valid() {
		return services.ShopQuery{}, fmt.Errorf("%w: %q", pagination.ErrInvalidSort, sort)
	}

	filter := services.FilterState{
		CategorySlug: optionalString(values.Get("category")),
		OccasionSlug: optionalString(values.Get("occasion")),
		Occasions:    splitList(values["occasions"]),
	}
	for _, tag := range splitList(values["tag"]) {
		filter.Tags = append(filter.Tags, services.ProductTag(strings.ToLower(tag)))
	}

	var err error
	if filter.MinPrice, err = optionalDecimal(values, "min_price"); err != nil {
		return services.ShopQuery{}, err
	}
	if filter.MaxPrice, err = optionalDecimal(values, "max_price"); err != nil {
		return services.ShopQuery{}, err
	}
	if filter.OnSale, err = optionalBool(values, "on_sale"); err != nil {
		return services.ShopQuery{}, err
	}
	if filter.BestSeller, err = optionalBool(values, "best_seller"); err != nil {
		return services.ShopQuery{}, err
	}

	return services.ShopQuery{
		Filter:   filter,
		Sort:     domain.ProductSort(sort),
		Language: requestctx.Language(r.Context()),
	}, nil
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func optionalBool(values url.Values, key string) (*bool, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a boolean", key)
	}
	return &parsed, nil
}

func optionalDecimal(values url.Values, key string) (*decimal.Decimal, error) {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(raw)
	if err != nil || parsed.IsNegative() {
		return nil, fmt.Errorf("%s must be a non-negative number", key)
	}
	return &parsed, nil
}

// splitList flattens repeated and comma-separated values, dropping blanks and duplicates.
func splitList(raw []string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, value := range raw {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func writeUnavailable(ctx context.Context, w http.ResponseWriter, resource string) {
	httpx.WriteError(ctx, w, httpx.NewError(resource+"_unavailable", resource+" service is unavailable", http.StatusServiceUnavailable))
}

func writeInvalidRequest(ctx context.Context, w http.ResponseWriter, err error) {
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
}

// writeServiceError maps service failures onto the error envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error, resource string) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, services.ErrInvalidPage),
		errors.Is(err, services.ErrInvalidPageSize),
		errors.Is(err, services.ErrSectionIDRequired):
		writeInvalidRequest(ctx, w, err)
		return
	case errors.Is(err, services.ErrCatalogRepositoryMissing),
		errors.Is(err, services.ErrContentRepositoryMissing):
		writeUnavailable(ctx, w, resource)
		return
	case errors.Is(err, context.Canceled):
		httpx.WriteError(ctx, w, httpx.NewError("request_cancelled", "request cancelled", http.StatusServiceUnavailable))
		return
	}

	var fetchErr *services.FetchError
	if errors.As(err, &fetchErr) {
		if fetchErr.Retryable {
			httpx.WriteError(ctx, w, httpx.NewError(resource+"_unavailable", "data store temporarily unavailable", http.StatusServiceUnavailable).
				AsRetryable().
				WithDetails(map[string]any{"op": fetchErr.Op}))
			return
		}
		httpx.WriteError(ctx, w, httpx.NewError(resource+"_fetch_failed", "failed to load "+resource, http.StatusInternalServerError).
			WithDetails(map[string]any{"op": fetchErr.Op}))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError(resource+"_error", err.Error(), http.StatusInternalServerError))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	httpx.WriteJSON(w, status, payload)
}
