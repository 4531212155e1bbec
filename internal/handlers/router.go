package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Micevski239/gerbera-sub000/internal/platform/httpx"
)

const (
	apiPrefix         = "/v1"
	defaultTimeout    = 30 * time.Second
	errorNotFoundCode = "route_not_found"
)

// RouteRegistrar mounts a group of routes.
type RouteRegistrar func(r chi.Router)

// Option adjusts NewRouter.
type Option func(*router)

type router struct {
	timeout    time.Duration
	extra      []func(http.Handler) http.Handler
	health     *HealthHandlers
	storefront RouteRegistrar
}

// NewRouter builds the HTTP surface: probes at the root and the storefront
// read API under /v1 with language negotiation.
func NewRouter(opts ...Option) chi.Router {
	rt := &router{timeout: defaultTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(rt)
		}
	}
	if rt.health == nil {
		rt.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Timeout(rt.timeout))
	for _, mw := range rt.extra {
		if mw != nil {
			r.Use(mw)
		}
	}
	r.NotFound(routeNotFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/healthz", rt.health.Healthz)
	r.Get("/readyz", rt.health.Readyz)

	if rt.storefront != nil {
		r.Route(apiPrefix, func(api chi.Router) {
			api.Use(LanguageMiddleware)
			rt.storefront(api)
		})
	}
	return r
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	httpx.WriteError(r.Context(), w, httpx.NewError(errorNotFoundCode, "no route for "+r.URL.Path, http.StatusNotFound))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	msg := "method " + r.Method + " not allowed on " + r.URL.Path
	httpx.WriteError(r.Context(), w, httpx.NewError("method_not_allowed", msg, http.StatusMethodNotAllowed))
}

// WithMiddlewares runs mw after the built-in request id, real ip and timeout middleware.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(rt *router) { rt.extra = append(rt.extra, mw...) }
}

func WithHealthHandlers(h *HealthHandlers) Option {
	return func(rt *router) { rt.health = h }
}

func WithStorefrontRoutes(reg RouteRegistrar) Option {
	return func(rt *router) { rt.storefront = reg }
}

// WithRequestTimeout bounds each request's context. Non-positive values keep the default.
func WithRequestTimeout(d time.Duration) Option {
	return func(rt *router) {
		if d > 0 {
			rt.timeout = d
		}
	}
}
