package handlers

import (
	"net/http"

	"github.com/Micevski239/gerbera-sub000/internal/i18n"
	"github.com/Micevski239/gerbera-sub000/internal/platform/requestctx"
)

const languageParam = "lang"

// LanguageMiddleware negotiates the display language from the lang query
// parameter, then Accept-Language, and stores it on the request context.
func LanguageMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lang := negotiateLanguage(r)
		w.Header().Set("Content-Language", string(lang))
		w.Header().Add("Vary", "Accept-Language")
		next.ServeHTTP(w, r.WithContext(requestctx.WithLanguage(r.Context(), lang)))
	})
}

func negotiateLanguage(r *http.Request) i18n.Language {
	if lang, ok := i18n.ParseLanguage(r.URL.Query().Get(languageParam)); ok {
		return lang
	}
	return i18n.MatchAcceptLanguage(r.Header.Get("Accept-Language"))
}
