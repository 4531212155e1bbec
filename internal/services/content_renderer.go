package services

import (
	"bytes"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// ContentRenderer turns admin-authored markdown into sanitised HTML.
type ContentRenderer struct {
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewContentRenderer configures GitHub-flavoured markdown with hard wraps and
// the user-generated-content sanitising policy.
func NewContentRenderer() *ContentRenderer {
	return &ContentRenderer{
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// Render converts source to HTML. Blank input renders as "". A conversion
// failure degrades to the sanitised source text.
func (r *ContentRenderer) Render(source string) string {
	if strings.TrimSpace(source) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(source), &buf); err != nil {
		return r.policy.Sanitize(source)
	}
	return strings.TrimSpace(string(r.policy.SanitizeBytes(buf.Bytes())))
}
