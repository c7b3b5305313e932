package domain

import "strings"

// Domain contains core models shared across the pipeline.

// Article is the provider-agnostic article shape. Rewrite fields are empty until the rewriter runs.
type Article struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Summary       string `json:"summary"`
	URL           string `json:"url"`
	ImageURL      string `json:"image_url,omitempty"`
	PublishedAt   string `json:"published_at,omitempty"`
	Source        string `json:"source"`
	SourceCountry string `json:"source_country,omitempty"`
	Provider      string `json:"provider"`

	Slug           string   `json:"slug"`
	SEOTitle       string   `json:"seo_title"`
	SEODescription string   `json:"seo_description"`
	Content        string   `json:"content"`
	Takeaways      []string `json:"takeaways"`

	// RawContent is the provider's body text; it only feeds the rewriter.
	RawContent string `json:"-"`
	// ContentHTML is the rendered body kept for persistence.
	ContentHTML string `json:"-"`
}

// DedupeKey identifies the same real-world story across providers.
func DedupeKey(a Article) string {
	return strings.ToLower(a.Title) + "|" + a.Source + "|" + a.PublishedAt
}
