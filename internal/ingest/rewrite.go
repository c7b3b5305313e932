package ingest

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/techbeetle/news-router/internal/domain"
	"github.com/yuin/goldmark"
)

const (
	maxSlugLen        = 80
	maxDescriptionLen = 150
	publishedLayout   = "Jan 2, 2006"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// regionNames covers the countries the newsroom refreshes; anything else shows its code.
var regionNames = map[string]string{
	"au": "Australia",
	"ca": "Canada",
	"de": "Germany",
	"fr": "France",
	"gb": "United Kingdom",
	"in": "India",
	"jp": "Japan",
	"sg": "Singapore",
	"us": "United States",
}

// ToSlug lowercases s and collapses every run of non [a-z0-9] characters into one hyphen.
func ToSlug(s string) string {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// Rewriter turns a normalized article into branded, SEO-ready copy.
type Rewriter struct {
	brand string
	md    goldmark.Markdown
}

// NewRewriter builds a rewriter for the given brand name.
func NewRewriter(brand string) *Rewriter {
	brand = strings.TrimSpace(brand)
	if brand == "" {
		brand = "Tech Beetle"
	}
	return &Rewriter{brand: brand, md: goldmark.New()}
}

// RewriteAll rewrites every article for country.
func (r *Rewriter) RewriteAll(articles []domain.Article, country string) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		out = append(out, r.Rewrite(a, country))
	}
	return out
}

// Rewrite is total: any article, however sparse, gets every derived field populated.
func (r *Rewriter) Rewrite(a domain.Article, country string) domain.Article {
	region := regionName(firstNonEmpty(a.SourceCountry, country))
	source := firstNonEmpty(a.Source, a.Provider, "an independent outlet")
	title := strings.TrimSpace(a.Title)

	a.Slug = ToSlug(title)
	if a.Slug == "" {
		a.Slug = fallbackSlug(a)
	}

	a.SEOTitle = fmt.Sprintf("%s | %s Brief", firstNonEmpty(title, "Technology update"), r.brand)
	a.SEODescription = r.description(a.Summary, source, region)
	a.Takeaways = []string{
		"Source: " + source,
		"Published: " + publishedLabel(a.PublishedAt),
		"Region: " + region,
	}
	a.Content = r.body(a, source, region)
	a.ContentHTML = r.render(a.Content)
	return a
}

func (r *Rewriter) description(summary, source, region string) string {
	summary = strings.Join(strings.Fields(summary), " ")
	if summary == "" {
		return fmt.Sprintf("%s technology news from %s, curated by %s.", region, source, r.brand)
	}
	if utf8.RuneCountInString(summary) <= maxDescriptionLen {
		return summary
	}
	runes := []rune(summary)
	return strings.TrimSpace(string(runes[:maxDescriptionLen-3])) + "..."
}

func (r *Rewriter) body(a domain.Article, source, region string) string {
	var b strings.Builder

	raw := strings.TrimSpace(a.RawContent)
	summary := strings.TrimSpace(a.Summary)
	if raw != "" {
		b.WriteString(raw)
		b.WriteString("\n\n")
	}
	if summary != "" && summary != raw {
		b.WriteString(summary)
		b.WriteString("\n\n")
	}

	fmt.Fprintf(&b, "This story was first reported by %s and curated by %s for readers in %s.", source, r.brand, region)
	if url := strings.TrimSpace(a.URL); url != "" {
		fmt.Fprintf(&b, " [Read the original](%s).", url)
	}

	b.WriteString("\n\n## Key takeaways\n\n")
	for _, t := range a.Takeaways {
		b.WriteString("- ")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Rewriter) render(markdown string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "<p>" + html.EscapeString(markdown) + "</p>"
	}
	return buf.String()
}

func fallbackSlug(a domain.Article) string {
	sum := sha1.Sum([]byte(a.ID + "|" + a.URL))
	return "story-" + hex.EncodeToString(sum[:])[:10]
}

func publishedLabel(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "date unavailable"
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return raw
	}
	return t.UTC().Format(publishedLayout)
}

func regionName(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if name, ok := regionNames[code]; ok {
		return name
	}
	if code == "" {
		return "Global"
	}
	return strings.ToUpper(code)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
