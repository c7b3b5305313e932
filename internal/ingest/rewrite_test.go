package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/techbeetle/news-router/internal/domain"
)

func TestToSlug(t *testing.T) {
	cases := map[string]string{
		"Apple's New AI Chip!!":      "apple-s-new-ai-chip",
		"  --Hello,   World--  ":     "hello-world",
		"5G & Wi-Fi 7: what changes": "5g-wi-fi-7-what-changes",
		"!!!":                        "",
		"":                           "",
	}
	for in, want := range cases {
		if got := ToSlug(in); got != want {
			t.Errorf("ToSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToSlugTruncatesWithoutTrailingHyphen(t *testing.T) {
	title := strings.Repeat("a", 79) + " " + strings.Repeat("b", 20)
	got := ToSlug(title)
	if len(got) > maxSlugLen {
		t.Fatalf("slug too long: %d", len(got))
	}
	if strings.HasSuffix(got, "-") {
		t.Fatalf("slug ends with hyphen: %q", got)
	}
	if got != strings.Repeat("a", 79) {
		t.Fatalf("unexpected slug %q", got)
	}
}

func TestRewriteIsTotal(t *testing.T) {
	r := NewRewriter("Tech Beetle")
	got := r.Rewrite(domain.Article{ID: "x1"}, "us")

	if !strings.HasPrefix(got.Slug, "story-") {
		t.Fatalf("expected fallback slug, got %q", got.Slug)
	}
	if got.SEOTitle == "" || got.SEODescription == "" || got.Content == "" || got.ContentHTML == "" {
		t.Fatalf("rewrite left fields empty: %+v", got)
	}
	if len(got.Takeaways) != 3 {
		t.Fatalf("expected 3 takeaways, got %v", got.Takeaways)
	}
	if got.Takeaways[1] != "Published: date unavailable" {
		t.Fatalf("unexpected published takeaway %q", got.Takeaways[1])
	}
	if got.Takeaways[2] != "Region: United States" {
		t.Fatalf("unexpected region takeaway %q", got.Takeaways[2])
	}
}

func TestRewriteIsDeterministic(t *testing.T) {
	r := NewRewriter("Tech Beetle")
	a := domain.Article{ID: "1", Title: "Quantum Leap", Summary: "A big step.", Source: "Wired", PublishedAt: "2024-03-05T10:00:00Z", URL: "https://w.ex/q"}

	first := r.Rewrite(a, "gb")
	second := r.Rewrite(a, "gb")
	if first.Content != second.Content || first.Slug != second.Slug || first.SEODescription != second.SEODescription {
		t.Fatalf("rewrite is not deterministic")
	}
}

func TestRewriteFields(t *testing.T) {
	r := NewRewriter("Tech Beetle")
	a := domain.Article{
		ID:          "1",
		Title:       "Apple's New AI Chip!!",
		Summary:     "Apple unveiled a chip.",
		RawContent:  "The full report.",
		Source:      "Wired",
		PublishedAt: "2024-03-05T10:00:00Z",
		URL:         "https://w.ex/chip",
	}
	got := r.Rewrite(a, "in")

	if got.Slug != "apple-s-new-ai-chip" {
		t.Errorf("slug = %q", got.Slug)
	}
	if got.SEOTitle != "Apple's New AI Chip!! | Tech Beetle Brief" {
		t.Errorf("seo title = %q", got.SEOTitle)
	}
	if got.SEODescription != "Apple unveiled a chip." {
		t.Errorf("seo description = %q", got.SEODescription)
	}
	if got.Takeaways[0] != "Source: Wired" || got.Takeaways[1] != "Published: Mar 5, 2024" || got.Takeaways[2] != "Region: India" {
		t.Errorf("takeaways = %v", got.Takeaways)
	}
	for _, want := range []string{"The full report.", "Apple unveiled a chip.", "first reported by Wired", "## Key takeaways", "- Region: India"} {
		if !strings.Contains(got.Content, want) {
			t.Errorf("body missing %q:\n%s", want, got.Content)
		}
	}
	if !strings.Contains(got.ContentHTML, "<h2>Key takeaways</h2>") || !strings.Contains(got.ContentHTML, "<li>Source: Wired</li>") {
		t.Errorf("html not rendered: %s", got.ContentHTML)
	}
	if got.Title != a.Title || got.URL != a.URL {
		t.Errorf("source fields must pass through")
	}
}

func TestRewriteDescriptionTruncatesOnRunes(t *testing.T) {
	r := NewRewriter("Tech Beetle")
	summary := strings.Repeat("é", 200)
	got := r.Rewrite(domain.Article{Title: "t", Summary: summary}, "us")

	if n := utf8.RuneCountInString(got.SEODescription); n != maxDescriptionLen {
		t.Fatalf("expected %d runes, got %d", maxDescriptionLen, n)
	}
	if !strings.HasSuffix(got.SEODescription, "...") || !utf8.ValidString(got.SEODescription) {
		t.Fatalf("unexpected description %q", got.SEODescription)
	}
}

func TestPublishedLabelKeepsRawOnParseFailure(t *testing.T) {
	if got := publishedLabel("sometime last week"); got != "sometime last week" {
		t.Fatalf("got %q", got)
	}
}

func TestRegionNameFallsBackToCode(t *testing.T) {
	if got := regionName("br"); got != "BR" {
		t.Fatalf("got %q", got)
	}
	if got := regionName(""); got != "Global" {
		t.Fatalf("got %q", got)
	}
}
