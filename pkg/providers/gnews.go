package providers

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/techbeetle/news-router/internal/domain"
)

const (
	gnewsDefaultURL = "https://gnews.io/api/v4/top-headlines"
	gnewsMaxPage    = 10
	gnewsSource     = "GNews"
)

type gnewsResponse struct {
	TotalArticles int `json:"totalArticles"`
	Articles      []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Content     string `json:"content"`
		URL         string `json:"url"`
		Image       string `json:"image"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
			URL  string `json:"url"`
		} `json:"source"`
	} `json:"articles"`
}

// gnewsFetcher queries GNews top headlines in the technology category.
type gnewsFetcher struct {
	client HTTPClient
}

// NewGNewsFetcher builds the GNews adapter.
func NewGNewsFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &gnewsFetcher{client: client}
}

func (f *gnewsFetcher) ID() string { return TypeGNews }

func (f *gnewsFetcher) Fetch(ctx context.Context, cfg Provider, q Query) Result {
	articles, err := f.fetch(ctx, cfg, q)
	return resultFrom(cfg.ID, articles, err)
}

func (f *gnewsFetcher) fetch(ctx context.Context, cfg Provider, q Query) ([]domain.Article, error) {
	if cfg.APIKey == "" {
		return nil, errMissingKey
	}

	limit := pageSize(cfg, q.Limit, gnewsMaxPage)
	endpoint, err := buildURL(firstNonEmpty(cfg.BaseURL, gnewsDefaultURL), url.Values{
		"apikey":   {cfg.APIKey},
		"category": {topicTechnology},
		"country":  {q.Country},
		"lang":     {ConfigString(cfg, ConfigLanguageKey, "en")},
		"max":      {strconv.Itoa(limit)},
		"q":        {q.Search},
	})
	if err != nil {
		return nil, err
	}

	var payload gnewsResponse
	if err := getJSON(ctx, f.client, endpoint, cfg.ID, Headers(cfg), &payload); err != nil {
		return nil, err
	}

	out := make([]domain.Article, 0, limit)
	for _, r := range payload.Articles {
		if len(out) >= limit {
			break
		}
		a := domain.Article{
			ID:            strings.TrimSpace(r.URL),
			Title:         strings.TrimSpace(r.Title),
			Summary:       plainText(r.Description),
			URL:           strings.TrimSpace(r.URL),
			ImageURL:      strings.TrimSpace(r.Image),
			PublishedAt:   normalizeTimestamp(r.PublishedAt),
			Source:        firstNonEmpty(r.Source.Name, gnewsSource),
			SourceCountry: q.Country,
			Provider:      cfg.ID,
			RawContent:    trimTruncationMarker(plainText(r.Content)),
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// trimTruncationMarker removes the "... [1234 chars]" suffix GNews appends to content.
func trimTruncationMarker(s string) string {
	if i := strings.LastIndex(s, "... ["); i > 0 && strings.HasSuffix(s, "chars]") {
		return strings.TrimSpace(s[:i]) + "..."
	}
	return s
}
