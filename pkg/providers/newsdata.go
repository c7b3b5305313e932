package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/techbeetle/news-router/internal/domain"
)

const (
	newsDataDefaultURL = "https://newsdata.io/api/1/latest"
	newsDataMaxPage    = 10
	newsDataSource     = "NewsData"
)

type newsDataResponse struct {
	Status  string `json:"status"`
	Results []struct {
		ArticleID   string `json:"article_id"`
		Title       string `json:"title"`
		Link        string `json:"link"`
		Description string `json:"description"`
		Content     string `json:"content"`
		PubDate     string `json:"pubDate"`
		ImageURL    string `json:"image_url"`
		SourceID    string `json:"source_id"`
		SourceName  string `json:"source_name"`
	} `json:"results"`
}

// newsDataFetcher queries the NewsData.io latest-news endpoint.
type newsDataFetcher struct {
	client HTTPClient
}

// NewNewsDataFetcher builds the NewsData.io adapter.
func NewNewsDataFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &newsDataFetcher{client: client}
}

func (f *newsDataFetcher) ID() string { return TypeNewsData }

func (f *newsDataFetcher) Fetch(ctx context.Context, cfg Provider, q Query) Result {
	articles, err := f.fetch(ctx, cfg, q)
	return resultFrom(cfg.ID, articles, err)
}

func (f *newsDataFetcher) fetch(ctx context.Context, cfg Provider, q Query) ([]domain.Article, error) {
	if cfg.APIKey == "" {
		return nil, errMissingKey
	}

	size := pageSize(cfg, q.Limit, newsDataMaxPage)
	endpoint, err := buildURL(firstNonEmpty(cfg.BaseURL, newsDataDefaultURL), url.Values{
		"apikey":   {cfg.APIKey},
		"country":  {q.Country},
		"category": {topicTechnology},
		"language": {ConfigString(cfg, ConfigLanguageKey, "en")},
		"size":     {strconv.Itoa(size)},
		"q":        {q.Search},
	})
	if err != nil {
		return nil, err
	}

	var payload newsDataResponse
	if err := getJSON(ctx, f.client, endpoint, cfg.ID, Headers(cfg), &payload); err != nil {
		return nil, err
	}
	if !strings.EqualFold(payload.Status, "success") {
		return nil, fmt.Errorf("newsdata status %q", payload.Status)
	}

	out := make([]domain.Article, 0, size)
	for _, r := range payload.Results {
		if len(out) >= size {
			break
		}
		a := domain.Article{
			ID:            firstNonEmpty(r.Link, r.ArticleID),
			Title:         strings.TrimSpace(r.Title),
			Summary:       plainText(r.Description),
			URL:           strings.TrimSpace(r.Link),
			ImageURL:      strings.TrimSpace(r.ImageURL),
			PublishedAt:   normalizeTimestamp(r.PubDate),
			Source:        firstNonEmpty(r.SourceName, r.SourceID, newsDataSource),
			SourceCountry: q.Country,
			Provider:      cfg.ID,
			RawContent:    usableContent(r.Content),
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}

// usableContent drops the placeholder NewsData returns on free plans.
func usableContent(s string) string {
	s = plainText(s)
	if strings.HasPrefix(strings.ToUpper(s), "ONLY AVAILABLE IN PAID PLANS") {
		return ""
	}
	return s
}
