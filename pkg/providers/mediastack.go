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
	mediaStackDefaultURL = "http://api.mediastack.com/v1/news"
	mediaStackMaxPage    = 100
	mediaStackSource     = "MediaStack"
)

type mediaStackResponse struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Data []struct {
		Author      string `json:"author"`
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Source      string `json:"source"`
		Image       string `json:"image"`
		Country     string `json:"country"`
		PublishedAt string `json:"published_at"`
	} `json:"data"`
}

// mediaStackFetcher queries the MediaStack live news endpoint.
type mediaStackFetcher struct {
	client HTTPClient
}

// NewMediaStackFetcher builds the MediaStack adapter.
func NewMediaStackFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &mediaStackFetcher{client: client}
}

func (f *mediaStackFetcher) ID() string { return TypeMediaStack }

func (f *mediaStackFetcher) Fetch(ctx context.Context, cfg Provider, q Query) Result {
	articles, err := f.fetch(ctx, cfg, q)
	return resultFrom(cfg.ID, articles, err)
}

func (f *mediaStackFetcher) fetch(ctx context.Context, cfg Provider, q Query) ([]domain.Article, error) {
	if cfg.APIKey == "" {
		return nil, errMissingKey
	}

	limit := pageSize(cfg, q.Limit, mediaStackMaxPage)
	endpoint, err := buildURL(firstNonEmpty(cfg.BaseURL, mediaStackDefaultURL), url.Values{
		"access_key": {cfg.APIKey},
		"categories": {topicTechnology},
		"countries":  {q.Country},
		"languages":  {ConfigString(cfg, ConfigLanguageKey, "en")},
		"limit":      {strconv.Itoa(limit)},
		"sort":       {"published_desc"},
		"keywords":   {q.Search},
	})
	if err != nil {
		return nil, err
	}

	var payload mediaStackResponse
	if err := getJSON(ctx, f.client, endpoint, cfg.ID, Headers(cfg), &payload); err != nil {
		return nil, err
	}
	if payload.Error != nil {
		return nil, fmt.Errorf("mediastack error %s: %s", payload.Error.Code, payload.Error.Message)
	}

	out := make([]domain.Article, 0, limit)
	for _, r := range payload.Data {
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
			Source:        firstNonEmpty(r.Source, mediaStackSource),
			SourceCountry: strings.ToLower(firstNonEmpty(r.Country, q.Country)),
			Provider:      cfg.ID,
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
