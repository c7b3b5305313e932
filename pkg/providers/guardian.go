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
	guardianDefaultURL = "https://content.guardianapis.com/search"
	guardianMaxPage    = 50
	guardianSource     = "The Guardian"
	guardianCountry    = "gb"
)

type guardianResponse struct {
	Response struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Results []struct {
			ID                 string `json:"id"`
			WebTitle           string `json:"webTitle"`
			WebURL             string `json:"webUrl"`
			WebPublicationDate string `json:"webPublicationDate"`
			Fields             struct {
				TrailText string `json:"trailText"`
				Thumbnail string `json:"thumbnail"`
				BodyText  string `json:"bodyText"`
			} `json:"fields"`
		} `json:"results"`
	} `json:"response"`
}

// guardianFetcher queries the Guardian content API technology section.
// The API has no country filter, so every article is attributed to the UK desk.
type guardianFetcher struct {
	client HTTPClient
}

// NewGuardianFetcher builds the Guardian adapter.
func NewGuardianFetcher(client HTTPClient) Fetcher {
	if client == nil {
		client = DefaultHTTPClient()
	}
	return &guardianFetcher{client: client}
}

func (f *guardianFetcher) ID() string { return TypeGuardian }

func (f *guardianFetcher) Fetch(ctx context.Context, cfg Provider, q Query) Result {
	articles, err := f.fetch(ctx, cfg, q)
	return resultFrom(cfg.ID, articles, err)
}

func (f *guardianFetcher) fetch(ctx context.Context, cfg Provider, q Query) ([]domain.Article, error) {
	if cfg.APIKey == "" {
		return nil, errMissingKey
	}

	limit := pageSize(cfg, q.Limit, guardianMaxPage)
	endpoint, err := buildURL(firstNonEmpty(cfg.BaseURL, guardianDefaultURL), url.Values{
		"api-key":     {cfg.APIKey},
		"section":     {topicTechnology},
		"page-size":   {strconv.Itoa(limit)},
		"order-by":    {"newest"},
		"show-fields": {"trailText,thumbnail,bodyText"},
		"q":           {q.Search},
	})
	if err != nil {
		return nil, err
	}

	var payload guardianResponse
	if err := getJSON(ctx, f.client, endpoint, cfg.ID, Headers(cfg), &payload); err != nil {
		return nil, err
	}
	if !strings.EqualFold(payload.Response.Status, "ok") {
		return nil, fmt.Errorf("guardian status %q: %s", payload.Response.Status, payload.Response.Message)
	}

	out := make([]domain.Article, 0, limit)
	for _, r := range payload.Response.Results {
		if len(out) >= limit {
			break
		}
		a := domain.Article{
			ID:            firstNonEmpty(r.WebURL, r.ID),
			Title:         strings.TrimSpace(r.WebTitle),
			Summary:       plainText(r.Fields.TrailText),
			URL:           strings.TrimSpace(r.WebURL),
			ImageURL:      strings.TrimSpace(r.Fields.Thumbnail),
			PublishedAt:   normalizeTimestamp(r.WebPublicationDate),
			Source:        guardianSource,
			SourceCountry: guardianCountry,
			Provider:      cfg.ID,
			RawContent:    plainText(r.Fields.BodyText),
		}
		if keep(a) {
			out = append(out, a)
		}
	}
	return out, nil
}
