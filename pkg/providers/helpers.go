package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"
	"github.com/techbeetle/news-router/internal/domain"
)

const topicTechnology = "technology"

// errMissingKey marks a provider that is disabled because its secret is absent.
var errMissingKey = errors.New("missing api key")

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}

// fetchBody issues one GET and returns the body of a 2xx response.
func fetchBody(ctx context.Context, client HTTPClient, rawURL, providerID string, headers map[string]string) ([]byte, error) {
	resp, err := client.Get(ctx, rawURL, headers)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", providerID, redactURLError(err))
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, fmt.Errorf("%s returned status %d body: %s", providerID, resp.StatusCode(), responseSnippet(body))
	}
	return body, nil
}

// getJSON fetches rawURL and decodes the JSON body into out.
func getJSON(ctx context.Context, client HTTPClient, rawURL, providerID string, headers map[string]string, out any) error {
	body, err := fetchBody(ctx, client, rawURL, providerID, headers)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", providerID, err)
	}
	return nil
}

// redactURLError drops the request URL (which carries the API key) from transport errors.
func redactURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s: %w", ue.Op, ue.Err)
	}
	return err
}

// buildURL appends params to base, keeping any query already present.
func buildURL(base string, params url.Values) (string, error) {
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := parsed.Query()
	for k, vals := range params {
		for _, v := range vals {
			if strings.TrimSpace(v) != "" {
				q.Set(k, v)
			}
		}
	}
	parsed.RawQuery = q.Encode()
	return parsed.String(), nil
}

// resultFrom folds an adapter outcome into the Result sum type.
func resultFrom(providerID string, articles []domain.Article, err error) Result {
	if err != nil {
		return Unavailable(providerID, err.Error())
	}
	if articles == nil {
		articles = []domain.Article{}
	}
	return Ok(providerID, articles)
}

// plainText flattens an HTML fragment into single-spaced text.
func plainText(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			s = doc.Text()
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

// normalizeTimestamp renders a provider timestamp as RFC3339 UTC, or returns it untouched
// when it cannot be parsed.
func normalizeTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := dateparse.ParseIn(raw, time.UTC)
	if err != nil {
		return raw
	}
	return t.UTC().Format(time.RFC3339)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// keep reports whether a mapped article carries enough to be useful.
func keep(a domain.Article) bool {
	return strings.TrimSpace(a.Title) != "" && strings.TrimSpace(a.URL) != ""
}
