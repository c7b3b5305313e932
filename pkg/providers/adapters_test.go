package providers

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/techbeetle/news-router/pkg/httpclient"
)

type mockResponse struct {
	body       []byte
	statusCode int
}

func (r mockResponse) Body() []byte    { return r.body }
func (r mockResponse) StatusCode() int { return r.statusCode }

type mockHTTPClient struct {
	status int
	body   string
	err    error
	gotURL *string
}

func (m mockHTTPClient) Get(_ context.Context, rawURL string, _ map[string]string) (httpclient.Response, error) {
	if m.gotURL != nil {
		*m.gotURL = rawURL
	}
	if m.err != nil {
		return nil, m.err
	}
	status := m.status
	if status == 0 {
		status = 200
	}
	return mockResponse{body: []byte(m.body), statusCode: status}, nil
}

func queryOf(t *testing.T, raw string) url.Values {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url %q: %v", raw, err)
	}
	return u.Query()
}

const newsDataBody = `{
  "status": "success",
  "results": [
    {"article_id": "nd1", "title": "Chip Wars", "link": "https://ex.com/chips",
     "description": "<p>New <b>fabs</b> announced</p>", "content": "ONLY AVAILABLE IN PAID PLANS",
     "pubDate": "2024-01-02 10:00:00", "image_url": "https://ex.com/chips.png"},
    {"article_id": "nd2", "title": "", "link": "https://ex.com/untitled"},
    {"article_id": "nd3", "title": "Robots", "link": "https://ex.com/robots", "source_name": "Robo Daily",
     "pubDate": "not a date"}
  ]
}`

func TestNewsDataFetcherMapsResults(t *testing.T) {
	var got string
	f := NewNewsDataFetcher(mockHTTPClient{body: newsDataBody, gotURL: &got})

	res := f.Fetch(context.Background(), Provider{ID: TypeNewsData, APIKey: "nd-key"}, Query{Country: "us", Limit: 5})
	if !res.Available() {
		t.Fatalf("expected ok result, got %+v", res)
	}
	if len(res.Articles) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(res.Articles))
	}

	q := queryOf(t, got)
	if q.Get("apikey") != "nd-key" || q.Get("country") != "us" || q.Get("category") != "technology" || q.Get("size") != "5" {
		t.Fatalf("unexpected query %v", q)
	}
	if q.Has("q") {
		t.Fatalf("empty search should not be sent")
	}

	first := res.Articles[0]
	if first.Source != newsDataSource {
		t.Errorf("expected fallback source, got %q", first.Source)
	}
	if first.Summary != "New fabs announced" {
		t.Errorf("summary not flattened: %q", first.Summary)
	}
	if first.PublishedAt != "2024-01-02T10:00:00Z" {
		t.Errorf("published not normalized: %q", first.PublishedAt)
	}
	if first.RawContent != "" {
		t.Errorf("paid-plan placeholder should be dropped, got %q", first.RawContent)
	}
	if first.ID != "https://ex.com/chips" || first.SourceCountry != "us" || first.Provider != TypeNewsData {
		t.Errorf("unexpected identity fields %+v", first)
	}

	second := res.Articles[1]
	if second.Source != "Robo Daily" || second.PublishedAt != "not a date" {
		t.Errorf("unexpected second article %+v", second)
	}
}

func TestFetchersWithoutKeyAreUnavailable(t *testing.T) {
	fetchers := []Fetcher{
		NewNewsDataFetcher(nil),
		NewGNewsFetcher(nil),
		NewMediaStackFetcher(nil),
		NewGuardianFetcher(nil),
	}
	for _, f := range fetchers {
		var got string
		switch impl := f.(type) {
		case *newsDataFetcher:
			impl.client = mockHTTPClient{gotURL: &got}
		case *gnewsFetcher:
			impl.client = mockHTTPClient{gotURL: &got}
		case *mediaStackFetcher:
			impl.client = mockHTTPClient{gotURL: &got}
		case *guardianFetcher:
			impl.client = mockHTTPClient{gotURL: &got}
		}

		res := f.Fetch(context.Background(), Provider{ID: f.ID()}, Query{Country: "us", Limit: 10})
		if res.Available() {
			t.Fatalf("%s: expected unavailable without key", f.ID())
		}
		if res.Reason != errMissingKey.Error() {
			t.Fatalf("%s: unexpected reason %q", f.ID(), res.Reason)
		}
		if len(res.Articles) != 0 {
			t.Fatalf("%s: expected no articles", f.ID())
		}
		if got != "" {
			t.Fatalf("%s: no request should be issued without key", f.ID())
		}
	}
}

func TestGNewsFetcherNon2xxIsUnavailable(t *testing.T) {
	f := NewGNewsFetcher(mockHTTPClient{status: 403, body: `{"errors":["quota"]}`})
	res := f.Fetch(context.Background(), Provider{ID: TypeGNews, APIKey: "k"}, Query{Country: "in", Limit: 3})
	if res.Available() {
		t.Fatalf("expected unavailable")
	}
	if !strings.Contains(res.Reason, "status 403") {
		t.Fatalf("reason should mention status, got %q", res.Reason)
	}
}

func TestGNewsFetcherTrimsContentMarker(t *testing.T) {
	body := `{"totalArticles": 1, "articles": [{"title": "AI", "url": "https://g.ex/ai",
	  "content": "Long story here... [1520 chars]", "publishedAt": "2024-03-01T08:00:00Z",
	  "source": {"name": "Wired"}}]}`
	var got string
	f := NewGNewsFetcher(mockHTTPClient{body: body, gotURL: &got})
	res := f.Fetch(context.Background(), Provider{ID: TypeGNews, APIKey: "k"}, Query{Country: "gb", Limit: 50, Search: "ai"})
	if !res.Available() || len(res.Articles) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.Articles[0].RawContent != "Long story here..." {
		t.Fatalf("content marker not trimmed: %q", res.Articles[0].RawContent)
	}
	q := queryOf(t, got)
	if q.Get("max") != "10" || q.Get("q") != "ai" {
		t.Fatalf("limit should clamp to page max and search should pass through: %v", q)
	}
}

func TestMediaStackFetcherErrorPayload(t *testing.T) {
	f := NewMediaStackFetcher(mockHTTPClient{body: `{"error": {"code": "invalid_access_key", "message": "bad key"}}`})
	res := f.Fetch(context.Background(), Provider{ID: TypeMediaStack, APIKey: "k"}, Query{Country: "us", Limit: 5})
	if res.Available() || !strings.Contains(res.Reason, "invalid_access_key") {
		t.Fatalf("expected error payload to surface as unavailable, got %+v", res)
	}
}

func TestMediaStackFetcherUsesItemCountry(t *testing.T) {
	body := `{"data": [{"title": "Phones", "url": "https://m.ex/p", "source": "", "country": "GB",
	  "published_at": "2024-05-05T05:05:05+00:00"}]}`
	f := NewMediaStackFetcher(mockHTTPClient{body: body})
	res := f.Fetch(context.Background(), Provider{ID: TypeMediaStack, APIKey: "k"}, Query{Country: "us", Limit: 5})
	if !res.Available() || len(res.Articles) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	a := res.Articles[0]
	if a.SourceCountry != "gb" || a.Source != mediaStackSource {
		t.Fatalf("unexpected mapping %+v", a)
	}
}

func TestGuardianFetcherRespectsLimit(t *testing.T) {
	body := `{"response": {"status": "ok", "results": [
	  {"id": "technology/1", "webTitle": "One", "webUrl": "https://gu.ex/1",
	   "webPublicationDate": "2024-02-02T02:02:02Z",
	   "fields": {"trailText": "Trail &amp; more", "thumbnail": "https://gu.ex/1.jpg", "bodyText": "Body one"}},
	  {"id": "technology/2", "webTitle": "Two", "webUrl": "https://gu.ex/2"}
	]}}`
	var got string
	f := NewGuardianFetcher(mockHTTPClient{body: body, gotURL: &got})
	res := f.Fetch(context.Background(), Provider{ID: TypeGuardian, APIKey: "gk"}, Query{Country: "us", Limit: 1})
	if !res.Available() || len(res.Articles) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	a := res.Articles[0]
	if a.Source != guardianSource || a.SourceCountry != guardianCountry {
		t.Fatalf("unexpected attribution %+v", a)
	}
	if a.Summary != "Trail & more" || a.RawContent != "Body one" {
		t.Fatalf("unexpected text mapping %+v", a)
	}
	if queryOf(t, got).Get("section") != "technology" {
		t.Fatalf("section filter missing in %s", got)
	}
}

func TestMalformedJSONIsUnavailable(t *testing.T) {
	f := NewGuardianFetcher(mockHTTPClient{body: `{"response": `})
	res := f.Fetch(context.Background(), Provider{ID: TypeGuardian, APIKey: "gk"}, Query{Limit: 1})
	if res.Available() || !strings.Contains(res.Reason, "decode guardian response") {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestTransportErrorRedactsURL(t *testing.T) {
	transportErr := &url.Error{Op: "Get", URL: "https://newsdata.io/api/1/latest?apikey=secret", Err: errors.New("connection refused")}
	f := NewNewsDataFetcher(mockHTTPClient{err: transportErr})
	res := f.Fetch(context.Background(), Provider{ID: TypeNewsData, APIKey: "secret"}, Query{Country: "us", Limit: 1})
	if res.Available() {
		t.Fatalf("expected unavailable")
	}
	if strings.Contains(res.Reason, "secret") {
		t.Fatalf("reason leaks api key: %q", res.Reason)
	}
	if !strings.Contains(res.Reason, "connection refused") {
		t.Fatalf("reason lost cause: %q", res.Reason)
	}
}

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Gadget Feed</title>
    <item>
      <title>Foldable phones return</title>
      <link>https://feed.ex/fold</link>
      <description>&lt;p&gt;Hinges are back&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
      <enclosure url="https://feed.ex/fold.jpg" type="image/jpeg" length="100"/>
    </item>
    <item>
      <title>Gardening tips</title>
      <link>https://feed.ex/garden</link>
    </item>
  </channel>
</rss>`

func TestRSSFetcherParsesFeed(t *testing.T) {
	f := NewRSSFetcher(mockHTTPClient{body: sampleFeed})
	cfg := Provider{ID: "gadgets", Type: TypeRSS, Name: "Gadgets", BaseURL: "https://feed.ex/rss"}

	res := f.Fetch(context.Background(), cfg, Query{Country: "us", Limit: 5, Search: "phone"})
	if !res.Available() || len(res.Articles) != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	a := res.Articles[0]
	if a.Source != "Gadgets" || a.ImageURL != "https://feed.ex/fold.jpg" {
		t.Fatalf("unexpected mapping %+v", a)
	}
	if a.Summary != "Hinges are back" {
		t.Fatalf("summary not flattened: %q", a.Summary)
	}
	if a.PublishedAt != "2006-01-02T15:04:05Z" {
		t.Fatalf("unexpected published %q", a.PublishedAt)
	}
}

func TestNormalizeTimestampKeepsUnparseable(t *testing.T) {
	if got := normalizeTimestamp("  "); got != "" {
		t.Fatalf("blank should stay empty, got %q", got)
	}
	if got := normalizeTimestamp("yesterday-ish"); got != "yesterday-ish" {
		t.Fatalf("unparseable should pass through, got %q", got)
	}
}
