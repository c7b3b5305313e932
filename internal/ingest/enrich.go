package ingest

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/techbeetle/news-router/internal/domain"
	"github.com/techbeetle/news-router/internal/logger"
	"github.com/techbeetle/news-router/pkg/httpclient"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
	maxEnrichPerRun  = 10
)

// OGEnricher fetches article pages and pulls OpenGraph metadata for image-less articles.
type OGEnricher struct {
	client httpclient.Client
	delay  time.Duration
	limit  int
	log    logger.Logger
}

// NewOGEnricher constructs an enricher; delay throttles consecutive page fetches.
func NewOGEnricher(client httpclient.Client, delay time.Duration, log logger.Logger) *OGEnricher {
	if client == nil {
		client = httpclient.NewRestyClient(httpclient.Options{Timeout: 5 * time.Second})
	}
	return &OGEnricher{client: client, delay: delay, limit: maxEnrichPerRun, log: logger.Ensure(log)}
}

// Enrich returns a copy of articles with missing images (and empty summaries) filled from page metadata.
// Failures leave the article untouched.
func (e *OGEnricher) Enrich(ctx context.Context, articles []domain.Article) []domain.Article {
	out := append([]domain.Article(nil), articles...)

	fetched := 0
	for i, art := range out {
		if art.ImageURL != "" || art.URL == "" {
			continue
		}
		if fetched >= e.limit {
			break
		}
		if fetched > 0 && e.delay > 0 {
			timer := time.NewTimer(e.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return out
			case <-timer.C:
			}
		}
		if ctx.Err() != nil {
			return out
		}
		fetched++

		meta, err := e.fetchMeta(ctx, art.URL)
		if err != nil {
			e.log.WarnObj("article metadata scrape failed", "metadata_error", map[string]any{
				"provider_id": art.Provider,
				"url":         art.URL,
				"error":       err.Error(),
			})
			continue
		}
		if meta.ImageURL != "" {
			out[i].ImageURL = resolveURL(meta.ImageURL, art.URL)
		}
		if out[i].Summary == "" && meta.Description != "" {
			out[i].Summary = meta.Description
		}
	}
	return out
}

func (e *OGEnricher) fetchMeta(ctx context.Context, pageURL string) (pageMeta, error) {
	resp, err := e.client.Get(ctx, pageURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return pageMeta{}, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != 200 {
		return pageMeta{}, fmt.Errorf("status %d", resp.StatusCode())
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	return parseMeta(body)
}

type pageMeta struct {
	Title       string
	Description string
	ImageURL    string
}

func parseMeta(body []byte) (pageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageMeta{}, fmt.Errorf("parse html: %w", err)
	}

	extract := func(sel string) string {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if val, ok := node.Attr("content"); ok {
				return strings.TrimSpace(val)
			}
		}
		return ""
	}

	return pageMeta{
		Title: firstNonEmpty(
			extract(`meta[property="og:title"]`),
			strings.TrimSpace(doc.Find("title").First().Text()),
		),
		Description: firstNonEmpty(
			extract(`meta[property="og:description"]`),
			extract(`meta[name="description"]`),
		),
		ImageURL: firstNonEmpty(
			extract(`meta[property="og:image"]`),
			extract(`meta[name="twitter:image"]`),
		),
	}, nil
}

// resolveURL makes ref absolute against base; unparseable input is returned as-is.
func resolveURL(ref, base string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}
