package ingest

import (
	"testing"

	"github.com/techbeetle/news-router/internal/domain"
)

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	in := []domain.Article{
		{ID: "1", Title: "AI Chips", Source: "Wired", PublishedAt: "2024-01-01T00:00:00Z", Provider: "gnews"},
		{ID: "2", Title: "ai chips", Source: "Wired", PublishedAt: "2024-01-01T00:00:00Z", Provider: "newsdata"},
		{ID: "3", Title: "AI Chips", Source: "Verge", PublishedAt: "2024-01-01T00:00:00Z", Provider: "guardian"},
	}

	got := Dedupe(in)
	if len(got) != 2 {
		t.Fatalf("expected 2 articles, got %d", len(got))
	}
	if got[0].ID != "1" || got[1].ID != "3" {
		t.Fatalf("unexpected order/survivors: %s, %s", got[0].ID, got[1].ID)
	}
}

func TestDedupeTreatsNearDuplicatesAsDistinct(t *testing.T) {
	in := []domain.Article{
		{Title: "AI Chips", Source: "Wired", PublishedAt: "2024-01-01T00:00:00Z"},
		{Title: "AI  Chips", Source: "Wired", PublishedAt: "2024-01-01T00:00:00Z"},
		{Title: "AI Chips", Source: "Wired", PublishedAt: "2024-01-01T00:05:00Z"},
		{Title: "AI Chips", Source: "Wired"},
	}
	if got := Dedupe(in); len(got) != 4 {
		t.Fatalf("exact-match dedupe should keep all 4, got %d", len(got))
	}
}

func TestDedupeEmpty(t *testing.T) {
	if got := Dedupe(nil); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}
