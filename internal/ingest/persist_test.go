package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/techbeetle/news-router/internal/content"
	"github.com/techbeetle/news-router/internal/domain"
	"github.com/techbeetle/news-router/pkg/publishers"
)

type fakeRepo struct {
	categoryErr   map[string]error
	upsertErr     map[string]error
	sourceErr     error
	categoryCalls []string
	items         []*content.ContentItem
	sources       []*content.ContentSource
	logs          []*content.IngestionLog
}

func (f *fakeRepo) EnsureCategory(_ context.Context, slug, name string) (content.Category, error) {
	f.categoryCalls = append(f.categoryCalls, slug)
	if err := f.categoryErr[slug]; err != nil {
		return content.Category{}, err
	}
	return content.Category{ID: "cat-" + slug, Slug: slug, Name: name}, nil
}

func (f *fakeRepo) UpsertContent(_ context.Context, item *content.ContentItem) error {
	if err := f.upsertErr[item.Slug]; err != nil {
		return err
	}
	f.items = append(f.items, item)
	return nil
}

func (f *fakeRepo) UpsertSource(_ context.Context, src *content.ContentSource) error {
	if f.sourceErr != nil {
		return f.sourceErr
	}
	f.sources = append(f.sources, src)
	return nil
}

func (f *fakeRepo) LogIngestion(_ context.Context, entry *content.IngestionLog) error {
	f.logs = append(f.logs, entry)
	return nil
}

type fakeEvents struct {
	events []publishers.Event
	err    error
}

func (f *fakeEvents) Publish(_ context.Context, evt publishers.Event) (int, error) {
	f.events = append(f.events, evt)
	if f.err != nil {
		return 0, f.err
	}
	return 1, nil
}

func rewritten(slugs ...string) []domain.Article {
	out := make([]domain.Article, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, domain.Article{ID: s, Slug: s, Title: s, Source: "Wired", Provider: "gnews", PublishedAt: "2024-01-01T00:00:00Z"})
	}
	return out
}

func fixedNow() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }

type logEntry struct {
	level string
	msg   string
	obj   interface{}
}

type recordingLogger struct {
	entries []logEntry
}

func (r *recordingLogger) add(level, msg string, obj interface{}) {
	r.entries = append(r.entries, logEntry{level: level, msg: msg, obj: obj})
}

func (r *recordingLogger) InfoObj(msg, _ string, obj interface{})  { r.add("info", msg, obj) }
func (r *recordingLogger) DebugObj(msg, _ string, obj interface{}) { r.add("debug", msg, obj) }
func (r *recordingLogger) WarnObj(msg, _ string, obj interface{})  { r.add("warn", msg, obj) }
func (r *recordingLogger) ErrorObj(msg, _ string, obj interface{}) { r.add("error", msg, obj) }

func (r *recordingLogger) find(msg string) (logEntry, bool) {
	for _, e := range r.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return logEntry{}, false
}

func TestPersistWithoutAuthorWritesNothing(t *testing.T) {
	repo := &fakeRepo{}
	events := &fakeEvents{}
	log := &recordingLogger{}
	p := NewPersister(PersisterOptions{Repository: repo, Events: events, Log: log, Now: fixedNow})

	stats := p.Persist(context.Background(), Batch{RunID: "r1", Country: "us", Articles: rewritten("a")})
	if !stats.Skipped || stats.Saved != 0 {
		t.Fatalf("expected skip, got %+v", stats)
	}
	if len(repo.items) != 0 || len(repo.sources) != 0 || len(repo.logs) != 0 || len(repo.categoryCalls) != 0 {
		t.Fatalf("no writes expected without author, got %+v", repo)
	}
	if len(events.events) != 0 {
		t.Fatalf("no events expected without author")
	}
	entry, ok := log.find("persistence skipped")
	if !ok || entry.level != "warn" {
		t.Fatalf("expected warn log for missing author, got %+v", log.entries)
	}
	if reason := entry.obj.(map[string]any)["reason"]; reason != "default author id not configured" {
		t.Fatalf("unexpected reason %v", reason)
	}
}

func TestPersistWithoutRepositoryIsLoggedNoop(t *testing.T) {
	log := &recordingLogger{}
	p := NewPersister(PersisterOptions{AuthorID: "author", Log: log})

	stats := p.Persist(context.Background(), Batch{RunID: "r2", Articles: rewritten("a")})
	if !stats.Skipped {
		t.Fatalf("expected skip without repository")
	}
	entry, ok := log.find("persistence skipped")
	if !ok {
		t.Fatalf("skip without repository should be logged, got %+v", log.entries)
	}
	if reason := entry.obj.(map[string]any)["reason"]; reason != "content repository not configured" {
		t.Fatalf("unexpected reason %v", reason)
	}
}

func TestPersistUpsertsAndRunsSideEffects(t *testing.T) {
	repo := &fakeRepo{}
	events := &fakeEvents{}
	p := NewPersister(PersisterOptions{Repository: repo, Events: events, AuthorID: "author-1", Now: fixedNow})

	stats := p.Persist(context.Background(), Batch{RunID: "r1", Country: "us", Articles: rewritten("a", "b"), Fetched: 5})
	if stats.Saved != 2 || stats.Failed != 0 || stats.SideEffectFailures != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if len(repo.categoryCalls) != 1 || repo.categoryCalls[0] != "technology-us" {
		t.Fatalf("category should be resolved once per batch, calls=%v", repo.categoryCalls)
	}
	item := repo.items[0]
	if item.CategoryID != "cat-technology-us" || item.AuthorID != "author-1" || item.PublishedAt == nil {
		t.Fatalf("unexpected item %+v", item)
	}
	if len(repo.sources) != 2 || repo.sources[0].Provider != "gnews" {
		t.Fatalf("source metadata not written: %+v", repo.sources)
	}
	if len(events.events) != 2 || events.events[0].RunID != "r1" || events.events[0].Slug != "a" {
		t.Fatalf("events not published: %+v", events.events)
	}
	entry := repo.logs[0]
	if entry.ID != "r1" || entry.Saved != 2 || entry.Fetched != 5 || entry.Returned != 2 {
		t.Fatalf("unexpected ingestion log %+v", entry)
	}
}

func TestPersistFallsBackToGenericCategory(t *testing.T) {
	repo := &fakeRepo{categoryErr: map[string]error{"technology-in": errors.New("denied")}}
	p := NewPersister(PersisterOptions{Repository: repo, AuthorID: "author", Now: fixedNow})

	p.Persist(context.Background(), Batch{Country: "in", Articles: rewritten("a", "b")})
	if len(repo.items) != 2 || repo.items[0].CategoryID != "cat-technology" || repo.items[1].CategoryID != "cat-technology" {
		t.Fatalf("expected generic category, got %+v", repo.items)
	}
	if len(repo.categoryCalls) != 2 {
		t.Fatalf("fallback should be memoized, calls=%v", repo.categoryCalls)
	}
}

func TestPersistIsolatesFailures(t *testing.T) {
	repo := &fakeRepo{
		upsertErr: map[string]error{"b": errors.New("constraint")},
		sourceErr: errors.New("source table missing"),
	}
	events := &fakeEvents{err: errors.New("queue down")}
	p := NewPersister(PersisterOptions{Repository: repo, Events: events, AuthorID: "author", Now: fixedNow})

	stats := p.Persist(context.Background(), Batch{Country: "us", Articles: rewritten("a", "b", "c")})
	if stats.Saved != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	// two side effects per saved article, both failing
	if stats.SideEffectFailures != 4 {
		t.Fatalf("expected 4 side effect failures, got %d", stats.SideEffectFailures)
	}
	if len(events.events) != 2 {
		t.Fatalf("publish should still run after source failure, got %d", len(events.events))
	}
}
