package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/tabscout/tabscout/pkg/models"
)

func skipIfNoES(t *testing.T) *Elastic {
	t.Helper()

	if os.Getenv("SKIP_ES_TESTS") == "1" {
		t.Skip("Skipping ES tests (SKIP_ES_TESTS=1)")
	}

	s, err := NewElastic(ElasticConfig{
		Addresses: []string{"http://localhost:9200"},
		Index:     "tabscout-test",
	})
	if err != nil {
		t.Skipf("Skipping ES tests: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !s.Ping(ctx) {
		t.Skip("Skipping ES tests: Elasticsearch not available")
	}
	return s
}

func TestElastic_UpsertGetRemove(t *testing.T) {
	s := skipIfNoES(t)
	ctx := context.Background()

	s.DeleteIndex(ctx)
	if err := s.CreateIndex(ctx); err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}
	// Idempotent on an existing index.
	if err := s.CreateIndex(ctx); err != nil {
		t.Fatalf("CreateIndex() second call error = %v", err)
	}
	defer s.DeleteIndex(ctx)

	judge := models.Judge{
		ID:     "12345",
		Name:   "Alice Smith",
		School: "Lincoln High School",
		Ballots: []models.Ballot{
			{Tournament: "Glenbrooks", Date: "2025-11-22", Round: "3", Vote: "Aff"},
		},
	}

	if err := s.Upsert(ctx, judge); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	s.Refresh(ctx)

	got, err := s.Get(ctx, "12345")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Alice Smith" || len(got.Ballots) != 1 {
		t.Errorf("Get() = %+v", got)
	}

	// Same key again must replace, not duplicate.
	judge.Name = "Alice S. Smith"
	if err := s.Upsert(ctx, judge); err != nil {
		t.Fatalf("Upsert() update error = %v", err)
	}
	s.Refresh(ctx)

	judges, err := s.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(judges) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(judges))
	}
	if judges[0].Name != "Alice S. Smith" {
		t.Errorf("Name = %q, want updated value", judges[0].Name)
	}

	if err := s.Remove(ctx, "12345"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	s.Refresh(ctx)
	if _, err := s.Get(ctx, "12345"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after Remove error = %v, want ErrNotFound", err)
	}
}

func TestElastic_GetNotFound(t *testing.T) {
	s := skipIfNoES(t)
	ctx := context.Background()

	s.DeleteIndex(ctx)
	if err := s.CreateIndex(ctx); err != nil {
		t.Fatalf("CreateIndex() error = %v", err)
	}
	defer s.DeleteIndex(ctx)

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}
