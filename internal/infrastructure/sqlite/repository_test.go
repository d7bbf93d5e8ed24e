package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"aavetx/internal/application"
	"aavetx/internal/domain"

	"github.com/google/uuid"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "lookups.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRecordAndQueryLookups(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	records := []domain.LookupRecord{
		{ID: uuid.New(), Hash: "0x1", Found: true, Chain: domain.ChainEthereum, RowCount: 2, ProbeCount: 1, RequestedAt: base, Elapsed: 120 * time.Millisecond},
		{ID: uuid.New(), Hash: "0x2", Found: false, ProbeCount: 9, FailedChains: 1, RequestedAt: base.Add(time.Minute)},
		{ID: uuid.New(), Hash: "0x3", Found: true, Chain: domain.ChainFantom, RowCount: 1, ProbeCount: 9, RequestedAt: base.Add(2 * time.Minute)},
	}
	for _, record := range records {
		if err := repo.RecordLookup(ctx, record); err != nil {
			t.Fatalf("record lookup: %v", err)
		}
	}
	// duplicates are ignored
	if err := repo.RecordLookup(ctx, records[0]); err != nil {
		t.Fatalf("record duplicate: %v", err)
	}

	recent, err := repo.RecentLookups(ctx, 10)
	if err != nil {
		t.Fatalf("recent lookups: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 lookups, got %d", len(recent))
	}
	if recent[0].Hash != "0x3" || recent[2].Hash != "0x1" {
		t.Errorf("expected newest first, got %s..%s", recent[0].Hash, recent[2].Hash)
	}
	first := recent[2]
	if first.ID != records[0].ID || !first.Found || first.Chain != domain.ChainEthereum || first.RowCount != 2 {
		t.Errorf("unexpected record %+v", first)
	}
	if !first.RequestedAt.Equal(base) || first.Elapsed != 120*time.Millisecond {
		t.Errorf("unexpected timing %v %v", first.RequestedAt, first.Elapsed)
	}

	found, err := repo.QueryLookups(ctx, application.LookupQueryFilter{FoundOnly: true})
	if err != nil {
		t.Fatalf("query found: %v", err)
	}
	if len(found) != 2 {
		t.Errorf("expected 2 found lookups, got %d", len(found))
	}

	byChain, err := repo.QueryLookups(ctx, application.LookupQueryFilter{Chain: domain.ChainFantom})
	if err != nil {
		t.Fatalf("query chain: %v", err)
	}
	if len(byChain) != 1 || byChain[0].Hash != "0x3" {
		t.Errorf("unexpected chain filter result %+v", byChain)
	}

	byHash, err := repo.QueryLookups(ctx, application.LookupQueryFilter{Hash: "0x2", Limit: 1})
	if err != nil {
		t.Fatalf("query hash: %v", err)
	}
	if len(byHash) != 1 || byHash[0].FailedChains != 1 {
		t.Errorf("unexpected hash filter result %+v", byHash)
	}
}

func TestPing(t *testing.T) {
	if err := newRepo(t).Ping(context.Background()); err != nil {
		t.Errorf("ping failed: %v", err)
	}
}
