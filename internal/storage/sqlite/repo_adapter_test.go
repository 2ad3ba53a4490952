package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"energyetl/internal/records"
	"energyetl/internal/storage"
)

func TestRegistrationUsesNewRepositoryHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var (
		gotCfg Config
		closed bool
		fake   = &Repository{}
	)
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return fake, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: "x.db", Table: "energy"})
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	if gotCfg.DSN != "x.db" || gotCfg.Table != "energy" {
		t.Fatalf("hook cfg = %+v", gotCfg)
	}
	w, ok := repo.(*wrappedRepo)
	if !ok || w.Repository != fake {
		t.Fatalf("storage.New() = %T, want *wrappedRepo around the fake", repo)
	}
	_ = repo.Close()
	if !closed {
		t.Fatal("Close did not invoke closeFn")
	}
}

func TestRepository_EnsureTableAndCopy(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "energy.db")
	repo, closeFn, err := NewRepository(ctx, Config{DSN: dsn, Table: "energy_summary"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	spec := storage.TableSpec{
		Table: "energy_summary",
		Columns: []records.Column{
			{Name: "year", Kind: records.KindInt},
			{Name: "co2_sum", Kind: records.KindFloat},
			{Name: "is_major_economy", Kind: records.KindBool},
			{Name: "continent", Kind: records.KindText},
		},
		Key: []string{"year"},
	}
	if err := storage.EnsureTable(ctx, "sqlite", &wrappedRepo{Repository: repo}, spec); err != nil {
		t.Fatalf("EnsureTable: %v", err)
	}
	// Idempotent.
	if err := storage.EnsureTable(ctx, "sqlite", &wrappedRepo{Repository: repo}, spec); err != nil {
		t.Fatalf("EnsureTable again: %v", err)
	}

	cols := []string{"year", "co2_sum", "is_major_economy", "continent"}
	n, err := repo.CopyFrom(ctx, cols, [][]any{
		{int64(2000), 1.25, true, "Europe"},
		{int64(2001), nil, false, ""},
	})
	if err != nil || n != 2 {
		t.Fatalf("CopyFrom = %d, %v", n, err)
	}

	var (
		count int
		sum   float64
	)
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(co2_sum), 0) FROM energy_summary`).Scan(&count, &sum); err != nil {
		t.Fatalf("query: %v", err)
	}
	if count != 2 || sum != 1.25 {
		t.Fatalf("count=%d sum=%v, want 2 and 1.25", count, sum)
	}

	// Duplicate primary key fails the whole batch.
	if _, err := repo.CopyFrom(ctx, cols, [][]any{{int64(2000), 1.0, false, "x"}}); err == nil {
		t.Fatal("expected primary key violation")
	}
}

func TestRepository_CopyFromValidation(t *testing.T) {
	ctx := context.Background()
	repo, closeFn, err := NewRepository(ctx, Config{DSN: ":memory:", Table: "t"})
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	defer closeFn()

	if _, err := repo.CopyFrom(ctx, nil, [][]any{{1}}); err == nil {
		t.Fatal("expected error for empty columns")
	}
	if n, err := repo.CopyFrom(ctx, []string{"a"}, nil); err != nil || n != 0 {
		t.Fatalf("empty rows = %d, %v", n, err)
	}
	if err := repo.Exec(ctx, `CREATE TABLE "t" ("a" INTEGER)`); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if _, err := repo.CopyFrom(ctx, []string{"a"}, [][]any{{1, 2}}); err == nil {
		t.Fatal("expected row length mismatch error")
	}
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	if _, _, err := NewRepository(context.Background(), Config{}); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}
