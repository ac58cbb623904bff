package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budget/internal/persist"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "budget.db"))
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositorySaveAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, found, err := repo.Load(ctx, "budgetState"); err != nil || found {
		t.Fatalf("expected empty slot, found=%v err=%v", found, err)
	}

	if err := repo.Save(ctx, "budgetState", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, "budgetState", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, found, err := repo.Load(ctx, "budgetState")
	if err != nil || !found || string(got) != `{"v":2}` {
		t.Fatalf("unexpected load: %q found=%v err=%v", got, found, err)
	}
}

func TestSQLiteRepositoryReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("new repository: %v", err)
	}
	if err := repo.Save(ctx, "k", []byte("payload")); err != nil {
		t.Fatalf("save: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen repository: %v", err)
	}
	defer repo.Close()

	got, found, err := repo.Load(ctx, "k")
	if err != nil || !found || string(got) != "payload" {
		t.Fatalf("unexpected load after reopen: %q found=%v err=%v", got, found, err)
	}
}

func TestSQLiteRepositoryEmptyKey(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.Save(context.Background(), "", nil); !errors.Is(err, persist.ErrEmptyKey) {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
