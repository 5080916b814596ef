package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"todolists/model"
)

func TestSQLiteSaveLoadAndUpsert(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "todolists.db")
	p, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	if _, err := p.Load(ctx, model.ListsKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	first := mustEncode(t, sampleSnapshot("first"))
	second := mustEncode(t, sampleSnapshot("second"))
	if err := p.Save(ctx, model.ListsKey, first); err != nil {
		t.Fatalf("save first failed: %v", err)
	}
	if err := p.Save(ctx, model.ListsKey, second); err != nil {
		t.Fatalf("save second failed: %v", err)
	}

	got, err := p.Load(ctx, model.ListsKey)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if string(got) != string(second) {
		t.Fatalf("expected upserted value\nwant=%s\ngot=%s", second, got)
	}
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "todolists.db")

	p, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := p.Save(ctx, model.ActiveKey, []byte("7")); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := OpenSQLite(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })

	got, err := reopened.Load(ctx, model.ActiveKey)
	if err != nil {
		t.Fatalf("load after reopen failed: %v", err)
	}
	if string(got) != "7" {
		t.Fatalf("expected 7, got %s", got)
	}
}

func TestSQLiteInMemory(t *testing.T) {
	ctx := context.Background()
	p, err := OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open memory db failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	if err := p.Save(ctx, "k", []byte(`{"a":1}`)); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	got, err := p.Load(ctx, "k")
	if err != nil || string(got) != `{"a":1}` {
		t.Fatalf("unexpected load: %s err=%v", got, err)
	}
}
