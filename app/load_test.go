package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"todolists/model"
	"todolists/store"
)

func seed(t *testing.T, p store.Provider, key, raw string) {
	t.Helper()
	if err := p.Save(context.Background(), key, []byte(raw)); err != nil {
		t.Fatalf("seed %s failed: %v", key, err)
	}
}

func TestOpenLoadsLegacyLayoutAndAssignsItemIDs(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `[
		{"id": 11, "title": "Work", "todos": [{"text": "Buy milk", "status": "active"}]},
		{"id": 22, "title": "Home", "todos": []}
	]`)
	seed(t, p, model.ActiveKey, `22`)

	s := mustOpen(t, p)
	if s.ActiveID() != 22 {
		t.Fatalf("expected stored active id 22, got %d", s.ActiveID())
	}
	work, err := s.List(11)
	if err != nil {
		t.Fatalf("list 11 missing: %v", err)
	}
	if len(work.Items) != 1 || work.Items[0].ID == "" {
		t.Fatalf("expected legacy item with assigned id, got %+v", work.Items)
	}

	stored := storedSnapshot(t, p)
	if stored.Lists[0].Items[0].ID != work.Items[0].ID {
		t.Fatalf("expected assigned item ids to be persisted")
	}
}

func TestOpenFallsBackToFirstListForDanglingActiveID(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `{"version":1,"lists":[{"id":5,"title":"A","items":[]},{"id":6,"title":"B","items":[]}]}`)
	seed(t, p, model.ActiveKey, `999`)

	s := mustOpen(t, p)
	if s.ActiveID() != 5 {
		t.Fatalf("expected first list active, got %d", s.ActiveID())
	}
	if storedActive(t, p) != 5 {
		t.Fatalf("expected repaired active id persisted")
	}
}

func TestOpenFallsBackWhenActiveIDMissingOrCorrupt(t *testing.T) {
	for name, active := range map[string]string{"missing": "", "corrupt": `"abc"`} {
		t.Run(name, func(t *testing.T) {
			p := store.NewMemoryProvider()
			seed(t, p, model.ListsKey, `{"version":1,"lists":[{"id":5,"title":"A","items":[]}]}`)
			if active != "" {
				seed(t, p, model.ActiveKey, active)
			}
			s := mustOpen(t, p)
			if s.ActiveID() != 5 {
				t.Fatalf("expected list 5 active, got %d", s.ActiveID())
			}
		})
	}
}

func TestOpenBootstrapsEmptyCollection(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `{"version":1,"lists":[]}`)

	s := mustOpen(t, p)
	if len(s.Lists()) != 1 || s.Active().Title != model.BootstrapTitle {
		t.Fatalf("expected bootstrap list, got %+v", s.Lists())
	}
}

func TestOpenRepairsTitlesAndDuplicateIDs(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `{"version":1,"lists":[
		{"id":5,"title":"","items":[{"id":"x","text":"a","status":"active"},{"id":"x","text":"b","status":"done"}]},
		{"id":5,"title":"Copy","items":[]}
	]}`)
	seed(t, p, model.ActiveKey, `5`)

	s := mustOpen(t, p)
	lists := s.Lists()
	if lists[0].ID == lists[1].ID {
		t.Fatalf("expected duplicate list id reassigned, got %d twice", lists[0].ID)
	}
	if lists[0].Title != model.FallbackTitle {
		t.Fatalf("expected blank title repaired, got %q", lists[0].Title)
	}
	if lists[0].Items[0].ID == lists[0].Items[1].ID {
		t.Fatalf("expected duplicate item id reassigned")
	}
	if s.ActiveID() != 5 {
		t.Fatalf("expected first list to keep id 5 and stay active, got %d", s.ActiveID())
	}
}

func TestOpenCorruptWithoutBackupsBootstraps(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `{"lists": [`)

	s := mustOpen(t, p)
	if len(s.Lists()) != 1 || s.Active().Title != model.BootstrapTitle {
		t.Fatalf("expected bootstrap after corruption, got %+v", s.Lists())
	}
	if got := storedSnapshot(t, p); len(got.Lists) != 1 {
		t.Fatalf("expected fresh snapshot persisted, got %+v", got)
	}

	key := s.Recovery().QuarantineKey
	if !strings.HasPrefix(key, model.ListsKey+".corrupt-") {
		t.Fatalf("expected quarantine key, got %q", key)
	}
	kept, err := p.Load(context.Background(), key)
	if err != nil || string(kept) != `{"lists": [` {
		t.Fatalf("expected corrupt bytes kept under %s, got %q (%v)", key, kept, err)
	}
}

func TestOpenKeepsCorruptSQLiteListsAside(t *testing.T) {
	ctx := context.Background()
	p, err := store.OpenSQLite(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })

	const truncated = `[{"id": 1, "title": "Work", "todos": [{"text": "ship"`
	seed(t, p, model.ListsKey, truncated)

	s := mustOpen(t, p)
	if s.Active().Title != model.BootstrapTitle {
		t.Fatalf("expected bootstrap list, got %+v", s.Active())
	}
	key := s.Recovery().QuarantineKey
	kept, err := p.Load(ctx, key)
	if err != nil {
		t.Fatalf("load quarantined lists failed: %v", err)
	}
	if string(kept) != truncated {
		t.Fatalf("expected original bytes under %s, got %q", key, kept)
	}
}

func TestOpenFailsWhenCorruptListsCannotBeKept(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `{"lists": [`)
	p.FailSaves(errors.New("read-only"))

	_, err := Open(context.Background(), p)
	var perr *PersistenceError
	if !errors.As(err, &perr) || perr.Op != "quarantine" {
		t.Fatalf("expected quarantine PersistenceError, got %v", err)
	}
	p.FailSaves(nil)
	raw, err := p.Load(context.Background(), model.ListsKey)
	if err != nil || string(raw) != `{"lists": [` {
		t.Fatalf("expected stored lists untouched, got %q (%v)", raw, err)
	}
}

func TestOpenRecoversCorruptFileFromBackup(t *testing.T) {
	ctx := context.Background()
	p := store.NewFileProvider(t.TempDir())

	first := mustOpen(t, p)
	if _, _, err := first.RenameActive(ctx, "Keep me"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	mustAdd(t, first, "survivor")
	// This save pushes the good snapshot into the backups.
	seed(t, p, model.ListsKey, `not json at all`)

	s := mustOpen(t, p)
	active := s.Active()
	if active.Title != "Keep me" || len(active.Items) != 1 || active.Items[0].Text != "survivor" {
		t.Fatalf("expected recovered list, got %+v", active)
	}
	if rec := s.Recovery(); !strings.Contains(rec.Source, ".bak") || rec.QuarantineKey != "" {
		t.Fatalf("expected backup source reported, got %+v", rec)
	}
}

func TestOpenRejectsNewerSnapshot(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `{"version":7,"lists":[]}`)

	_, err := Open(context.Background(), p)
	if !errors.Is(err, store.ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestOpenSurfacesLoadFailure(t *testing.T) {
	p := store.NewMemoryProvider()
	boom := errors.New("storage unavailable")
	p.FailLoads(boom)

	_, err := Open(context.Background(), p)
	var perr *PersistenceError
	if !errors.As(err, &perr) || !errors.Is(err, boom) {
		t.Fatalf("expected PersistenceError wrapping load failure, got %v", err)
	}
	if perr.Op != "load" {
		t.Fatalf("expected load op, got %q", perr.Op)
	}
}

func TestOpenRejectsNilProvider(t *testing.T) {
	if _, err := Open(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil provider")
	}
}

func TestOpenLogsRecoveryEvents(t *testing.T) {
	p := store.NewMemoryProvider()
	seed(t, p, model.ListsKey, `{"version":1,"lists":[{"id":5,"title":"A","items":[]}]}`)
	seed(t, p, model.ActiveKey, `999`)

	logger, hook := test.NewNullLogger()
	if _, err := Open(context.Background(), p, WithLogger(logger)); err != nil {
		t.Fatalf("open failed: %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected a warning for the dangling active id, got %+v", entry)
	}
	if entry.Data["list_id"] != int64(999) {
		t.Fatalf("expected list_id field, got %v", entry.Data)
	}
}

func TestSaveFailureIsLoggedAtErrorLevel(t *testing.T) {
	p := store.NewMemoryProvider()
	logger, hook := test.NewNullLogger()
	s, err := Open(context.Background(), p, WithLogger(logger))
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	hook.Reset()

	p.FailSaves(errors.New("disk full"))
	if _, _, err := s.AddItem(context.Background(), "x"); err == nil {
		t.Fatalf("expected save failure")
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.ErrorLevel || entry.Data["key"] != model.ListsKey {
		t.Fatalf("expected error entry for lists key, got %+v", entry)
	}
}
