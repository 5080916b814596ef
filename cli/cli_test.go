package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"

	"todolists/app"
	"todolists/config"
	"todolists/model"
)

func isolateConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, k := range []string{"TODOLISTS_CONFIG", "TODOLISTS_BACKEND", "TODOLISTS_DIR", "TODOLISTS_LOG_LEVEL", "TODOLISTS_REDIS_DB"} {
		t.Setenv(k, "")
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("command failed: todolists %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	return stdout
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config failed: %v", err)
	}
	return path
}

func TestItemCommandsAgainstFileBackend(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	run := func(args ...string) string {
		t.Helper()
		return mustRun(t, append([]string{"--dir", dir}, args...)...)
	}

	run("add", "buy", "milk")
	run("add", "call mom")
	run("add", "walk dog")
	run("done", "2")
	run("edit", "3", "walk", "the", "dog")

	out := run("ls")
	want := "New to-do list\n1. [ ] buy milk\n2. [x] call mom\n3. [ ] walk the dog\n"
	if out != want {
		t.Fatalf("unexpected listing:\n%s\nwant:\n%s", out, want)
	}

	run("move", "3", "--", "-2")
	run("rm", "2")
	if out := run("ls"); out != "New to-do list\n1. [ ] walk the dog\n2. [x] call mom\n" {
		t.Fatalf("unexpected listing after move and rm:\n%s", out)
	}

	if _, err := os.Stat(filepath.Join(dir, model.ListsKey+".json")); err != nil {
		t.Fatalf("expected lists file in data dir: %v", err)
	}
}

func TestAddDuplicateIsNotAnError(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add", "milk")
	stdout, stderr, err := runCLI(t, "--dir", dir, "add", "milk")
	if err != nil {
		t.Fatalf("expected duplicate add to succeed quietly, got %v", err)
	}
	if stdout != "" || !strings.Contains(stderr, "nothing added") {
		t.Fatalf("expected notice on stderr, got stdout=%q stderr=%q", stdout, stderr)
	}
}

func TestReorderCommands(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	for _, text := range []string{"a", "b", "c"} {
		mustRun(t, "--dir", dir, "add", text)
	}

	if out := mustRun(t, "--dir", dir, "reorder", "3", "1"); out != "1. [ ] c\n2. [ ] a\n3. [ ] b\n" {
		t.Fatalf("unexpected order:\n%s", out)
	}
	if out := mustRun(t, "--dir", dir, "reorder", "--text", "b", "nope", "c"); out != "1. [ ] b\n2. [ ] c\n3. [ ] a\n" {
		t.Fatalf("unexpected order by text:\n%s", out)
	}
	if _, _, err := runCLI(t, "--dir", dir, "reorder", "1", "1"); err == nil {
		t.Fatalf("expected repeated item to be rejected")
	}
}

func TestItemNumberOutOfRange(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	mustRun(t, "--dir", dir, "add", "only")
	for _, args := range [][]string{{"done", "2"}, {"rm", "0"}, {"edit", "x", "text"}} {
		if _, _, err := runCLI(t, append([]string{"--dir", dir}, args...)...); err == nil {
			t.Fatalf("expected %v to fail", args)
		}
	}
}

func TestListCommands(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()

	mustRun(t, "--dir", dir, "lists", "new", "Groceries")
	mustRun(t, "--dir", dir, "add", "eggs")
	mustRun(t, "--dir", dir, "lists", "new")

	out := mustRun(t, "--dir", dir, "lists")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected three lists, got:\n%s", out)
	}
	if !strings.HasPrefix(lines[2], "* 3. "+model.NewListTitle(3)) {
		t.Fatalf("expected new numbered list to be active, got %q", lines[2])
	}

	mustRun(t, "--dir", dir, "lists", "use", "2")
	if out := mustRun(t, "--dir", dir, "ls"); out != "Groceries\n1. [ ] eggs\n" {
		t.Fatalf("unexpected active list:\n%s", out)
	}

	mustRun(t, "--dir", dir, "lists", "rename", "Shop")
	mustRun(t, "--dir", dir, "lists", "rm", "2")
	out = mustRun(t, "--dir", dir, "lists")
	if strings.Contains(out, "Shop") || !strings.HasPrefix(out, "* 1. "+model.BootstrapTitle) {
		t.Fatalf("expected previous list active after delete, got:\n%s", out)
	}

	if _, _, err := runCLI(t, "--dir", dir, "lists", "use", "99"); err == nil {
		t.Fatalf("expected unknown list to fail")
	}
}

func TestRenameBlankWarns(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	_, stderr, err := runCLI(t, "--dir", dir, "lists", "rename", " ")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if !strings.Contains(stderr, model.FallbackTitle) {
		t.Fatalf("expected fallback warning, got %q", stderr)
	}
}

func TestShowRendersMarkdown(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	cfg := writeConfig(t, "theme:\n  glamour_style: notty\n")

	mustRun(t, "--config", cfg, "--dir", dir, "add", "buy milk")
	out := mustRun(t, "--config", cfg, "--dir", dir, "show")
	if !strings.Contains(out, "New to-do list") || !strings.Contains(out, "buy milk") {
		t.Fatalf("unexpected rendered output:\n%s", out)
	}
}

func TestListsMarkdown(t *testing.T) {
	lists := []model.List{
		{ID: 1, Title: "Home", Items: []model.Item{{Text: "sweep", Status: model.StatusDone}, {Text: "cook", Status: model.StatusActive}}},
		{ID: 2, Title: "Work", Items: []model.Item{}},
	}
	md := listsMarkdown(lists, 1)
	for _, want := range []string{"# Home (active)", "- [x] sweep", "- [ ] cook", "1 open, 1 done", "# Work", "_No items._"} {
		if !strings.Contains(md, want) {
			t.Fatalf("expected markdown to contain %q, got:\n%s", want, md)
		}
	}
}

func TestSQLiteBackend(t *testing.T) {
	isolateConfig(t)
	dir := t.TempDir()
	mustRun(t, "--backend", "sqlite", "--dir", dir, "add", "persisted")
	if out := mustRun(t, "--backend", "sqlite", "--dir", dir, "ls"); !strings.Contains(out, "persisted") {
		t.Fatalf("expected item to survive across runs, got:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "todolists.db")); err != nil {
		t.Fatalf("expected sqlite database file: %v", err)
	}
}

func TestRedisBackend(t *testing.T) {
	isolateConfig(t)
	mr := miniredis.RunT(t)
	cfg := writeConfig(t, "storage:\n  backend: redis\n  redis_addr: "+mr.Addr()+"\n  redis_prefix: \"test:\"\n")

	mustRun(t, "--config", cfg, "add", "cached")
	if out := mustRun(t, "--config", cfg, "ls"); !strings.Contains(out, "cached") {
		t.Fatalf("expected item from redis, got:\n%s", out)
	}
	if !mr.Exists("test:" + model.ListsKey) {
		t.Fatalf("expected lists key under prefix")
	}
}

func TestRedisUnreachable(t *testing.T) {
	isolateConfig(t)
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	cfg := writeConfig(t, "storage:\n  backend: redis\n  redis_addr: "+addr+"\n")
	if _, _, err := runCLI(t, "--config", cfg, "ls"); err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestUnknownBackend(t *testing.T) {
	isolateConfig(t)
	if _, _, err := runCLI(t, "--backend", "floppy", "ls"); err == nil {
		t.Fatalf("expected unknown backend error")
	}
}

func TestProvidersClosedWhenCommandFails(t *testing.T) {
	isolateConfig(t)
	cmd, a := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--backend", "sqlite", "--dir", t.TempDir(), "done", "5"})

	if err := cmd.ExecuteContext(context.Background()); err == nil {
		t.Fatalf("expected out of range item to fail")
	}
	if len(a.closers) != 0 {
		t.Fatalf("expected sqlite provider to be closed, %d still open", len(a.closers))
	}
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	isolateConfig(t)
	path := filepath.Join(t.TempDir(), "todolists", "config.yaml")
	dataDir := t.TempDir()

	out := mustRun(t, "--config", path, "--backend", "sqlite", "--dir", dataDir, "config", "init")
	if !strings.Contains(out, path) {
		t.Fatalf("expected written path in output, got %q", out)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load written config failed: %v", err)
	}
	if cfg.Storage.Backend != config.BackendSQLite || cfg.Storage.Dir != dataDir {
		t.Fatalf("unexpected written config %+v", cfg.Storage)
	}

	if _, _, err := runCLI(t, "--config", path, "config", "init"); err == nil {
		t.Fatalf("expected existing file to be kept without --force")
	}
	mustRun(t, "--config", path, "config", "init", "--force")
	if cfg, err := config.Load(path); err != nil || cfg.Storage.Backend != config.BackendFile {
		t.Fatalf("expected defaults after --force, got %+v (%v)", cfg, err)
	}

	if got := mustRun(t, "--config", path, "config", "path"); got != path+"\n" {
		t.Fatalf("unexpected config path %q", got)
	}
}

func TestRecoveryStatus(t *testing.T) {
	if got := recoveryStatus(app.Recovery{}); got != "" {
		t.Fatalf("expected no notice for a clean load, got %q", got)
	}
	if got := recoveryStatus(app.Recovery{Source: "todoList.json.bak"}); !strings.Contains(got, "todoList.json.bak") {
		t.Fatalf("expected backup source in notice, got %q", got)
	}
	if got := recoveryStatus(app.Recovery{QuarantineKey: "todoList.corrupt-1"}); !strings.Contains(got, "todoList.corrupt-1") {
		t.Fatalf("expected quarantine key in notice, got %q", got)
	}
}
