package orchestrator

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"sync"
	"testing"

	"mdview/pkg/clipboard"
	"mdview/pkg/config"
	"mdview/pkg/core"
	"mdview/pkg/mirror"
)

// mirrorSpy records mirror pushes and forwards file operations to a real
// core.
type mirrorSpy struct {
	*core.Core
	syncs   []mirror.State
	syncErr error
}

func (m *mirrorSpy) SyncClipboardMirror(ctx context.Context, files []string, mode mirror.Mode) error {
	m.syncs = append(m.syncs, mirror.State{Files: append([]string(nil), files...), Mode: mode, HasFiles: len(files) > 0})
	if m.syncErr != nil {
		return m.syncErr
	}
	return m.Core.SyncClipboardMirror(ctx, files, mode)
}

func newWorkspace(t *testing.T) (string, *mirrorSpy, *Orchestrator) {
	t.Helper()
	root := t.TempDir()
	c := core.New(config.Default(), nil)
	if err := c.SetSandboxRoot(context.Background(), root); err != nil {
		t.Fatal(err)
	}
	spy := &mirrorSpy{Core: c}
	return root, spy, New(spy)
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func TestStaging_ReplacesWholesale(t *testing.T) {
	_, spy, o := newWorkspace(t)
	ctx := context.Background()

	o.Copy(ctx, []string{"/a"})
	o.Cut(ctx, []string{"/b"})

	sel, ok := o.Selection()
	if !ok {
		t.Fatal("Selection() idle after Cut")
	}
	if sel.Mode != mirror.ModeCut || !reflect.DeepEqual(sel.Files, []string{"/b"}) {
		t.Errorf("Selection() = %+v, want cut [/b]", sel)
	}

	state := spy.GetClipboardMirror(ctx)
	if state.Mode != mirror.ModeCut || !reflect.DeepEqual(state.Files, []string{"/b"}) || !state.HasFiles {
		t.Errorf("mirror = %+v, want cut [/b]", state)
	}
	if len(spy.syncs) != 2 {
		t.Errorf("mirror synced %d times, want 2", len(spy.syncs))
	}
}

func TestStaging_DedupesAndClears(t *testing.T) {
	_, spy, o := newWorkspace(t)
	ctx := context.Background()

	o.Copy(ctx, []string{"/a", "/b", "/a", ""})
	sel, _ := o.Selection()
	if !reflect.DeepEqual(sel.Files, []string{"/a", "/b"}) {
		t.Errorf("Selection().Files = %v, want [/a /b]", sel.Files)
	}

	o.Copy(ctx, nil)
	if _, ok := o.Selection(); ok {
		t.Error("Copy(nil) should leave the orchestrator idle")
	}

	o.Cut(ctx, []string{"/c"})
	o.Clear(ctx)
	o.Clear(ctx)
	if _, ok := o.Selection(); ok {
		t.Error("Selection() staged after Clear()")
	}
	if state := spy.GetClipboardMirror(ctx); state.HasFiles || state.Mode != mirror.ModeNone {
		t.Errorf("mirror = %+v after Clear()", state)
	}
}

func TestSelection_ReturnsCopy(t *testing.T) {
	_, _, o := newWorkspace(t)
	o.Copy(context.Background(), []string{"/a"})

	sel, _ := o.Selection()
	sel.Files[0] = "/mutated"

	again, _ := o.Selection()
	if again.Files[0] != "/a" {
		t.Errorf("Selection() exposed internal slice: %v", again.Files)
	}
}

func TestPaste_IdleIsNoop(t *testing.T) {
	root, spy, o := newWorkspace(t)

	outcome, err := o.Paste(context.Background(), root)
	if err != nil {
		t.Errorf("Paste() error = %v", err)
	}
	if len(outcome.Succeeded) != 0 || len(outcome.Errors) != 0 {
		t.Errorf("Paste() = %+v, want empty outcome", outcome)
	}
	if len(spy.syncs) != 0 {
		t.Error("idle Paste() should not touch the mirror")
	}
}

func TestPaste_CutWithExistingDestination(t *testing.T) {
	root, spy, o := newWorkspace(t)
	ctx := context.Background()

	a := writeFile(t, filepath.Join(root, "src", "a.md"), "a")
	b := writeFile(t, filepath.Join(root, "src", "b.md"), "b")
	target := filepath.Join(root, "dst")
	writeFile(t, filepath.Join(target, "b.md"), "already here")

	o.Cut(ctx, []string{a, b})
	outcome, err := o.Paste(ctx, target)

	var agg *PasteAggregateError
	if !stderrors.As(err, &agg) {
		t.Fatalf("Paste() error = %v, want *PasteAggregateError", err)
	}
	if !reflect.DeepEqual(agg.Errors, []string{"b.md: already exists"}) {
		t.Errorf("aggregate errors = %q", agg.Errors)
	}
	if !reflect.DeepEqual(outcome.Succeeded, []string{filepath.Join(target, "a.md")}) {
		t.Errorf("Succeeded = %v", outcome.Succeeded)
	}

	if exists(a) || !exists(filepath.Join(target, "a.md")) {
		t.Error("a.md was not moved")
	}
	if !exists(b) {
		t.Error("b.md source should be left in place")
	}
	if data, _ := os.ReadFile(filepath.Join(target, "b.md")); string(data) != "already here" {
		t.Errorf("existing destination overwritten: %q", data)
	}

	if _, ok := o.Selection(); ok {
		t.Error("cut paste should return to idle despite the failure")
	}
	if state := spy.GetClipboardMirror(ctx); state.HasFiles {
		t.Errorf("mirror still staged: %+v", state)
	}
}

func TestPaste_CopyStaysStaged(t *testing.T) {
	root, _, o := newWorkspace(t)
	ctx := context.Background()

	file := writeFile(t, filepath.Join(root, "notes.md"), "n")
	dir := filepath.Join(root, "docs")
	writeFile(t, filepath.Join(dir, "inner", "deep.md"), "d")

	o.Copy(ctx, []string{file, dir})
	target := filepath.Join(root, "out")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}

	outcome, err := o.Paste(ctx, target)
	if err != nil {
		t.Fatalf("Paste() error = %v", err)
	}
	if len(outcome.Succeeded) != 2 {
		t.Errorf("Succeeded = %v, want 2 entries", outcome.Succeeded)
	}
	if !exists(file) || !exists(filepath.Join(target, "notes.md")) {
		t.Error("file copy missing")
	}
	if data, _ := os.ReadFile(filepath.Join(target, "docs", "inner", "deep.md")); string(data) != "d" {
		t.Errorf("recursive copy content = %q", data)
	}

	sel, ok := o.Selection()
	if !ok || sel.Mode != mirror.ModeCopy {
		t.Errorf("Selection() = %+v, %v, want copy to remain staged", sel, ok)
	}

	// A second paste into the same place now collides.
	_, err = o.Paste(ctx, target)
	if err == nil || !strings.Contains(err.Error(), "notes.md: already exists") {
		t.Errorf("second Paste() error = %v", err)
	}
}

func TestPaste_SameLocationIsSkipped(t *testing.T) {
	root, _, o := newWorkspace(t)
	ctx := context.Background()
	file := writeFile(t, filepath.Join(root, "a.md"), "a")

	o.Cut(ctx, []string{file})
	outcome, err := o.Paste(ctx, root)
	if err != nil {
		t.Errorf("Paste() error = %v", err)
	}
	if len(outcome.Succeeded) != 0 || len(outcome.Errors) != 0 {
		t.Errorf("Paste() = %+v, want silent skip", outcome)
	}
	if !exists(file) {
		t.Error("file vanished")
	}
}

func TestPaste_IntoOwnSubdirectory(t *testing.T) {
	root, _, o := newWorkspace(t)
	ctx := context.Background()
	dir := filepath.Join(root, "proj")
	writeFile(t, filepath.Join(dir, "sub", "x.md"), "x")

	o.Copy(ctx, []string{dir})
	_, err := o.Paste(ctx, filepath.Join(dir, "sub"))
	if err == nil || err.Error() != "proj: cannot paste into own subdirectory" {
		t.Errorf("Paste() error = %v", err)
	}
	if exists(filepath.Join(dir, "sub", "proj")) {
		t.Error("directory was copied into itself")
	}
}

func TestPaste_IntoOwnSubdirectoryThroughSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root, _, o := newWorkspace(t)
	ctx := context.Background()
	dir := filepath.Join(root, "a")
	writeFile(t, filepath.Join(dir, "n.md"), "n")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link")
	if err := os.Symlink(filepath.Join(dir, "sub"), link); err != nil {
		t.Fatal(err)
	}

	o.Copy(ctx, []string{dir})
	_, err := o.Paste(ctx, link)
	if err == nil || err.Error() != "a: cannot paste into own subdirectory" {
		t.Errorf("Paste() error = %v", err)
	}
	if exists(filepath.Join(dir, "sub", "a")) {
		t.Error("directory was copied into itself through the link")
	}
}

func TestPaste_OSClipboardPathOutsideWorkspace(t *testing.T) {
	root, _, o := newWorkspace(t)
	ctx := context.Background()

	outside := writeFile(t, filepath.Join(t.TempDir(), "elsewhere.md"), "e")
	inside := writeFile(t, filepath.Join(root, "here.md"), "h")

	// The bridge allows both: they exist and are not protected.
	entries := []clipboard.Entry{
		{Path: outside, Exists: true, IsAllowed: true},
		{Path: inside, Exists: true, IsAllowed: true},
		{Path: "/etc/shadow", Exists: true, IsAllowed: false, Reason: clipboard.ReasonProtected},
	}
	if n := o.StageFromOS(ctx, entries, false); n != 2 {
		t.Fatalf("StageFromOS() = %d, want 2", n)
	}

	target := filepath.Join(root, "dst")
	os.Mkdir(target, 0o755)
	outcome, err := o.Paste(ctx, target)

	want := "elsewhere.md: access denied: path is outside the workspace"
	if err == nil || err.Error() != want {
		t.Errorf("Paste() error = %v, want %q", err, want)
	}
	if exists(filepath.Join(target, "elsewhere.md")) {
		t.Error("file from outside the workspace was copied")
	}
	if len(outcome.Succeeded) != 1 {
		t.Errorf("Succeeded = %v, want the inside file", outcome.Succeeded)
	}
}

func TestPaste_TargetOutsideWorkspace(t *testing.T) {
	root, _, o := newWorkspace(t)
	ctx := context.Background()
	file := writeFile(t, filepath.Join(root, "a.md"), "a")

	o.Cut(ctx, []string{file})
	_, err := o.Paste(ctx, t.TempDir())
	if err == nil || !strings.HasPrefix(err.Error(), "a.md: access denied") {
		t.Errorf("Paste() error = %v", err)
	}
	if !exists(file) {
		t.Error("source moved out of the workspace")
	}
}

func TestStageFromOS_NothingAllowed(t *testing.T) {
	_, _, o := newWorkspace(t)
	ctx := context.Background()
	o.Copy(ctx, []string{"/keep"})

	n := o.StageFromOS(ctx, []clipboard.Entry{{Path: "/missing", Reason: clipboard.ReasonMissing}}, true)
	if n != 0 {
		t.Errorf("StageFromOS() = %d, want 0", n)
	}
	if sel, _ := o.Selection(); !reflect.DeepEqual(sel.Files, []string{"/keep"}) {
		t.Errorf("selection changed to %v", sel.Files)
	}
}

func TestMirrorFailureIsNotFatal(t *testing.T) {
	root, spy, o := newWorkspace(t)
	spy.syncErr = stderrors.New("core unavailable")
	ctx := context.Background()
	file := writeFile(t, filepath.Join(root, "a.md"), "a")

	o.Copy(ctx, []string{file})
	if _, ok := o.Selection(); !ok {
		t.Fatal("selection lost when mirror sync failed")
	}
	target := filepath.Join(root, "out")
	os.Mkdir(target, 0o755)
	if _, err := o.Paste(ctx, target); err != nil {
		t.Errorf("Paste() error = %v", err)
	}
}

func TestPaste_ReportsProgress(t *testing.T) {
	root, _, o := newWorkspace(t)
	ctx := context.Background()
	a := writeFile(t, filepath.Join(root, "a.md"), "a")
	b := writeFile(t, filepath.Join(root, "b.md"), "b")

	var calls []string
	o.SetProgress(func(done, total int, name string) {
		calls = append(calls, name)
		if total != 2 {
			t.Errorf("total = %d, want 2", total)
		}
	})

	o.Copy(ctx, []string{a, b})
	target := filepath.Join(root, "out")
	os.Mkdir(target, 0o755)
	o.Paste(ctx, target)

	if !reflect.DeepEqual(calls, []string{"a.md", "b.md"}) {
		t.Errorf("progress calls = %v", calls)
	}
}

func TestSetProgress_DuringPaste(t *testing.T) {
	root, _, o := newWorkspace(t)
	ctx := context.Background()
	a := writeFile(t, filepath.Join(root, "a.md"), "a")
	target := filepath.Join(root, "out")
	if err := os.Mkdir(target, 0o755); err != nil {
		t.Fatal(err)
	}
	o.Copy(ctx, []string{a})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			o.SetProgress(func(int, int, string) {})
		}
	}()
	if _, err := o.Paste(ctx, target); err != nil {
		t.Errorf("Paste() error = %v", err)
	}
	wg.Wait()
	o.SetProgress(nil)
}

func TestPasteAggregateError_JoinsLines(t *testing.T) {
	err := &PasteAggregateError{Errors: []string{"a: x", "b: y"}}
	if err.Error() != "a: x\nb: y" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestIsDescendant(t *testing.T) {
	sep := string(filepath.Separator)
	tests := []struct {
		dir, p string
		want   bool
	}{
		{sep + "a", sep + "a" + sep + "b", true},
		{sep + "a", sep + "a", false},
		{sep + "a", sep + "ab", false},
		{sep, sep + "x", true},
	}
	for _, tt := range tests {
		if got := isDescendant(tt.dir, tt.p); got != tt.want {
			t.Errorf("isDescendant(%q, %q) = %v, want %v", tt.dir, tt.p, got, tt.want)
		}
	}
}
