package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "history.db"), limit)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func paths(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Path
	}
	return out
}

func TestStore_RecordOrdersMostRecentFirst(t *testing.T) {
	s := openTestStore(t, 0)

	for _, p := range []string{"/a.md", "/b.md", "/c.md", "/a.md"} {
		if err := s.Record(p, KindFile); err != nil {
			t.Fatalf("Record(%q) error = %v", p, err)
		}
	}

	entries, err := s.List(0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	got := paths(entries)
	want := []string{"/a.md", "/c.md", "/b.md"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if entries[0].OpenedAt.Before(entries[1].OpenedAt) {
		t.Error("OpenedAt not descending")
	}
}

func TestStore_RecordUpdatesKind(t *testing.T) {
	s := openTestStore(t, 0)
	s.Record("/x", KindFile)
	s.Record("/x", KindDirectory)

	entries, _ := s.List(0)
	if len(entries) != 1 || entries[0].Kind != KindDirectory {
		t.Errorf("List() = %+v, want one directory entry", entries)
	}
}

func TestStore_Limit(t *testing.T) {
	s := openTestStore(t, 2)
	for _, p := range []string{"/1", "/2", "/3"} {
		s.Record(p, KindFile)
	}

	entries, _ := s.List(0)
	got := paths(entries)
	if len(got) != 2 || got[0] != "/3" || got[1] != "/2" {
		t.Errorf("List() = %v, want [/3 /2]", got)
	}

	limited, _ := s.List(1)
	if len(limited) != 1 {
		t.Errorf("List(1) returned %d entries", len(limited))
	}
}

func TestStore_RemoveAndClear(t *testing.T) {
	s := openTestStore(t, 0)
	s.Record("/a", KindFile)
	s.Record("/b", KindFile)

	if err := s.Remove("/a"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := s.Remove("/missing"); err != nil {
		t.Errorf("Remove(missing) error = %v", err)
	}
	entries, _ := s.List(0)
	if got := paths(entries); len(got) != 1 || got[0] != "/b" {
		t.Errorf("List() after Remove = %v", got)
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
	entries, _ = s.List(0)
	if len(entries) != 0 {
		t.Errorf("List() after Clear = %v", entries)
	}
}

func TestStore_PersistsAcrossOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(dbPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	s.Record("/kept.md", KindFile)
	s.Close()

	s, err = Open(dbPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	entries, _ := s.List(0)
	if len(entries) != 1 || entries[0].Path != "/kept.md" {
		t.Errorf("List() after reopen = %+v", entries)
	}
}

func TestRevalidate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.md")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	entries := []Entry{
		{ID: 1, Path: file, Kind: KindFile},
		{ID: 2, Path: dir, Kind: KindDirectory},
		{ID: 3, Path: filepath.Join(dir, "gone.md"), Kind: KindFile},
		{ID: 4, Path: dir, Kind: KindFile},
	}

	live, stale := Revalidate(context.Background(), entries, time.Second)
	if len(live) != 2 || live[0].ID != 1 || live[1].ID != 2 {
		t.Errorf("live = %+v, want ids 1 and 2", live)
	}
	if len(stale) != 2 || stale[0].ID != 3 || stale[1].ID != 4 {
		t.Errorf("stale = %+v, want ids 3 and 4", stale)
	}
}

func TestRevalidate_CanceledKeepsEntries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	entries := []Entry{{ID: 1, Path: "/definitely/not/here", Kind: KindFile}}
	live, stale := Revalidate(ctx, entries, time.Second)
	if len(live) != 1 || len(stale) != 0 {
		t.Errorf("Revalidate(canceled) = %v, %v, want entry kept", live, stale)
	}
}

func TestStore_Prune(t *testing.T) {
	s := openTestStore(t, 0)
	dir := t.TempDir()
	file := filepath.Join(dir, "a.md")
	os.WriteFile(file, []byte("x"), 0644)

	s.Record(file, KindFile)
	s.Record(filepath.Join(dir, "gone.md"), KindFile)

	if _, ok, _ := s.LastPruned(); ok {
		t.Error("LastPruned() set before any prune")
	}

	removed, err := s.Prune(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if len(removed) != 1 || filepath.Base(removed[0].Path) != "gone.md" {
		t.Errorf("Prune() removed %+v", removed)
	}

	entries, _ := s.List(0)
	if len(entries) != 1 || entries[0].Path != file {
		t.Errorf("List() after Prune = %+v", entries)
	}
	if _, ok, err := s.LastPruned(); !ok || err != nil {
		t.Errorf("LastPruned() = %v, %v after prune", ok, err)
	}
}
