package completions

import (
	"path/filepath"
	"reflect"
	"testing"

	"mdview/pkg/history"

	"github.com/spf13/cobra"
)

func TestFilterPrefix(t *testing.T) {
	items := []string{"json\tJSON", "Table\ttable", "yaml\tYAML"}
	tests := []struct {
		name   string
		prefix string
		fold   bool
		want   []string
	}{
		{"empty prefix", "", true, items},
		{"folded", "t", true, []string{"Table\ttable"}},
		{"case sensitive", "t", false, nil},
		{"description ignored", "JSON", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := filterPrefix(items, tt.prefix, tt.fold); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filterPrefix(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestCompleteRecentPaths(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(dbPath, 0)
	if err != nil {
		t.Fatal(err)
	}
	store.Record("/ws/notes", history.KindDirectory)
	store.Record("/ws/notes/todo.md", history.KindFile)
	store.Close()

	c := &Completer{historyPath: dbPath}
	got, directive := c.CompleteRecentPaths(&cobra.Command{}, nil, "/ws/notes/")
	want := []string{"/ws/notes/todo.md\tfile"}
	if !reflect.DeepEqual(got, want) || directive != cobra.ShellCompDirectiveNoFileComp {
		t.Errorf("CompleteRecentPaths() = %v, %v, want %v", got, directive, want)
	}

	if got, directive := c.CompleteRecentPaths(&cobra.Command{}, nil, "/elsewhere"); got != nil || directive != cobra.ShellCompDirectiveDefault {
		t.Errorf("CompleteRecentPaths(no match) = %v, %v", got, directive)
	}

	c.disabled = true
	if got, _ := c.CompleteRecentPaths(&cobra.Command{}, nil, ""); got != nil {
		t.Errorf("CompleteRecentPaths() with history disabled = %v", got)
	}
}
