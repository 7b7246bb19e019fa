package cmd

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"mdview/pkg/config"
	"mdview/pkg/errors"
	"mdview/pkg/history"
	"mdview/pkg/ipc"
	"mdview/pkg/orchestrator"
)

func TestOutputWriter_Formats(t *testing.T) {
	tests := []struct {
		format string
		want   string
	}{
		{"json", "{\n  \"path\": \"/ws/a.md\"\n}\n"},
		{"yaml", "path: /ws/a.md\n"},
		{"table", ""},
		{"bogus", ""},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			w := NewOutputWriter(tt.format)
			w.SetWriter(&buf)
			if err := w.Write(map[string]string{"path": "/ws/a.md"}); err != nil {
				t.Fatal(err)
			}
			if buf.String() != tt.want {
				t.Errorf("Write() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestFormatAge(t *testing.T) {
	now := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{time.Minute, "1 minute ago"},
		{5 * time.Minute, "5 minutes ago"},
		{3 * time.Hour, "3 hours ago"},
		{49 * time.Hour, "2 days ago"},
	}
	for _, tt := range tests {
		if got := FormatAge(now.Add(-tt.ago), now); got != tt.want {
			t.Errorf("FormatAge(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
	if got := FormatAge(time.Time{}, now); got != "-" {
		t.Errorf("FormatAge(zero) = %q", got)
	}
}

func TestConfirmFrom(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"y", true},
	}
	for _, tt := range tests {
		got, err := confirmFrom(strings.NewReader(tt.input), "continue?")
		if err != nil || got != tt.want {
			t.Errorf("confirmFrom(%q) = %v, %v, want %v", tt.input, got, err, tt.want)
		}
	}
	if _, err := confirmFrom(strings.NewReader(""), "continue?"); err == nil {
		t.Error("confirmFrom(EOF) returned no error")
	}

	assumeYesFlag = true
	defer func() { assumeYesFlag = false }()
	if got, _ := confirmFrom(strings.NewReader("n\n"), "continue?"); !got {
		t.Error("confirmFrom() with --yes = false")
	}
}

func TestHistoryFilter(t *testing.T) {
	defer func() { historyKind, historyFilterPattern, historyMatchMode = "", "", "contains" }()

	entries := []history.Entry{
		{Path: "/ws/notes", Kind: history.KindDirectory},
		{Path: "/ws/notes/README.md", Kind: history.KindFile},
		{Path: "/ws/other/readme.md.bak", Kind: history.KindFile},
	}
	tests := []struct {
		name    string
		kind    string
		pattern string
		mode    string
		want    int
		wantErr bool
	}{
		{"everything", "", "", "contains", 3, false},
		{"directories", "directory", "", "contains", 1, false},
		{"contains folded", "file", "readme", "contains", 2, false},
		{"exact base name", "", "readme.md", "exact", 1, false},
		{"bad kind", "socket", "", "contains", 0, true},
		{"bad mode", "", "x", "glob", 0, true},
		{"bad regex", "", "(", "regex", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			historyKind, historyFilterPattern, historyMatchMode = tt.kind, tt.pattern, tt.mode
			hf, err := historyFilter()
			if (err != nil) != tt.wantErr {
				t.Fatalf("historyFilter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if !errors.IsExitCode(err, errors.ExitCodeValidation) {
					t.Errorf("error code = %d, want validation", errors.CodeOf(err))
				}
				return
			}
			if got := len(hf.Apply(entries)); got != tt.want {
				t.Errorf("Apply() kept %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRunWatch_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	var gotErr error
	err := RunWatch(ctx, WatchConfig{
		Interval: time.Millisecond,
		RefreshFunc: func(context.Context) error {
			calls++
			if calls == 3 {
				cancel()
			}
			return stderrors.New("flaky")
		},
		OnError: func(err error) { gotErr = err },
	})
	if err != nil {
		t.Errorf("RunWatch() = %v, want nil", err)
	}
	if calls != 3 || gotErr == nil {
		t.Errorf("calls = %d, last error = %v", calls, gotErr)
	}
}

func TestPaste_AggregateBecomesPasteError(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.md"), []byte("a"), 0o644)
	os.WriteFile(filepath.Join(dir, "b.md"), []byte("b"), 0o644)
	target := filepath.Join(dir, "out")
	os.Mkdir(target, 0o755)
	os.WriteFile(filepath.Join(target, "a.md"), []byte("taken"), 0o644)
	os.WriteFile(filepath.Join(target, "b.md"), []byte("taken"), 0o644)

	c, closeFn := buildCore(testConfig(t))
	defer closeFn()
	api := ipc.NewLocal(c)
	ctx := context.Background()
	if err := api.SetSandboxRoot(ctx, dir); err != nil {
		t.Fatal(err)
	}

	outputFormat = "json"
	defer func() { outputFormat = "table" }()

	o := orchestrator.New(api)
	o.Copy(ctx, []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "b.md")})
	err := paste(ctx, o, target)
	if !errors.IsExitCode(err, errors.ExitCodePaste) {
		t.Fatalf("paste() error = %v, want paste code", err)
	}
	want := "paste finished with 2 error(s)\na.md: already exists\nb.md: already exists"
	if err.Error() != want {
		t.Errorf("paste() error = %q, want %q", err.Error(), want)
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Clipboard.Backend = "memory"
	cfg.History.Path = filepath.Join(t.TempDir(), "history.db")
	return cfg
}
