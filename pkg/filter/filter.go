package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"mdview/pkg/history"
)

type FilterMode int

const (
	FilterModeNone FilterMode = iota
	FilterModeExact
	FilterModeContains
	FilterModeRegex
	FilterModeFuzzy
)

var modeNames = map[string]FilterMode{
	"exact":    FilterModeExact,
	"contains": FilterModeContains,
	"regex":    FilterModeRegex,
	"fuzzy":    FilterModeFuzzy,
}

// ParseMode maps a --match flag value to a FilterMode.
func ParseMode(name string) (FilterMode, error) {
	if name == "" {
		return FilterModeContains, nil
	}
	mode, ok := modeNames[strings.ToLower(name)]
	if !ok {
		return FilterModeNone, fmt.Errorf("unknown match mode %q (exact, contains, regex, fuzzy)", name)
	}
	return mode, nil
}

type StringFilter struct {
	Pattern string
	Mode    FilterMode
	regex   *regexp.Regexp
}

func NewStringFilter(pattern string, mode FilterMode) (*StringFilter, error) {
	f := &StringFilter{
		Pattern: pattern,
		Mode:    mode,
	}

	if mode == FilterModeRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern '%s': %w", pattern, err)
		}
		f.regex = re
	}

	return f, nil
}

func (f *StringFilter) Match(s string) bool {
	switch f.Mode {
	case FilterModeExact:
		return strings.EqualFold(s, f.Pattern)
	case FilterModeContains:
		return strings.Contains(strings.ToLower(s), strings.ToLower(f.Pattern))
	case FilterModeRegex:
		return f.regex != nil && f.regex.MatchString(s)
	case FilterModeFuzzy:
		return FuzzyMatch(f.Pattern, s)
	default:
		return true
	}
}

// FuzzyMatch reports whether every rune of pattern appears in text in order,
// ignoring case.
func FuzzyMatch(pattern, text string) bool {
	if pattern == "" {
		return true
	}
	want := []rune(strings.ToLower(pattern))
	i := 0
	for _, r := range strings.ToLower(text) {
		if r == want[i] {
			i++
			if i == len(want) {
				return true
			}
		}
	}
	return false
}

// HistoryFilter selects history entries. Exact mode compares the base name;
// the other modes look at the full path.
type HistoryFilter struct {
	Path *StringFilter
	Kind history.Kind
}

func (f *HistoryFilter) Matches(e history.Entry) bool {
	if f.Kind != "" && e.Kind != f.Kind {
		return false
	}
	if f.Path == nil {
		return true
	}
	if f.Path.Mode == FilterModeExact {
		return f.Path.Match(filepath.Base(e.Path))
	}
	return f.Path.Match(e.Path)
}

func (f *HistoryFilter) Apply(entries []history.Entry) []history.Entry {
	out := make([]history.Entry, 0, len(entries))
	for _, e := range entries {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
