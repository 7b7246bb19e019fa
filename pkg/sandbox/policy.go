package sandbox

import (
	"path"
	"runtime"
	"strings"
)

// PolicyVersion identifies the rule table below. Bump it whenever a rule is
// added or removed.
const PolicyVersion = 3

type RuleKind int

const (
	// AbsolutePrefix matches the path itself or anything beneath it.
	AbsolutePrefix RuleKind = iota
	// PathSegment matches one or more consecutive segments anywhere in the path.
	PathSegment
	// FilenameSuffix matches any segment ending in the value.
	FilenameSuffix
	// FilenameExact matches the final segment exactly.
	FilenameExact
	// FilenamePrefix matches a final segment starting with the value.
	FilenamePrefix
	// FilenameContains matches a final segment containing the value.
	FilenameContains
	// HiddenDirContains matches anything beneath a dot-directory whose name
	// contains the value.
	HiddenDirContains
)

func (k RuleKind) String() string {
	switch k {
	case AbsolutePrefix:
		return "absolute-prefix"
	case PathSegment:
		return "path-segment"
	case FilenameSuffix:
		return "filename-suffix"
	case FilenameExact:
		return "filename-exact"
	case FilenamePrefix:
		return "filename-prefix"
	case FilenameContains:
		return "filename-contains"
	case HiddenDirContains:
		return "hidden-dir-contains"
	default:
		return "unknown"
	}
}

type Rule struct {
	Kind  RuleKind
	Value string
}

var systemPrefixes = map[string][]string{
	"darwin": {
		"/System", "/Library", "/bin", "/sbin", "/usr", "/etc", "/dev",
		"/private/etc", "/private/var/db", "/private/var/root", "/var/root", "/cores",
	},
	"windows": {
		"C:/Windows", "C:/Program Files", "C:/Program Files (x86)", "C:/ProgramData",
		"C:/$Recycle.Bin", "C:/System Volume Information",
	},
	"linux": {
		"/etc", "/usr", "/bin", "/sbin", "/lib", "/lib32", "/lib64", "/boot",
		"/proc", "/sys", "/dev", "/run", "/var/lib", "/var/log", "/var/run",
	},
}

var credentialRules = []Rule{
	{PathSegment, ".ssh"},
	{PathSegment, ".gnupg"},
	{PathSegment, ".aws"},
	{PathSegment, ".azure"},
	{PathSegment, ".gcloud"},
	{PathSegment, ".config/gcloud"},
	{PathSegment, ".kube"},
	{PathSegment, ".docker"},
	{PathSegment, ".password-store"},

	{FilenameSuffix, ".pem"},
	{FilenameSuffix, ".key"},
	{FilenameSuffix, ".p12"},
	{FilenameSuffix, ".pfx"},
	{FilenameSuffix, ".keystore"},
	{FilenameSuffix, ".jks"},
	{FilenameSuffix, ".kdbx"},
	{FilenameSuffix, ".1pux"},

	{FilenameExact, ".npmrc"},
	{FilenameExact, ".pypirc"},
	{FilenameExact, ".git-credentials"},
	{FilenameExact, ".gitconfig"},
	{FilenameExact, ".netrc"},
	{FilenameExact, ".env"},
	{FilenamePrefix, ".env."},

	{HiddenDirContains, "secret"},
	{HiddenDirContains, "credential"},
	{HiddenDirContains, "token"},
	{HiddenDirContains, "password"},

	{FilenameContains, "password"},
}

// Policy is an immutable, ordered protected-path rule table.
type Policy struct {
	rules      []Rule
	foldPrefix bool
}

// DefaultPolicy returns the rule table for the running OS.
func DefaultPolicy() *Policy {
	return NewPolicy(runtime.GOOS)
}

// NewPolicy returns the rule table for goos. Unknown systems get the linux
// prefixes. Absolute prefixes compare case-insensitively on darwin and
// windows, whose default filesystems are case-insensitive.
func NewPolicy(goos string) *Policy {
	prefixes, ok := systemPrefixes[goos]
	if !ok {
		prefixes = systemPrefixes["linux"]
	}

	rules := make([]Rule, 0, len(prefixes)+len(credentialRules))
	for _, p := range prefixes {
		rules = append(rules, Rule{AbsolutePrefix, p})
	}
	rules = append(rules, credentialRules...)

	return &Policy{
		rules:      rules,
		foldPrefix: goos == "darwin" || goos == "windows",
	}
}

// Rules returns a copy of the table.
func (p *Policy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

// IsProtected reports whether candidate matches any rule.
func (p *Policy) IsProtected(candidate string) bool {
	_, ok := p.Match(candidate)
	return ok
}

// Match returns the first rule candidate matches. The rule is for internal
// diagnostics only and must not reach the user.
func (p *Policy) Match(candidate string) (Rule, bool) {
	slashed, ok := slashNormalize(candidate)
	if !ok {
		return Rule{}, false
	}
	lower := strings.ToLower(slashed)
	segments := splitSegments(lower)
	if len(segments) == 0 {
		return Rule{}, false
	}
	base := segments[len(segments)-1]
	dirs := segments[:len(segments)-1]

	for _, rule := range p.rules {
		if p.matches(rule, slashed, lower, segments, dirs, base) {
			return rule, true
		}
	}
	return Rule{}, false
}

func (p *Policy) matches(rule Rule, slashed, lower string, segments, dirs []string, base string) bool {
	value := strings.ToLower(rule.Value)

	switch rule.Kind {
	case AbsolutePrefix:
		subject, prefix := slashed, rule.Value
		if p.foldPrefix {
			subject, prefix = lower, value
		}
		return subject == prefix || strings.HasPrefix(subject, prefix+"/")
	case PathSegment:
		return strings.Contains("/"+strings.Join(segments, "/")+"/", "/"+value+"/")
	case FilenameSuffix:
		for _, seg := range segments {
			if strings.HasSuffix(seg, value) {
				return true
			}
		}
		return false
	case FilenameExact:
		return base == value
	case FilenamePrefix:
		return strings.HasPrefix(base, value)
	case FilenameContains:
		return strings.Contains(base, value)
	case HiddenDirContains:
		for _, dir := range dirs {
			if strings.HasPrefix(dir, ".") && strings.Contains(dir, value) {
				return true
			}
		}
		return false
	}
	return false
}

// slashNormalize returns the normalized candidate with forward slashes. Paths
// carrying a drive letter are cleaned lexically so windows rules can be
// evaluated on any host.
func slashNormalize(candidate string) (string, bool) {
	slashed := strings.ReplaceAll(candidate, `\`, "/")
	if hasDriveLetter(slashed) {
		return path.Clean(slashed), true
	}
	normalized, err := Normalize(candidate)
	if err != nil {
		return "", false
	}
	return strings.ReplaceAll(normalized, `\`, "/"), true
}

func hasDriveLetter(p string) bool {
	if len(p) < 3 || p[1] != ':' || p[2] != '/' {
		return false
	}
	c := p[0]
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func splitSegments(p string) []string {
	parts := strings.Split(p, "/")
	segments := parts[:0]
	for _, part := range parts {
		if part != "" {
			segments = append(segments, part)
		}
	}
	return segments
}
