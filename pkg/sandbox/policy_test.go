package sandbox

import (
	"runtime"
	"testing"
)

func TestPolicy_IsProtected(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path literals")
	}

	tests := []struct {
		name string
		path string
		want bool
	}{
		{"etc passwd", "/etc/passwd", true},
		{"ssh key", "/Users/u/.ssh/id_rsa", true},
		{"ssh dir itself", "/Users/u/.ssh", true},
		{"aws credentials", "/Users/u/.aws/credentials", true},
		{"gcloud config", "/home/u/.config/gcloud/application_default_credentials.json", true},
		{"gnupg", "/home/u/.gnupg/pubring.kbx", true},
		{"env production", "/project/.env.production", true},
		{"env plain", "/project/.env", true},
		{"pem", "/project/server.pem", true},
		{"pem uppercase", "/project/SERVER.PEM", true},
		{"p12", "/project/cert.p12", true},
		{"kdbx", "/Users/u/vault.kdbx", true},
		{"1password export", "/Users/u/export.1pux", true},
		{"password in name", "/project/password.txt", true},
		{"password mixed case", "/project/MyPasswords.md", true},
		{"npmrc", "/Users/u/.npmrc", true},
		{"git credentials", "/Users/u/.git-credentials", true},
		{"gitconfig", "/Users/u/.gitconfig", true},
		{"hidden secrets dir", "/project/.secrets/notes.md", true},
		{"hidden token dir", "/project/.tokens/readme.md", true},
		{"traversal into etc", "/Users/u/docs/../../../etc/hosts", true},
		{"readme", "/Users/u/docs/README.md", false},
		{"envrc is not env", "/project/.envrc", false},
		{"visible secrets dir", "/project/secrets/notes.md", false},
		{"keynote not key", "/project/keynote.md", false},
		{"monkey not key", "/project/monkey", false},
		{"etc lookalike", "/etcetera/notes.md", false},
		{"ssh lookalike", "/Users/u/.sshfs/notes.md", false},
	}

	p := NewPolicy("linux")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.IsProtected(tt.path); got != tt.want {
				rule, _ := p.Match(tt.path)
				t.Errorf("IsProtected(%q) = %v, want %v (rule %v %q)", tt.path, got, tt.want, rule.Kind, rule.Value)
			}
		})
	}
}

func TestPolicy_PlatformPrefixes(t *testing.T) {
	tests := []struct {
		goos string
		path string
		want bool
	}{
		{"darwin", "/System/Library/CoreServices", true},
		{"darwin", "/system/library", true},
		{"darwin", "/private/etc/hosts", true},
		{"darwin", "/Users/u/Documents/a.md", false},
		{"linux", "/System/Library", false},
		{"linux", "/proc/self/environ", true},
		{"linux", "/ETC/passwd", false},
		{"windows", `C:\Windows\System32\drivers\etc\hosts`, true},
		{"windows", `c:\windows\win.ini`, true},
		{"windows", `C:\Program Files\App\readme.md`, true},
		{"windows", `C:\Users\u\Documents\notes.md`, false},
		{"windows", `C:\Users\u\.ssh\id_ed25519`, true},
		{"windows", `D:\Windows\notes.md`, false},
	}

	for _, tt := range tests {
		t.Run(tt.goos+" "+tt.path, func(t *testing.T) {
			if runtime.GOOS == "windows" && tt.goos != "windows" {
				t.Skip("unix path literal on windows host")
			}
			if got := NewPolicy(tt.goos).IsProtected(tt.path); got != tt.want {
				t.Errorf("NewPolicy(%q).IsProtected(%q) = %v, want %v", tt.goos, tt.path, got, tt.want)
			}
		})
	}
}

func TestPolicy_UnknownOSFallsBackToLinux(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path literals")
	}
	if !NewPolicy("plan9").IsProtected("/etc/shadow") {
		t.Error("unknown OS should use linux prefixes")
	}
}

func TestPolicy_RulesIsACopy(t *testing.T) {
	p := NewPolicy("linux")
	rules := p.Rules()
	rules[0] = Rule{Kind: FilenameExact, Value: "changed"}

	if p.Rules()[0].Value == "changed" {
		t.Error("Rules() must not expose the internal table")
	}
}

func TestPolicy_EmptyPath(t *testing.T) {
	if NewPolicy("linux").IsProtected("") {
		t.Error(`IsProtected("") = true, want false`)
	}
}

func TestRuleKind_String(t *testing.T) {
	if AbsolutePrefix.String() != "absolute-prefix" {
		t.Errorf("AbsolutePrefix.String() = %q", AbsolutePrefix.String())
	}
	if RuleKind(99).String() != "unknown" {
		t.Errorf("RuleKind(99).String() = %q", RuleKind(99).String())
	}
}
