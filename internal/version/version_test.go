package version

import (
	"strings"
	"testing"
)

func TestCurrentPrefersLdflags(t *testing.T) {
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})

	Version = " 1.2.3 "
	GitCommit = "abc123def456"
	BuildDate = "2024-01-15T10:30:00Z"

	info := Current()
	if info.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", info.Version, "1.2.3")
	}
	if info.GitCommit != "abc123def456" {
		t.Errorf("GitCommit = %q", info.GitCommit)
	}
	if info.BuildDate != "2024-01-15T10:30:00Z" {
		t.Errorf("BuildDate = %q", info.BuildDate)
	}
}

func TestCurrentEmptyVersion(t *testing.T) {
	orig := Version
	t.Cleanup(func() { Version = orig })

	Version = ""
	if got := Current().Version; got != "dev" {
		t.Errorf("Version = %q, want dev", got)
	}
}

func TestColored(t *testing.T) {
	tests := []struct {
		in      string
		enabled bool
		escaped bool
		plain   string
	}{
		{in: "0.1.0-dev", enabled: true, escaped: true, plain: "0.1.0-dev"},
		{in: "1.2.3", enabled: false, plain: "1.2.3"},
		{in: "dev", enabled: true, plain: "dev"},
		{in: "1.2.3-rc.1+build.123", enabled: true, escaped: true, plain: "1.2.3-rc.1+build.123"},
	}
	for _, tt := range tests {
		got := Colored(tt.in, tt.enabled)
		if strings.Contains(got, "\x1b[") != tt.escaped {
			t.Errorf("Colored(%q, %v) = %q", tt.in, tt.enabled, got)
		}
		if stripANSI(got) != tt.plain {
			t.Errorf("Colored(%q) text = %q, want %q", tt.in, stripANSI(got), tt.plain)
		}
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
