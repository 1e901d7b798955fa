package version

import (
	"strings"
	"testing"
)

func TestCurrent(t *testing.T) {
	b := Current()
	switch {
	case b.Version == "":
		t.Error("version should not be empty")
	case b.Commit == "":
		t.Error("commit should not be empty")
	case b.Date == "":
		t.Error("date should not be empty")
	}
}

func TestBuildString(t *testing.T) {
	s := Build{Version: "1.2.0", Commit: "abc123", Date: "2024-05-01"}.String()
	for _, part := range []string{"version=1.2.0", "commit=abc123", "date=2024-05-01"} {
		if !strings.Contains(s, part) {
			t.Errorf("String() = %q, want it to contain %q", s, part)
		}
	}
}

func TestBuildFields(t *testing.T) {
	fields := Current().Fields()
	if fields["version"] != version || fields["commit"] != commit || fields["built"] != date {
		t.Fatalf("unexpected fields: %v", fields)
	}
}
