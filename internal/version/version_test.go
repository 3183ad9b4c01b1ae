package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}
	if !strings.HasPrefix(String(), "symdoc "+Version) {
		t.Errorf("unexpected version string %q", String())
	}
}
