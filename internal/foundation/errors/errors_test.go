package errors

import (
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			Fatal().
			WithContext("file", "symdoc.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if !err.IsFatal() {
			t.Error("expected fatal severity")
		}
		file, ok := err.Context().GetString("file")
		if !ok || file != "symdoc.yaml" {
			t.Errorf("expected context file=symdoc.yaml, got %v", file)
		}
	})

	t.Run("Wrapping keeps the cause", func(t *testing.T) {
		cause := stderrors.New("disk full")
		err := WrapError(cause, CategoryFileSystem, "write output").Build()
		if !stderrors.Is(err, cause) {
			t.Error("expected error to wrap cause")
		}
		if got := err.Error(); got != "[filesystem:error] write output: disk full" {
			t.Errorf("unexpected message %q", got)
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		err := fmt.Errorf("graph: %w", Unsupported("symbol", "swift.thing"))
		if !HasCategory(err, CategorySymbolGraph) {
			t.Error("expected symbolgraph category through fmt wrapping")
		}
		if GetCategory(stderrors.New("plain")) != CategoryInternal {
			t.Error("plain errors default to internal")
		}
	})
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("constraint", "superType")
	if !strings.Contains(err.Error(), "unknown constraint kind 'superType'") {
		t.Errorf("message should name the kind: %s", err.Error())
	}
	kind, _ := err.Context().GetString("kind")
	if kind != "superType" {
		t.Errorf("expected kind context, got %q", kind)
	}
}

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad json").Build(), 2},
		{"unsupported kind", Unsupported("symbol", "swift.x"), 3},
		{"config", ConfigError("missing modules").Build(), 7},
		{"store", StoreError("insert").Build(), 11},
		{"unclassified", stderrors.New("boom"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	quiet := NewCLIErrorAdapter(false, nil)
	loud := NewCLIErrorAdapter(true, nil)
	err := Unsupported("relationship", "mixesIn")

	if got := quiet.FormatError(err); !strings.Contains(got, "add a mapping for 'mixesIn'") {
		t.Errorf("quiet format: %q", got)
	}
	if got := loud.FormatError(err); !strings.HasPrefix(got, "[symbolgraph:fatal]") {
		t.Errorf("verbose format: %q", got)
	}
	if got := quiet.FormatError(stderrors.New("x")); got != "Error: x" {
		t.Errorf("plain format: %q", got)
	}
}
