package stats

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/sourcekit"
)

func undocumented(name, file string, line int) *declaration.Declaration {
	return &declaration.Declaration{
		Type: declaration.Type{Kind: sourcekit.SwiftKind("function.free")},
		Name: name,
		File: file,
		Line: line,
	}
}

func TestCoverage(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Coverage())

	for range 2 {
		s.AddDocumented()
	}
	a := undocumented("a()", "A.swift", 1)
	s.AddUndocumented(a)
	s.AddUndocumented(undocumented("b()", "A.swift", 2))
	s.AddUndocumented(undocumented("c()", "A.swift", 3))
	assert.Equal(t, 40, s.Coverage())

	s.RemoveUndocumented(a)
	assert.Equal(t, 2, s.Undocumented())
	assert.Equal(t, 4, s.ACLIncluded())
	assert.Equal(t, 50, s.Coverage())
}

func TestSummary(t *testing.T) {
	s := New()
	s.AddDocumented()
	s.AddACLSkipped()
	s.AddACLSkipped()
	s.AddSPISkipped()

	assert.Equal(t, []string{
		"100% documentation coverage with 0 undocumented symbols",
		"included 1 public or open symbol",
		"skipped 2 private, fileprivate, internal, or package symbols (use `min_acl` to specify a different minimum ACL)",
		"skipped 1 SPI symbol (use `include_spi` to document these)",
	}, s.Summary(declaration.ACLPublic, false))

	assert.Equal(t, []string{
		"100% documentation coverage with 0 undocumented symbols",
		"included 1 symbol",
		"skipped 1 SPI symbol (use `include_spi` to document these)",
	}, s.Summary(declaration.ACLPublic, true))
}

func TestCommaList(t *testing.T) {
	assert.Equal(t, "open", commaList([]declaration.ACL{declaration.ACLOpen}))
	assert.Equal(t, "public or open", commaList(declaration.ACLPublic.IncludedLevels()))
	assert.Equal(t, "package, public, or open", commaList(declaration.ACLPackage.IncludedLevels()))
	assert.Empty(t, commaList(nil))
}

func TestLintReport(t *testing.T) {
	s := New()
	s.AddUndocumented(undocumented("z()", "B.swift", 1))
	s.AddUndocumented(undocumented("b()", "A.swift", 20))
	ranged := undocumented("a()", "A.swift", 0)
	ranged.StartLine = 5
	s.AddUndocumented(ranged)
	s.AddUndocumented(undocumented("n()", "A.swift", 0))

	report := s.LintReport("/src")
	require.Len(t, report.Warnings, 4)
	got := make([]string, len(report.Warnings))
	for i, w := range report.Warnings {
		got[i] = w.File + ":" + w.Symbol
	}
	assert.Equal(t, []string{"A.swift:n()", "A.swift:a()", "A.swift:b()", "B.swift:z()"}, got)
	assert.Nil(t, report.Warnings[0].Line)
	require.NotNil(t, report.Warnings[1].Line)
	assert.Equal(t, 5, *report.Warnings[1].Line)

	path := filepath.Join(t.TempDir(), "undocumented.json")
	require.NoError(t, WriteLintReport(path, report))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "/src", decoded["source_directory"])
	first := decoded["warnings"].([]any)[0].(map[string]any)
	assert.Equal(t, "undocumented", first["warning"])
	assert.Equal(t, "source.lang.swift.decl.function.free", first["symbol_kind"])
	assert.Nil(t, first["line"])
}
