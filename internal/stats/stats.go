// Package stats collects documentation coverage figures for a build.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"

	"git.home.luguber.info/inful/symdoc/internal/declaration"
	"git.home.luguber.info/inful/symdoc/internal/foundation/errors"
	"git.home.luguber.info/inful/symdoc/internal/logfields"
)

// Stats counts symbols as the declaration builder decides their fate.
// It implements declaration.Stats.
type Stats struct {
	documented   int
	aclSkipped   int
	spiSkipped   int
	undocumented []*declaration.Declaration
}

var _ declaration.Stats = (*Stats)(nil)

// New creates empty statistics.
func New() *Stats { return &Stats{} }

func (s *Stats) AddDocumented() { s.documented++ }
func (s *Stats) AddACLSkipped() { s.aclSkipped++ }
func (s *Stats) AddSPISkipped() { s.spiSkipped++ }

func (s *Stats) AddUndocumented(d *declaration.Declaration) {
	s.undocumented = append(s.undocumented, d)
}

// RemoveUndocumented forgets d, for declarations dropped after they were
// counted.
func (s *Stats) RemoveUndocumented(d *declaration.Declaration) {
	s.undocumented = slices.DeleteFunc(s.undocumented, func(u *declaration.Declaration) bool { return u == d })
}

func (s *Stats) Documented() int   { return s.documented }
func (s *Stats) ACLSkipped() int   { return s.aclSkipped }
func (s *Stats) SPISkipped() int   { return s.spiSkipped }
func (s *Stats) Undocumented() int { return len(s.undocumented) }

// UndocumentedDecls lists the undocumented declarations in the order they
// were found.
func (s *Stats) UndocumentedDecls() []*declaration.Declaration {
	return slices.Clone(s.undocumented)
}

// ACLIncluded is the number of symbols at or above the minimum ACL.
func (s *Stats) ACLIncluded() int { return s.documented + s.Undocumented() }

// Coverage is the documented percentage of included symbols, rounded down.
func (s *Stats) Coverage() int {
	if s.ACLIncluded() == 0 {
		return 0
	}
	return 100 * s.documented / s.ACLIncluded()
}

// Summary renders the human readable report. ObjC builds do not mention
// access levels.
func (s *Stats) Summary(minACL declaration.ACL, objc bool) []string {
	lines := []string{fmt.Sprintf("%d%% documentation coverage with %d undocumented %s",
		s.Coverage(), s.Undocumented(), symbols(s.Undocumented()))}

	if n := s.ACLIncluded(); n > 0 {
		acls := ""
		if !objc {
			acls = commaList(minACL.IncludedLevels()) + " "
		}
		lines = append(lines, fmt.Sprintf("included %d %s%s", n, acls, symbols(n)))
	}
	if !objc && s.aclSkipped > 0 {
		lines = append(lines, fmt.Sprintf("skipped %d %s %s (use `min_acl` to specify a different minimum ACL)",
			s.aclSkipped, commaList(minACL.ExcludedLevels()), symbols(s.aclSkipped)))
	}
	if s.spiSkipped > 0 {
		lines = append(lines, fmt.Sprintf("skipped %d SPI %s (use `include_spi` to document these)",
			s.spiSkipped, symbols(s.spiSkipped)))
	}
	return lines
}

// Report logs the summary.
func (s *Stats) Report(logger *slog.Logger, minACL declaration.ACL, objc bool) {
	for _, line := range s.Summary(minACL, objc) {
		logger.Info(line)
	}
}

func symbols(n int) string {
	if n == 1 {
		return "symbol"
	}
	return "symbols"
}

func commaList(levels []declaration.ACL) string {
	words := make([]string, len(levels))
	for i, l := range levels {
		words[i] = l.String()
	}
	switch len(words) {
	case 0:
		return ""
	case 1:
		return words[0]
	case 2:
		return words[0] + " or " + words[1]
	default:
		return strings.Join(words[:len(words)-1], ", ") + ", or " + words[len(words)-1]
	}
}

// Warning is one entry of the lint report.
type Warning struct {
	File       string `json:"file"`
	Line       *int   `json:"line"`
	Symbol     string `json:"symbol"`
	SymbolKind string `json:"symbol_kind"`
	Warning    string `json:"warning"`
}

// LintReport lists undocumented symbols for editors and CI.
type LintReport struct {
	Warnings        []Warning `json:"warnings"`
	SourceDirectory string    `json:"source_directory"`
}

// LintReport builds the report, sorted by file, line, symbol and kind.
func (s *Stats) LintReport(sourceDir string) LintReport {
	warnings := make([]Warning, 0, len(s.undocumented))
	for _, d := range s.undocumented {
		w := Warning{
			File:       d.File,
			Symbol:     d.FullyQualifiedName(),
			SymbolKind: d.Type.Kind,
			Warning:    "undocumented",
		}
		if line := d.Line; line > 0 {
			w.Line = &line
		} else if line := d.StartLine; line > 0 {
			w.Line = &line
		}
		warnings = append(warnings, w)
	}
	slices.SortStableFunc(warnings, func(a, b Warning) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		if c := lineOf(a) - lineOf(b); c != 0 {
			return c
		}
		if c := strings.Compare(a.Symbol, b.Symbol); c != 0 {
			return c
		}
		return strings.Compare(a.SymbolKind, b.SymbolKind)
	})
	return LintReport{Warnings: warnings, SourceDirectory: sourceDir}
}

func lineOf(w Warning) int {
	if w.Line == nil {
		return 0
	}
	return *w.Line
}

// WriteLintReport writes the report as indented JSON.
func WriteLintReport(path string, report LintReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to encode lint report").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write lint report").
			WithContext(logfields.KeyPath, path).
			Build()
	}
	return nil
}
