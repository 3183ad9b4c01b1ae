package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyUSR        = "usr"
	KeyKind       = "kind"
	KeyModule     = "module"
	KeyName       = "name"
	KeyPath       = "path"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyRunID      = "run_id"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func USR(usr string) slog.Attr        { return slog.String(KeyUSR, usr) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Module(m string) slog.Attr       { return slog.String(KeyModule, m) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
