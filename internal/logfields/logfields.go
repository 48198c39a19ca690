package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyProject     = "project"
	KeyBuildID     = "build_id"
	KeyStage       = "stage"
	KeyPage        = "page"
	KeyLayout      = "layout"
	KeyEnvironment = "environment"
	KeyPath        = "path"
	KeyTrigger     = "trigger"
	KeyDurationMS  = "duration_ms"
	KeyCount       = "count"
	KeyURL         = "url"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Project(name string) slog.Attr     { return slog.String(KeyProject, name) }
func BuildID(id string) slog.Attr       { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func Page(name string) slog.Attr        { return slog.String(KeyPage, name) }
func Layout(name string) slog.Attr      { return slog.String(KeyLayout, name) }
func Environment(env string) slog.Attr  { return slog.String(KeyEnvironment, env) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Trigger(t string) slog.Attr        { return slog.String(KeyTrigger, t) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
