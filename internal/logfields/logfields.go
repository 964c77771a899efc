package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyPlugin     = "plugin"
	KeyKind       = "kind"
	KeyAttribute  = "attribute"
	KeyLayout     = "layout"
	KeyPath       = "path"
	KeyProject    = "project"
	KeyURL        = "url"
	KeyName       = "name"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Plugin(name string) slog.Attr    { return slog.String(KeyPlugin, name) }
func Kind(k string) slog.Attr         { return slog.String(KeyKind, k) }
func Attribute(a string) slog.Attr    { return slog.String(KeyAttribute, a) }
func Layout(l string) slog.Attr       { return slog.String(KeyLayout, l) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Project(p string) slog.Attr      { return slog.String(KeyProject, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
