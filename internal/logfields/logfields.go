package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyURL        = "url"
	KeyLayout     = "layout"
	KeyCollection = "collection"
	KeyTag        = "tag"
	KeyCount      = "count"
	KeyLanguage   = "language"
	KeyTheme      = "theme"
	KeyOutput     = "output"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Layout(l string) slog.Attr        { return slog.String(KeyLayout, l) }
func Collection(name string) slog.Attr { return slog.String(KeyCollection, name) }
func Tag(t string) slog.Attr           { return slog.String(KeyTag, t) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Language(lang string) slog.Attr   { return slog.String(KeyLanguage, lang) }
func Theme(name string) slog.Attr      { return slog.String(KeyTheme, name) }
func Output(dir string) slog.Attr      { return slog.String(KeyOutput, dir) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
