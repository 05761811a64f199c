package preview

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// newWatcher watches every directory under root and, when non-empty, the
// directory holding configPath.
func newWatcher(root, configPath string) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("fsnotify: %w", err)
	}
	if err := addDirsRecursive(w, root); err != nil {
		_ = w.Close()
		return nil, err
	}
	if configPath != "" {
		// Editors replace files on save; watching the directory survives that.
		dir := filepath.Dir(configPath)
		if err := w.Add(dir); err != nil {
			slog.Warn("Config watch failed", logfields.Path(dir), logfields.Error(err))
		}
	}
	return w, nil
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if err := w.Add(p); err != nil {
			slog.Warn("Watch add failed", logfields.Path(p), logfields.Error(err))
		}
		return nil
	})
}

// eventFilter decides which filesystem events trigger a rebuild.
type eventFilter struct {
	inputDir   string
	outputDir  string
	configPath string
}

func (f eventFilter) relevant(name string) bool {
	if shouldIgnoreEvent(name) {
		return false
	}
	if f.outputDir != "" && within(f.outputDir, name) {
		return false
	}
	if f.configPath != "" && filepath.Clean(name) == f.configPath {
		return true
	}
	if !within(f.inputDir, name) {
		return false
	}
	rel, _ := filepath.Rel(f.inputDir, name)
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") && part != "." {
			return false
		}
	}
	return true
}

func within(dir, name string) bool {
	rel, err := filepath.Rel(dir, name)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// handleFileEvent watches new directories and reports whether ev should
// trigger a rebuild.
func (f eventFilter) handleFileEvent(w *fsnotify.Watcher, ev fsnotify.Event) bool {
	if !f.relevant(ev.Name) {
		return false
	}
	if ev.Has(fsnotify.Create) && within(f.inputDir, ev.Name) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(w, ev.Name)
		}
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

// shouldIgnoreEvent returns true for editor, hidden and OS bookkeeping files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasSuffix(base, ".tmp") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	return base == "Thumbs.db" || base == "4913"
}
