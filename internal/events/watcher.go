package events

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch runs an fsnotify watcher on root and emits a DocumentChanged event
// for every markdown write until ctx is cancelled. New directories created at
// runtime are added to the watch list, and any markdown files already inside
// them are emitted as well.
//
// The watcher deliberately over-delivers: a single save can surface as
// several Create/Write events. Deduplication is the consumer's problem.
func Watch(ctx context.Context, root string, logger *slog.Logger, emit func(DocumentChanged)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					emitDirContents(root, absPath, emit)
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(absPath, ".md") {
				continue
			}

			rel, relErr := filepath.Rel(root, absPath)
			if relErr != nil {
				continue
			}

			changed := DocumentChanged{Path: filepath.ToSlash(rel)}
			if info, statErr := os.Stat(absPath); statErr == nil {
				changed.Modified = info.ModTime()
			}
			logger.Debug("watcher: document changed", slog.String("path", changed.Path))
			emit(changed)

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// emitDirContents emits events for markdown files already present in a newly
// created directory.
func emitDirContents(root, dirPath string, emit func(DocumentChanged)) {
	_ = filepath.WalkDir(dirPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}
		changed := DocumentChanged{Path: filepath.ToSlash(rel)}
		if info, statErr := os.Stat(path); statErr == nil {
			changed.Modified = info.ModTime()
		}
		emit(changed)
		return nil
	})
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
