package local

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/harvest-cli/internal/core/domain"
	"github.com/custodia-labs/harvest-cli/internal/logger"
)

// Watch emits candidate items for files created or written under the
// root while the watch is active. The channel closes when ctx is
// cancelled. Subdirectories existing at start are watched; directories
// created later are added as their create events arrive.
func (a *Adapter) Watch(ctx context.Context) (<-chan domain.CandidateItem, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := a.watchTree(watcher); err != nil {
		watcher.Close()
		return nil, err
	}

	items := make(chan domain.CandidateItem)

	go func() {
		defer close(items)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				a.handleEvent(ctx, watcher, event, items)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watch error on %s: %v", a.root, err)
			}
		}
	}()

	return items, nil
}

// watchTree registers the root and every existing subdirectory.
func (a *Adapter) watchTree(watcher *fsnotify.Watcher) error {
	return filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			return watcher.Add(path)
		}
		return nil
	})
}

// handleEvent turns one fsnotify event into a candidate item, and
// registers newly created directories.
func (a *Adapter) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event, items chan<- domain.CandidateItem) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if strings.HasPrefix(filepath.Base(event.Name), ".") {
		return
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		// Removed again before we could stat it.
		return
	}

	// New directories need registering for nested events.
	if info.IsDir() {
		if err := watcher.Add(event.Name); err != nil {
			logger.Warn("Watch add %s: %v", event.Name, err)
		}
		return
	}

	rel, err := filepath.Rel(a.root, event.Name)
	if err != nil {
		return
	}
	item, err := a.candidate(rel)
	if err != nil {
		return
	}

	select {
	case items <- item:
	case <-ctx.Done():
	}
}
