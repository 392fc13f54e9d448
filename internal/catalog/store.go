package catalog

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Store holds the current catalog snapshot and swaps it atomically on
// reload. Readers always see a complete snapshot, never a half-loaded one.
type Store struct {
	dir    string
	logger *slog.Logger

	mu      sync.RWMutex
	current *Catalog
}

// NewStore loads the catalog directory and returns a store serving it.
func NewStore(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c, err := Load(dir, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("catalog loaded", "dir", dir, "studies", c.Len())
	return &Store{dir: dir, logger: logger, current: c}, nil
}

// Catalog returns the current snapshot.
func (s *Store) Catalog() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload re-reads the catalog directory and swaps the snapshot. On failure
// the previous snapshot stays in place.
func (s *Store) Reload() error {
	c, err := Load(s.dir, s.logger)
	if err != nil {
		s.logger.Error("catalog reload failed, keeping previous snapshot", "error", err)
		return err
	}

	s.mu.Lock()
	s.current = c
	s.mu.Unlock()

	s.logger.Info("catalog reloaded", "studies", c.Len())
	return nil
}

// Watch reloads the catalog whenever a descriptor file changes, until the
// context is cancelled. Reload errors are logged, not returned; the last
// good snapshot keeps serving.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, s.dir); err != nil {
		return err
	}

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			ext := filepath.Ext(event.Name)
			if ext != ".yml" && ext != ".yaml" {
				continue
			}

			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("catalog file changed", "file", event.Name)
				_ = s.Reload()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("catalog watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds dir and its subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
