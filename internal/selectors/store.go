package selectors

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Store holds the current mapping and, when backed by a file, swaps in a new
// one whenever that file changes. Readers get an immutable snapshot; the only
// write is the atomic pointer swap under the lock.
type Store struct {
	mu   sync.RWMutex
	m    *Mapping
	path string
	log  *zap.Logger
}

// NewStore creates a store. An empty path means the built-in defaults with no
// reloading. A non-empty path is loaded immediately.
func NewStore(path string, log *zap.Logger) (*Store, error) {
	s := &Store{m: Default(), path: path, log: log}
	if path != "" {
		m, err := Load(path)
		if err != nil {
			return nil, err
		}
		s.m = m
		log.Info("selector mapping loaded", zap.String("path", path))
	}
	return s, nil
}

// Current returns the active mapping snapshot.
func (s *Store) Current() *Mapping {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m
}

// Watch reloads the mapping when its file is rewritten, until ctx is done.
// It is non-blocking; without a backing file it does nothing.
func (s *Store) Watch(ctx context.Context) error {
	if s.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	// Watch the directory: editors replace files, which would orphan a watch
	// on the file itself.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		var pending <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != s.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				// Debounce rapid saves.
				pending = time.After(250 * time.Millisecond)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("selector watcher error", zap.Error(err))
			case <-pending:
				pending = nil
				s.reload()
			}
		}
	}()
	return nil
}

func (s *Store) reload() {
	m, err := Load(s.path)
	if err != nil {
		s.log.Warn("selector mapping reload failed, keeping previous", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.m = m
	s.mu.Unlock()
	s.log.Info("selector mapping reloaded", zap.String("path", s.path))
}
