// Package watcher reports content changes of individual files on disk.
package watcher

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called with the key a file was registered under and the
// file's new content.
type ChangeHandler func(key string, content []byte)

// Watcher follows a set of files. fsnotify watches directories, so each
// file's parent directory is added and events are filtered by path.
// Atomic replacements (write temp, rename over) arrive as Create and are
// reported like writes.
type Watcher struct {
	fs       *fsnotify.Watcher
	onChange ChangeHandler

	mu       sync.RWMutex
	watching map[string]string // abs path -> key
	dirs     map[string]int    // abs dir -> watched files in it
}

func New(onChange ChangeHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	w := &Watcher{
		fs:       fw,
		onChange: onChange,
		watching: make(map[string]string),
		dirs:     make(map[string]int),
	}

	go w.loop()

	return w, nil
}

// Watch registers path under key, replacing whatever path key had before.
func (w *Watcher) Watch(key, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(absPath)

	w.Unwatch(key)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	w.watching[absPath] = key
	w.dirs[dir]++
	return nil
}

// Unwatch stops reporting changes for key.
func (w *Watcher) Unwatch(key string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, k := range w.watching {
		if k != key {
			continue
		}
		delete(w.watching, path)
		dir := filepath.Dir(path)
		w.dirs[dir]--
		if w.dirs[dir] <= 0 {
			delete(w.dirs, dir)
			_ = w.fs.Remove(dir)
		}
		return
	}
}

// Watching reports whether key is registered.
func (w *Watcher) Watching(key string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	for _, k := range w.watching {
		if k == key {
			return true
		}
	}
	return false
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			absPath, _ := filepath.Abs(event.Name)
			w.mu.RLock()
			key, watched := w.watching[absPath]
			w.mu.RUnlock()
			if !watched {
				continue
			}

			content, err := os.ReadFile(absPath)
			if err != nil {
				log.Printf("watcher: read %s: %v", absPath, err)
				continue
			}
			if w.onChange != nil {
				w.onChange(key, content)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.Printf("watcher: %v", err)
		}
	}
}
