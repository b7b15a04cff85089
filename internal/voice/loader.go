package voice

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Loader loads and optionally hot-reloads book profiles from YAML files.
// Built-in profiles are always present; files may add projects or override
// a built-in by reusing its ID.
type Loader struct {
	dir string

	mu       sync.RWMutex
	profiles map[string]BookProfile
	order    []string
}

// NewLoader creates a profile loader for the given directory. An empty
// directory name yields a loader serving only the built-in profiles.
func NewLoader(dir string) *Loader {
	l := &Loader{dir: dir}
	l.install(nil)
	return l
}

// LoadAll loads all .yaml and .yml files from the configured directory.
func (l *Loader) LoadAll() error {
	if l.dir == "" {
		return nil
	}

	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return fmt.Errorf("read profile dir %q: %w", l.dir, err)
	}

	var loaded []BookProfile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		bp, err := loadFile(path)
		if err != nil {
			return fmt.Errorf("load %q: %w", path, err)
		}
		loaded = append(loaded, bp)
	}

	l.install(loaded)
	return nil
}

// Get returns a book profile by ID.
func (l *Loader) Get(id string) (BookProfile, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	bp, ok := l.profiles[id]
	return bp, ok
}

// All returns every profile, built-ins first, in load order.
func (l *Loader) All() []BookProfile {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]BookProfile, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.profiles[id])
	}
	return out
}

func (l *Loader) install(extra []BookProfile) {
	profiles := make(map[string]BookProfile, len(builtinProfiles)+len(extra))
	var order []string
	for _, bp := range builtinProfiles {
		profiles[bp.ID] = bp
		order = append(order, bp.ID)
	}
	for _, bp := range extra {
		if _, exists := profiles[bp.ID]; !exists {
			order = append(order, bp.ID)
		}
		profiles[bp.ID] = bp
	}

	l.mu.Lock()
	l.profiles = profiles
	l.order = order
	l.mu.Unlock()
}

func loadFile(path string) (BookProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BookProfile{}, err
	}

	var bp BookProfile
	if err := yaml.Unmarshal(data, &bp); err != nil {
		return BookProfile{}, fmt.Errorf("parse YAML: %w", err)
	}

	if bp.ID == "" {
		bp.ID = filepath.Base(path)
	}
	if bp.DefaultVoice != "" {
		if _, ok := Lookup(bp.DefaultVoice); !ok {
			return BookProfile{}, fmt.Errorf("unknown default voice %q", bp.DefaultVoice)
		}
	}

	return bp, nil
}

// WatchAndReload starts watching the profile directory for changes and
// reloads. This blocks until the done channel is closed.
func (l *Loader) WatchAndReload(done <-chan struct{}) error {
	if l.dir == "" {
		<-done
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("watch dir %q: %w", l.dir, err)
	}

	for {
		select {
		case <-done:
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				ext := filepath.Ext(event.Name)
				if ext == ".yaml" || ext == ".yml" {
					l.LoadAll()
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
