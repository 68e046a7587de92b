package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Registry holds the templates found in one directory, keyed by name.
type Registry struct {
	dir string

	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry loads every template in dir. Malformed files are skipped and
// returned as warnings; only an unreadable directory is an error.
func NewRegistry(dir string) (*Registry, []string, error) {
	r := &Registry{dir: dir, templates: make(map[string]*Template)}
	warnings, err := r.loadAll()
	if err != nil {
		return nil, nil, err
	}
	return r, warnings, nil
}

func (r *Registry) Dir() string {
	return r.dir
}

func (r *Registry) loadAll() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read templates dir %s: %w", r.dir, err)
	}

	var warnings []string
	for _, e := range entries {
		if e.IsDir() || !isTemplateFile(e.Name()) {
			continue
		}
		path := filepath.Join(r.dir, e.Name())
		if err := r.Reload(path); err != nil {
			warnings = append(warnings, err.Error())
		}
	}
	return warnings, nil
}

// Reload (re)reads a single template file. A file that no longer exists is
// removed from the registry; a malformed one is removed and reported.
func (r *Registry) Reload(path string) error {
	name := NameFromPath(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		r.Remove(name)
		return nil
	}

	t, err := Load(path)
	if err != nil {
		r.Remove(name)
		return err
	}

	r.mu.Lock()
	r.templates[name] = t
	r.mu.Unlock()
	slog.Info("catalog: template loaded", "template", name, "questions", t.Len())
	return nil
}

func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.templates, name)
	r.mu.Unlock()
}

// Put registers an already-built template.
func (r *Registry) Put(t *Template) {
	r.mu.Lock()
	r.templates[t.Name] = t
	r.mu.Unlock()
}

func (r *Registry) Template(name string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTemplateNotFound, name)
	}
	return t, nil
}

// Names returns the registered template names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isTemplateFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
