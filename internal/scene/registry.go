package scene

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry and Engine.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}

// Registry is the scene store: a Repository with an in-memory cache.
//
// The cache is populated on startup via RefreshCache() and kept in sync by
// Put and Delete. Reads never touch the repository.
//
// All public methods are thread-safe.
type Registry struct {
	repo    Repository
	cache   map[string]*Scene
	cacheMu sync.RWMutex
	logger  Logger
}

// NewRegistry creates a scene store over repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Scene),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all scenes from the repository.
func (r *Registry) RefreshCache(ctx context.Context) error {
	scenes, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading scenes: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Scene, len(scenes))
	for i := range scenes {
		r.cache[scenes[i].Name] = scenes[i].DeepCopy()
	}

	r.logger.Info("scene cache refreshed", "count", len(scenes))
	return nil
}

// Get returns a deep copy of the named scene.
func (r *Registry) Get(name string) (*Scene, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[name]
	r.cacheMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSceneNotFound, name)
	}
	return cached.DeepCopy(), nil
}

// List returns deep copies of every scene sorted by name.
func (r *Registry) List() []Scene {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()

	scenes := make([]Scene, 0, len(r.cache))
	for _, s := range r.cache {
		scenes = append(scenes, *s.DeepCopy())
	}
	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].Name < scenes[j].Name
	})
	return scenes
}

// Count returns the number of cached scenes.
func (r *Registry) Count() int {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	return len(r.cache)
}

// Put validates, persists and caches s, replacing any scene with the same
// name.
func (r *Registry) Put(ctx context.Context, s *Scene) error {
	if err := ValidateScene(s); err != nil {
		return err
	}

	stored := s.DeepCopy()
	if err := r.repo.Save(ctx, stored); err != nil {
		return err
	}
	s.CreatedAt = stored.CreatedAt

	r.cacheMu.Lock()
	r.cache[stored.Name] = stored
	r.cacheMu.Unlock()
	return nil
}

// Delete removes the named scene and reports whether it existed.
func (r *Registry) Delete(ctx context.Context, name string) (bool, error) {
	removed, err := r.repo.Delete(ctx, name)
	if err != nil {
		return false, err
	}

	r.cacheMu.Lock()
	_, cached := r.cache[name]
	delete(r.cache, name)
	r.cacheMu.Unlock()

	return removed || cached, nil
}
