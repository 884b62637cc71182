// Package saved keeps the user's saved recipes, keyed by recipe name and
// mirrored in full to a single cache key after every change.
package saved

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"ninjachef/internal/ai"
	"ninjachef/internal/cache"

	"github.com/samber/lo"
)

// DefaultKey is the storage slot holding the whole saved collection.
const DefaultKey = "savedNarutoRecipes"

// ErrCorrupt marks persisted data that could not be decoded. Load recovers
// from it and only logs it.
var ErrCorrupt = errors.New("persisted saved recipes are corrupt")

type Store struct {
	cache cache.Cache
	key   string

	mu      sync.Mutex
	recipes []ai.Recipe
}

func New(c cache.Cache, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{cache: c, key: key}
}

// Load replaces the in-memory collection with the persisted one. Missing,
// unreadable or malformed data leaves the collection empty.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipes = nil

	raw, err := s.cache.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			slog.ErrorContext(ctx, "failed to read saved recipes, starting empty", "key", s.key, "error", err)
		}
		return
	}

	var recipes []ai.Recipe
	if err := json.Unmarshal([]byte(raw), &recipes); err != nil {
		slog.WarnContext(ctx, "resetting saved recipes", "key", s.key, "error", fmt.Errorf("%w: %w", ErrCorrupt, err))
		return
	}
	s.recipes = recipes
	slog.InfoContext(ctx, "loaded saved recipes", "key", s.key, "count", len(recipes))
}

// Save appends recipe unless one with the same name is already saved. The
// stored copy always starts out not favorited. It reports whether the recipe
// was added.
func (s *Store) Save(ctx context.Context, recipe ai.Recipe) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(recipe.Name) >= 0 {
		return false, nil
	}
	entry := recipe.Clone()
	entry.IsFavorite = false
	next := append(append(make([]ai.Recipe, 0, len(s.recipes)+1), s.recipes...), entry)
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	slog.InfoContext(ctx, "saved recipe", "recipe", recipe.Name, "count", len(next))
	return true, nil
}

// ToggleFavorite flips the favorite flag of the saved recipe called name.
// Recipes that are not saved have no favorite state, so an unknown name changes
// nothing. The collection is written either way.
func (s *Store) ToggleFavorite(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := lo.Map(s.recipes, func(r ai.Recipe, _ int) ai.Recipe {
		if r.Name == name {
			r.IsFavorite = !r.IsFavorite
		}
		return r
	})
	return s.commit(ctx, next)
}

// Delete removes every recipe called name and writes the rest.
func (s *Store) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := lo.Filter(s.recipes, func(r ai.Recipe, _ int) bool {
		return r.Name != name
	})
	if err := s.commit(ctx, next); err != nil {
		return err
	}
	if len(next) != len(s.recipes) {
		slog.InfoContext(ctx, "deleted recipe", "recipe", name)
	}
	return nil
}

// List returns the saved recipes, oldest first.
func (s *Store) List() []ai.Recipe {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Map(s.recipes, func(r ai.Recipe, _ int) ai.Recipe { return r.Clone() })
}

func (s *Store) Get(name string) (ai.Recipe, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(name)
	if i < 0 {
		return ai.Recipe{}, false
	}
	return s.recipes[i].Clone(), true
}

func (s *Store) IsSaved(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(name) >= 0
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.recipes)
}

func (s *Store) indexOf(name string) int {
	_, i, ok := lo.FindIndexOf(s.recipes, func(r ai.Recipe) bool { return r.Name == name })
	if !ok {
		return -1
	}
	return i
}

// commit writes next and only then makes it the in-memory collection, so a
// failed write leaves both sides as they were. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []ai.Recipe) error {
	if next == nil {
		next = []ai.Recipe{}
	}
	data := lo.Must(json.Marshal(next))
	if err := s.cache.Set(ctx, s.key, string(data)); err != nil {
		slog.ErrorContext(ctx, "failed to persist saved recipes", "key", s.key, "error", err)
		return fmt.Errorf("failed to persist saved recipes: %w", err)
	}
	s.recipes = next
	return nil
}
