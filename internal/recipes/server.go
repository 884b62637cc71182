package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"ninjachef/internal/ai"
	"ninjachef/internal/saved"

	"golang.org/x/sync/semaphore"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MealTypes are the meal categories offered to users, in display order.
var MealTypes = []string{"Breakfast", "Lunch", "Dinner", "Snack", "Dessert"}

const DefaultMealType = "Dinner"

var (
	ErrBusy            = errors.New("a recipe is already being generated")
	ErrNoIngredients   = errors.New("ingredients are required")
	ErrUnknownMealType = errors.New("unknown meal type")
)

// ParseMealType normalises casing and checks the value is on offer. Blank
// input selects DefaultMealType.
func ParseMealType(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultMealType, nil
	}
	mt := cases.Title(language.English).String(s)
	if !slices.Contains(MealTypes, mt) {
		return "", fmt.Errorf("%w: %q", ErrUnknownMealType, s)
	}
	return mt, nil
}

type generator interface {
	Generate(ctx context.Context, ingredients, mealType, dietaryRestrictions string, difficulty ai.Difficulty) (*ai.Recipe, error)
}

type GenerateRequest struct {
	Ingredients         string `json:"ingredients"`
	MealType            string `json:"mealType"`
	DietaryRestrictions string `json:"dietaryRestrictions"`
	Difficulty          string `json:"difficulty"`
}

// Validate checks the form before anything is sent to the generator and
// returns the parsed meal type and difficulty.
func (g GenerateRequest) Validate() (string, ai.Difficulty, error) {
	if strings.TrimSpace(g.Ingredients) == "" {
		return "", "", ErrNoIngredients
	}
	mealType, err := ParseMealType(g.MealType)
	if err != nil {
		return "", "", err
	}
	difficulty := ai.Beginner
	if strings.TrimSpace(g.Difficulty) != "" {
		if difficulty, err = ai.ParseDifficulty(g.Difficulty); err != nil {
			return "", "", err
		}
	}
	return mealType, difficulty, nil
}

type recipeResponse struct {
	Recipe *ai.Recipe `json:"recipe"`
	Saved  bool       `json:"saved"`
}

type listResponse struct {
	Recipes []ai.Recipe `json:"recipes"`
	Count   int         `json:"count"`
}

type server struct {
	generator generator
	store     *saved.Store
	inflight  *semaphore.Weighted
	wg        sync.WaitGroup
}

// NewHandler serves generation and the saved collection. store must already be loaded.
func NewHandler(g generator, store *saved.Store) *server {
	return &server{
		generator: g,
		store:     store,
		inflight:  semaphore.NewWeighted(1),
	}
}

func (s *server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /recipes", s.handleGenerate)
	mux.HandleFunc("POST /recipes/text", s.handleText)
	mux.HandleFunc("GET /saved", s.handleList)
	mux.HandleFunc("POST /saved", s.handleSave)
	mux.HandleFunc("GET /saved/{name}", s.handleView)
	mux.HandleFunc("GET /saved/{name}/text", s.handleSavedText)
	mux.HandleFunc("POST /saved/{name}/favorite", s.handleFavorite)
	mux.HandleFunc("DELETE /saved/{name}", s.handleDelete)
}

// Wait blocks until generations started by this handler have finished.
func (s *server) Wait() {
	s.wg.Wait()
}

type generated struct {
	recipe *ai.Recipe
	err    error
}

func (s *server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mealType, difficulty, err := req.Validate()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !s.inflight.TryAcquire(1) {
		slog.InfoContext(ctx, "rejecting generation while another is in flight")
		http.Error(w, ErrBusy.Error(), http.StatusConflict)
		return
	}

	// Generation can't be cancelled. If the caller goes away the result is dropped.
	done := make(chan generated, 1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.inflight.Release(1)
		recipe, err := s.generator.Generate(context.WithoutCancel(ctx), req.Ingredients, mealType, req.DietaryRestrictions, difficulty)
		done <- generated{recipe: recipe, err: err}
	}()

	var res generated
	select {
	case res = <-done:
	case <-ctx.Done():
		slog.InfoContext(ctx, "client left before generation finished")
		return
	}

	if res.err != nil {
		http.Error(w, "Sorry, the Recipe Jutsu failed. The scroll could not be summoned. Please check your ingredients and try again.", http.StatusBadGateway)
		return
	}
	writeJSON(ctx, w, http.StatusOK, recipeResponse{Recipe: res.recipe, Saved: s.store.IsSaved(res.recipe.Name)})
}

func (s *server) handleText(w http.ResponseWriter, r *http.Request) {
	var recipe ai.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		http.Error(w, "invalid recipe", http.StatusBadRequest)
		return
	}
	writeText(r.Context(), w, FormatText(recipe))
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, listResponse{Recipes: s.store.List(), Count: s.store.Len()})
}

func (s *server) handleSave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var recipe ai.Recipe
	if err := json.NewDecoder(r.Body).Decode(&recipe); err != nil {
		http.Error(w, "invalid recipe", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(recipe.Name) == "" {
		http.Error(w, "recipeName is required", http.StatusBadRequest)
		return
	}

	added, err := s.store.Save(ctx, recipe)
	if err != nil {
		http.Error(w, "failed to save recipe", http.StatusInternalServerError)
		return
	}
	status := http.StatusOK
	if added {
		status = http.StatusCreated
	}
	stored, _ := s.store.Get(recipe.Name)
	writeJSON(ctx, w, status, recipeResponse{Recipe: &stored, Saved: true})
}

func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.store.Get(r.PathValue("name"))
	if !ok {
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}
	writeJSON(r.Context(), w, http.StatusOK, recipeResponse{Recipe: &recipe, Saved: true})
}

func (s *server) handleSavedText(w http.ResponseWriter, r *http.Request) {
	recipe, ok := s.store.Get(r.PathValue("name"))
	if !ok {
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}
	writeText(r.Context(), w, FormatText(recipe))
}

func (s *server) handleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := r.PathValue("name")
	// only saved recipes can be favorited
	if !s.store.IsSaved(name) {
		http.Error(w, "save the recipe to favorite it", http.StatusNotFound)
		return
	}
	if err := s.store.ToggleFavorite(ctx, name); err != nil {
		http.Error(w, "failed to update recipe", http.StatusInternalServerError)
		return
	}
	recipe, ok := s.store.Get(name)
	if !ok {
		// deleted concurrently
		http.Error(w, "recipe not found", http.StatusNotFound)
		return
	}
	writeJSON(ctx, w, http.StatusOK, recipeResponse{Recipe: &recipe, Saved: true})
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("name")); err != nil {
		http.Error(w, "failed to delete recipe", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}

func writeText(ctx context.Context, w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(text)); err != nil {
		slog.ErrorContext(ctx, "failed to write response", "error", err)
	}
}
