package recipes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"ninjachef/internal/ai"
	"ninjachef/internal/cache"
	"ninjachef/internal/saved"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type generateCall struct {
	ingredients, mealType, diet string
	difficulty                  ai.Difficulty
}

type stubGenerator struct {
	mu      sync.Mutex
	recipe  *ai.Recipe
	err     error
	calls   []generateCall
	started chan struct{}
	release chan struct{}
	ctxErr  error
}

func (g *stubGenerator) Generate(ctx context.Context, ingredients, mealType, diet string, difficulty ai.Difficulty) (*ai.Recipe, error) {
	g.mu.Lock()
	g.calls = append(g.calls, generateCall{ingredients, mealType, diet, difficulty})
	g.mu.Unlock()
	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	g.ctxErr = ctx.Err()
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	r := g.recipe.Clone()
	return &r, nil
}

func testRecipe(name string) *ai.Recipe {
	return &ai.Recipe{
		Name:         name,
		Description:  "A swirling bowl of spirit",
		PrepTime:     "15 minutes",
		CookTime:     "30 minutes",
		Servings:     "2 servings",
		Ingredients:  []ai.Ingredient{{Name: "pork belly", Amount: "300 g"}},
		Instructions: []string{"Sear the pork.", "Eat."},
	}
}

func newTestServer(t *testing.T, g generator) (*server, *http.ServeMux) {
	t.Helper()
	store := saved.New(cache.NewInMemoryCache(), saved.DefaultKey)
	store.Load(context.Background())
	s := NewHandler(g, store)
	mux := http.NewServeMux()
	s.Register(mux)
	return s, mux
}

func do(mux http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v))
	return v
}

func TestGenerateHandler(t *testing.T) {
	g := &stubGenerator{recipe: testRecipe("Rasengan Ramen")}
	_, mux := newTestServer(t, g)

	rr := do(mux, http.MethodPost, "/recipes", `{"ingredients":"pork belly, noodles","mealType":"dinner","dietaryRestrictions":"","difficulty":"advanced"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	resp := decode[recipeResponse](t, rr)
	require.NotNil(t, resp.Recipe)
	assert.Equal(t, "Rasengan Ramen", resp.Recipe.Name)
	assert.False(t, resp.Saved)
	require.Len(t, g.calls, 1)
	assert.Equal(t, generateCall{"pork belly, noodles", "Dinner", "", ai.Advanced}, g.calls[0])

	body, err := json.Marshal(resp.Recipe)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, do(mux, http.MethodPost, "/saved", string(body)).Code)

	rr = do(mux, http.MethodPost, "/recipes", `{"ingredients":"pork belly"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[recipeResponse](t, rr).Saved)
	assert.Equal(t, generateCall{"pork belly", "Dinner", "", ai.Beginner}, g.calls[1])
}

func TestGenerateHandlerRejectsBadInput(t *testing.T) {
	tests := map[string]string{
		"blank ingredients": `{"ingredients":"   ","mealType":"Dinner"}`,
		"unknown meal":      `{"ingredients":"rice","mealType":"Brunch"}`,
		"unknown rank":      `{"ingredients":"rice","difficulty":"Hokage"}`,
		"bad json":          `{"ingredients":`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			g := &stubGenerator{recipe: testRecipe("x")}
			_, mux := newTestServer(t, g)

			rr := do(mux, http.MethodPost, "/recipes", body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Empty(t, g.calls)
		})
	}
}

func TestGenerateHandlerFailure(t *testing.T) {
	g := &stubGenerator{err: &ai.GenerationError{Err: errors.New("bad json")}}
	_, mux := newTestServer(t, g)

	rr := do(mux, http.MethodPost, "/recipes", `{"ingredients":"rice"}`)
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "Recipe Jutsu failed")
	assert.NotContains(t, rr.Body.String(), "bad json")
}

func TestGenerateHandlerOneInFlight(t *testing.T) {
	g := &stubGenerator{recipe: testRecipe("x"), started: make(chan struct{}, 1), release: make(chan struct{})}
	s, mux := newTestServer(t, g)

	first := make(chan *httptest.ResponseRecorder)
	go func() { first <- do(mux, http.MethodPost, "/recipes", `{"ingredients":"rice"}`) }()
	<-g.started

	rr := do(mux, http.MethodPost, "/recipes", `{"ingredients":"beans"}`)
	assert.Equal(t, http.StatusConflict, rr.Code)

	close(g.release)
	assert.Equal(t, http.StatusOK, (<-first).Code)
	s.Wait()

	assert.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/recipes", `{"ingredients":"beans"}`).Code)
}

func TestGenerateHandlerClientGone(t *testing.T) {
	g := &stubGenerator{recipe: testRecipe("x"), started: make(chan struct{}, 1), release: make(chan struct{})}
	s, mux := newTestServer(t, g)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodPost, "/recipes", strings.NewReader(`{"ingredients":"rice"}`)).WithContext(ctx)
	rr := httptest.NewRecorder()
	handled := make(chan struct{})
	go func() {
		mux.ServeHTTP(rr, req)
		close(handled)
	}()
	<-g.started
	cancel()
	<-handled

	close(g.release)
	s.Wait()
	assert.NoError(t, g.ctxErr, "generation must run to completion")
	assert.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/recipes", `{"ingredients":"rice"}`).Code)
}

func TestSavedEndpoints(t *testing.T) {
	_, mux := newTestServer(t, &stubGenerator{})
	body, err := json.Marshal(testRecipe("Rasengan Ramen"))
	require.NoError(t, err)
	path := "/saved/" + url.PathEscape("Rasengan Ramen")

	rr := do(mux, http.MethodPost, "/saved", string(body))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.False(t, decode[recipeResponse](t, rr).Recipe.IsFavorite)
	assert.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/saved", string(body)).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/saved", `{"description":"nameless"}`).Code)

	list := decode[listResponse](t, do(mux, http.MethodGet, "/saved", ""))
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Recipes, 1)

	rr = do(mux, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Rasengan Ramen", decode[recipeResponse](t, rr).Recipe.Name)

	rr = do(mux, http.MethodGet, path+"/text", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "Recipe: Rasengan Ramen\n"))
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/plain")

	rr = do(mux, http.MethodPost, path+"/favorite", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[recipeResponse](t, rr).Recipe.IsFavorite)
	rr = do(mux, http.MethodPost, path+"/favorite", "")
	assert.False(t, decode[recipeResponse](t, rr).Recipe.IsFavorite)

	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodPost, "/saved/Unknown/favorite", "").Code)

	assert.Equal(t, http.StatusNoContent, do(mux, http.MethodDelete, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, path, "").Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodGet, path+"/text", "").Code)
	assert.Equal(t, http.StatusNoContent, do(mux, http.MethodDelete, path, "").Code)
	assert.Equal(t, 0, decode[listResponse](t, do(mux, http.MethodGet, "/saved", "")).Count)
}

func TestTextEndpointForUnsavedRecipe(t *testing.T) {
	_, mux := newTestServer(t, &stubGenerator{})
	body, err := json.Marshal(testRecipe("Chidori Curry"))
	require.NoError(t, err)

	rr := do(mux, http.MethodPost, "/recipes/text", string(body))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, FormatText(*testRecipe("Chidori Curry")), rr.Body.String())
}

func TestParseMealType(t *testing.T) {
	for in, want := range map[string]string{"": "Dinner", "breakfast": "Breakfast", " DESSERT ": "Dessert", "Snack": "Snack"} {
		got, err := ParseMealType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseMealType("second breakfast")
	assert.ErrorIs(t, err, ErrUnknownMealType)
}
