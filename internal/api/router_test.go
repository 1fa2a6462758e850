package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"greenerate/internal/api/handlers/health"
	"greenerate/internal/core/preference"
	recipeService "greenerate/internal/core/recipe"
	"greenerate/internal/infrastructure/config"
	"greenerate/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct{}

func (stubSource) Autocomplete(ctx context.Context, query string, number int) ([]common.Suggestion, error) {
	if query == "ch" {
		return []common.Suggestion{{Name: "cheese"}, {Name: "chicken"}}, nil
	}
	return []common.Suggestion{}, nil
}

func (stubSource) FindByIngredients(ctx context.Context, ingredients []string, number int) ([]common.RecipeCandidate, error) {
	return []common.RecipeCandidate{
		{ID: 1, Title: "Chicken Rice Bowl"},
		{ID: 2, Title: "Creamy Chicken and Rice"},
		{ID: 3, Title: "Chicken Fried Rice"},
	}, nil
}

func (stubSource) RecipeInformation(ctx context.Context, id int) (*common.RecipeInformation, error) {
	titles := map[int]string{1: "Chicken Rice Bowl", 2: "Creamy Chicken and Rice", 3: "Chicken Fried Rice"}
	instr := "Cook rice.Add chicken."
	return &common.RecipeInformation{ID: id, Title: titles[id], Instructions: &instr, IngredientLines: []string{"- rice"}}, nil
}

type testEnv struct {
	router *gin.Engine
	store  preference.Store
}

func newTestEnv(t *testing.T, dedupWindow time.Duration, checks map[string]health.Check) *testEnv {
	t.Helper()
	cfg := &config.Config{
		App:         config.AppConfig{Version: "test", Env: "test"},
		Store:       config.StoreConfig{Driver: "memory"},
		DedupWindow: dedupWindow,
	}
	store := preference.NewMemoryStore()
	sessions := recipeService.NewService(stubSource{}, store, recipeService.ServiceOptions{})
	t.Cleanup(sessions.Close)

	router, stop, err := SetupRouter(cfg, Dependencies{
		Sessions:    sessions,
		Preferences: store,
		Checks:      checks,
	})
	require.NoError(t, err)
	t.Cleanup(stop)
	return &testEnv{router: router, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	}
	return w, out
}

func sessionOf(t *testing.T, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	s, ok := body["session"].(map[string]interface{})
	require.True(t, ok, "response has a session: %v", body)
	return s
}

func TestRouter_HealthEndpoints(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, map[string]health.Check{
		"store": func(ctx context.Context) error { return nil },
	})

	w, body := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w, _ = env.do(t, http.MethodGet, "/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestRouter_ReadinessFailure(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, map[string]health.Check{
		"redis": func(ctx context.Context) error { return errors.New("connection refused") },
	})
	w, body := env.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", body["status"])
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["code"])
	assert.Equal(t, "connection refused", body["checks"].(map[string]interface{})["redis"])
}

func TestRouter_UnknownRoute(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, nil)
	w, body := env.do(t, http.MethodGet, "/api/v1/recipes", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestRouter_Allergens(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, nil)
	w, body := env.do(t, http.MethodGet, "/api/v1/allergens", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	cats := body["categories"].([]interface{})
	assert.Len(t, cats, 7)
	assert.Equal(t, "Wheat", cats[0].(map[string]interface{})["name"])
}

func TestRouter_BrowseFlowWithPreferences(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, nil)

	w, _ := env.do(t, http.MethodPost, "/api/v1/users/u1/profile", "u1", map[string]interface{}{
		"email":       "u1@example.com",
		"username":    "u1",
		"preferences": []string{"Dairy"},
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body := env.do(t, http.MethodPost, "/api/v1/sessions", "u1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	sess := sessionOf(t, body)
	id := sess["id"].(string)
	assert.Equal(t, []interface{}{"Dairy"}, sess["disliked"])
	assert.Equal(t, "idle", sess["state"])

	for _, name := range []string{"chicken", "rice"} {
		w, body = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/ingredients", "u1", map[string]string{"name": name})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, body["added"])
	}

	w, body = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/generate", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, body)
	sess = sessionOf(t, body)
	assert.Equal(t, "ready", sess["state"])
	assert.Len(t, sess["candidates"], 2)
	detail := sess["detail"].(map[string]interface{})
	assert.Equal(t, "Chicken Rice Bowl", detail["title"])
	assert.Equal(t, "• Cook rice.\n\n• Add chicken.", detail["instructions"])
	assert.Equal(t, true, sess["has_next"])

	w, body = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/next", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sess = sessionOf(t, body)
	assert.Equal(t, "Chicken Fried Rice", sess["detail"].(map[string]interface{})["title"])
	assert.Equal(t, false, sess["has_next"])

	w, body = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/next", "u1", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "NO_MORE_RECIPES", body["code"])
	assert.Equal(t, float64(1), sessionOf(t, body)["current_index"])

	w, body = env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/clear", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	sess = sessionOf(t, body)
	assert.Equal(t, "idle", sess["state"])
	assert.Empty(t, sess["ingredients"])

	w, _ = env.do(t, http.MethodDelete, "/api/v1/sessions/"+id, "u1", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w, _ = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_GenerateWithoutIngredients(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, nil)
	_, body := env.do(t, http.MethodPost, "/api/v1/sessions", "", nil)
	id := sessionOf(t, body)["id"].(string)

	w, body := env.do(t, http.MethodPost, "/api/v1/sessions/"+id+"/generate", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_INGREDIENTS", body["code"])
	assert.Equal(t, "Please add ingredients first!", body["error"])
	assert.Empty(t, sessionOf(t, body)["error"], "a rejected generate leaves the session untouched")
}

func TestRouter_SessionIsolatedPerUser(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, nil)
	_, body := env.do(t, http.MethodPost, "/api/v1/sessions", "alice", nil)
	id := sessionOf(t, body)["id"].(string)

	w, _ := env.do(t, http.MethodGet, "/api/v1/sessions/"+id, "bob", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/sessions/"+id, "alice", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_Suggestions(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, nil)
	_, body := env.do(t, http.MethodPost, "/api/v1/sessions", "", nil)
	id := sessionOf(t, body)["id"].(string)

	w, body := env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=ch", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["applied"])
	assert.Len(t, body["suggestions"], 2)

	w, body = env.do(t, http.MethodGet, "/api/v1/sessions/"+id+"/suggestions?query=", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["suggestions"])
}

func TestRouter_ProfileAuthorization(t *testing.T) {
	env := newTestEnv(t, time.Nanosecond, nil)

	w, body := env.do(t, http.MethodGet, "/api/v1/users/u1/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	w, _ = env.do(t, http.MethodGet, "/api/v1/users/u1/profile", "u2", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = env.do(t, http.MethodGet, "/api/v1/users/u1/profile", "u1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, body = env.do(t, http.MethodPut, "/api/v1/users/u1/profile", "u1", map[string]string{"username": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code, "settings merge requires an existing profile")

	w, body = env.do(t, http.MethodPost, "/api/v1/users/u1/profile", "u1", map[string]interface{}{"preferences": []string{"Gluten"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_ALLERGEN", body["code"])

	w, _ = env.do(t, http.MethodPost, "/api/v1/users/u1/profile", "u1", map[string]interface{}{"email": "a@b.c", "preferences": []string{"Soy"}})
	require.Equal(t, http.StatusCreated, w.Code)

	w, body = env.do(t, http.MethodPut, "/api/v1/users/u1/profile", "u1", map[string]interface{}{"username": "Ann"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann", body["username"])
	assert.Equal(t, []interface{}{"Soy"}, body["preferences"])
	assert.Equal(t, "a@b.c", body["email"])
}

func TestRouter_BrowsingIsNotDeduplicated(t *testing.T) {
	env := newTestEnv(t, time.Second, nil)

	w, _ := env.do(t, http.MethodPost, "/api/v1/sessions", "u1", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	w, body := env.do(t, http.MethodPost, "/api/v1/sessions", "u1", nil)
	require.Equal(t, http.StatusCreated, w.Code, "a second session for the same user")
	id := sessionOf(t, body)["id"].(string)
	base := "/api/v1/sessions/" + id

	w, _ = env.do(t, http.MethodPost, base+"/ingredients", "u1", map[string]string{"name": "chicken"})
	require.Equal(t, http.StatusOK, w.Code)
	w, body = env.do(t, http.MethodPost, base+"/ingredients", "u1", map[string]string{"name": "chicken"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["added"])

	w, body = env.do(t, http.MethodPost, base+"/generate", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, body)
	assert.Equal(t, true, sessionOf(t, body)["has_next"])

	w, body = env.do(t, http.MethodPost, base+"/next", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, body)
	sess := sessionOf(t, body)
	assert.Equal(t, float64(1), sess["current_index"])
	assert.Equal(t, true, sess["has_next"])

	w, body = env.do(t, http.MethodPost, base+"/next", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code, body)
	sess = sessionOf(t, body)
	assert.Equal(t, "Chicken Fried Rice", sess["detail"].(map[string]interface{})["title"])
	assert.Equal(t, false, sess["has_next"])

	w, _ = env.do(t, http.MethodPost, base+"/clear", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodPost, base+"/ingredients", "u1", map[string]string{"name": "chicken"})
	require.Equal(t, http.StatusOK, w.Code)
	w, body = env.do(t, http.MethodPost, base+"/generate", "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code, body)
}

func TestRouter_DuplicateGenerateRejected(t *testing.T) {
	env := newTestEnv(t, time.Second, nil)
	_, body := env.do(t, http.MethodPost, "/api/v1/sessions", "u1", nil)
	id := sessionOf(t, body)["id"].(string)
	base := "/api/v1/sessions/" + id

	w, _ := env.do(t, http.MethodPost, base+"/ingredients", "u1", map[string]string{"name": "chicken"})
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = env.do(t, http.MethodPost, base+"/generate", "u1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	w, body = env.do(t, http.MethodPost, base+"/generate", "u1", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", body["code"])

	// 食材改變後不再視為重複
	w, _ = env.do(t, http.MethodPost, base+"/ingredients", "u1", map[string]string{"name": "rice"})
	require.Equal(t, http.StatusOK, w.Code)
	w, _ = env.do(t, http.MethodPost, base+"/generate", "u1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
