package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/content"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
	sessionService "github.com/zhouzirui/prepzone/backend/internal/service/session"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	bundle, err := i18n.LoadEmbedded()
	require.NoError(t, err)

	store := progression.Load(context.Background(), progression.NewMemorySlots())
	categories := game.NewMemoryStore(game.Seed())
	sessions, err := sessionService.NewService(sessionService.Dependencies{
		Content:     content.New(nil),
		Progression: store,
		Categories:  categories,
		Languages:   bundle,
		Settings:    sessionService.Settings{DefaultLanguage: "en"},
	})
	require.NoError(t, err)
	t.Cleanup(sessions.Close)

	return NewRouter(Deps{
		Categories:  categories,
		Languages:   bundle,
		Progression: store,
		Sessions:    sessions,
	})
}

func TestRouterServesAPI(t *testing.T) {
	r := newTestRouter(t)

	for _, path := range []string{"/healthz", "/api/languages", "/api/categories", "/api/progression"} {
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, resp.Code, path)
		require.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestRouterWithoutProviderShowsErrorScreen(t *testing.T) {
	r := newTestRouter(t)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, resp.Code)

	var snap sessionService.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Equal(t, sessionService.StateWelcome, snap.State)

	base := "/api/sessions/" + snap.SessionID
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, base+"/start", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	req := httptest.NewRequest(http.MethodPost, base+"/category", jsonBody(`{"category":"roadAccident"}`))
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	require.Equal(t, sessionService.StateError, snap.State)
	require.NotEmpty(t, snap.Error.Message)
}

func jsonBody(s string) *strings.Reader { return strings.NewReader(s) }
