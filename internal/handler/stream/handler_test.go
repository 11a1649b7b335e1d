package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
	sessionService "github.com/zhouzirui/prepzone/backend/internal/service/session"
)

type noContent struct{}

func (noContent) InitialQuestion(context.Context, i18n.Translator, game.Category) (game.Question, error) {
	return game.Question{}, context.Canceled
}

func (noContent) NextQuestion(context.Context, i18n.Translator, game.Category, game.Question, int) (game.Question, error) {
	return game.Question{}, context.Canceled
}

func (noContent) Summary(context.Context, i18n.Translator, game.Category, []game.HistoryItem) string {
	return ""
}

func newService(t *testing.T) *sessionService.Service {
	t.Helper()
	bundle, err := i18n.LoadEmbedded()
	require.NoError(t, err)

	svc, err := sessionService.NewService(sessionService.Dependencies{
		Content:     noContent{},
		Progression: progression.Load(context.Background(), progression.NewMemorySlots()),
		Categories:  game.NewMemoryStore(game.Seed()),
		Languages:   bundle,
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

// readEvent returns the event name and data of the next SSE frame, skipping comments.
func readEvent(t *testing.T, reader *bufio.Reader) (string, string) {
	t.Helper()
	var event, data string
	for {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			if event != "" {
				return event, data
			}
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStreamSnapshotsUntilDelete(t *testing.T) {
	svc := newService(t)
	r := chi.NewRouter()
	New(svc, time.Hour).RegisterRoutes(r)
	server := httptest.NewServer(r)
	defer server.Close()

	ctx := context.Background()
	sess, err := svc.Create(ctx)
	require.NoError(t, err)

	resp, err := http.Get(server.URL + "/sessions/" + sess.ID() + "/events")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, data := readEvent(t, reader)
	require.Equal(t, "snapshot", event)

	var snap sessionService.Snapshot
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	require.Equal(t, sessionService.StateLanguageSelection, snap.State)

	_, err = sess.SelectLanguage("en")
	require.NoError(t, err)

	event, data = readEvent(t, reader)
	require.Equal(t, "snapshot", event)
	require.NoError(t, json.Unmarshal([]byte(data), &snap))
	require.Equal(t, sessionService.StateWelcome, snap.State)

	require.NoError(t, svc.Delete(ctx, sess.ID()))
	event, _ = readEvent(t, reader)
	require.Equal(t, "closed", event)
}

func TestEventsUnknownSession(t *testing.T) {
	r := chi.NewRouter()
	New(newService(t), 0).RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/sessions/nope/events", nil))
	require.Equal(t, http.StatusNotFound, resp.Code)
}
