package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
	sessionService "github.com/zhouzirui/prepzone/backend/internal/service/session"
)

type stubContent struct{}

func (stubContent) InitialQuestion(context.Context, i18n.Translator, game.Category) (game.Question, error) {
	return game.Question{
		Question:           "Water is rising around your car. What now?",
		Choices:            []string{"Drive through", "Leave the car for high ground"},
		CorrectChoiceIndex: 1,
		Feedback:           []string{"Moving water floats cars.", "High ground first."},
	}, nil
}

func (c stubContent) NextQuestion(ctx context.Context, t i18n.Translator, cat game.Category, _ game.Question, _ int) (game.Question, error) {
	return c.InitialQuestion(ctx, t, cat)
}

func (stubContent) Summary(context.Context, i18n.Translator, game.Category, []game.HistoryItem) string {
	return "summary"
}

// slowContent takes longer to produce the first question than the read timeout.
type slowContent struct {
	stubContent
	delay time.Duration
}

func (c slowContent) InitialQuestion(ctx context.Context, t i18n.Translator, cat game.Category) (game.Question, error) {
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return game.Question{}, ctx.Err()
	}
	return c.stubContent.InitialQuestion(ctx, t, cat)
}

type received struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func setup(t *testing.T) (*sessionService.Service, *httptest.Server) {
	t.Helper()
	return setupWith(t, stubContent{}, nil)
}

func setupWith(t *testing.T, content sessionService.Content, configure func(*Handler)) (*sessionService.Service, *httptest.Server) {
	t.Helper()
	bundle, err := i18n.LoadEmbedded()
	require.NoError(t, err)

	svc, err := sessionService.NewService(sessionService.Dependencies{
		Content:     content,
		Progression: progression.Load(context.Background(), progression.NewMemorySlots()),
		Categories:  game.NewMemoryStore(game.Seed()),
		Languages:   bundle,
		Settings:    sessionService.Settings{DefaultLanguage: "en", TickInterval: time.Hour},
	})
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	r := chi.NewRouter()
	h := New(svc)
	if configure != nil {
		configure(h)
	}
	h.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return svc, server
}

func dial(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

// nextOfType reads until a message of the given type arrives.
func nextOfType(t *testing.T, conn *websocket.Conn, kind string) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		if msg.Type == kind {
			return msg
		}
	}
}

func snapshotState(t *testing.T, msg received) sessionService.State {
	t.Helper()
	var snap sessionService.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	return snap.State
}

func TestWebSocketCommandsProduceSnapshots(t *testing.T) {
	svc, server := setup(t)
	sess, err := svc.Create(context.Background())
	require.NoError(t, err)

	conn := dial(t, server, sess.ID())
	require.Equal(t, sessionService.StateWelcome, snapshotState(t, nextOfType(t, conn, "snapshot")))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start"}))
	require.Equal(t, sessionService.StateCategorySelection, snapshotState(t, nextOfType(t, conn, "snapshot")))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "category", "data": map[string]string{"category": "floodResponse"}}))
	require.Eventually(t, func() bool {
		return sess.Snapshot().State == sessionService.StateGame
	}, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocketSurvivesSlowQuestionGeneration(t *testing.T) {
	svc, server := setupWith(t, slowContent{delay: 500 * time.Millisecond}, func(h *Handler) {
		h.readTimeout = 200 * time.Millisecond
		h.pingPeriod = 50 * time.Millisecond
	})
	sess, err := svc.Create(context.Background())
	require.NoError(t, err)

	conn := dial(t, server, sess.ID())
	nextOfType(t, conn, "snapshot")
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "category", "data": map[string]string{"category": "floodResponse"}}))

	// Reading answers the server pings while the question is generated.
	for {
		if snapshotState(t, nextOfType(t, conn, "snapshot")) == sessionService.StateGame {
			break
		}
	}

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "answer", "data": map[string]int{"choice": 1}}))
	for {
		msg := nextOfType(t, conn, "snapshot")
		var snap sessionService.Snapshot
		require.NoError(t, json.Unmarshal(msg.Data, &snap))
		if snap.Game != nil && snap.Game.Feedback != nil {
			require.True(t, snap.Game.Feedback.Correct)
			return
		}
	}
}

func TestWebSocketReportsCommandErrors(t *testing.T) {
	svc, server := setup(t)
	sess, err := svc.Create(context.Background())
	require.NoError(t, err)

	conn := dial(t, server, sess.ID())
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "answer", "data": map[string]int{"choice": 0}}))

	msg := nextOfType(t, conn, "error")
	var body map[string]string
	require.NoError(t, json.Unmarshal(msg.Data, &body))
	require.Equal(t, "answer", body["command"])
	require.Contains(t, body["message"], "not allowed")
}

func TestWebSocketClosesWithSession(t *testing.T) {
	svc, server := setup(t)
	sess, err := svc.Create(context.Background())
	require.NoError(t, err)

	conn := dial(t, server, sess.ID())
	nextOfType(t, conn, "snapshot")

	require.NoError(t, svc.Delete(context.Background(), sess.ID()))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			require.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err.Error())
			return
		}
	}
}

func TestWebSocketUnknownSession(t *testing.T) {
	_, server := setup(t)
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Equal(t, 404, resp.StatusCode)
}
