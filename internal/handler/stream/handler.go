package stream

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	sessionService "github.com/zhouzirui/prepzone/backend/internal/service/session"
	"github.com/zhouzirui/prepzone/backend/pkg/utils"
)

// DefaultHeartbeat 是保活注释的默认间隔
const DefaultHeartbeat = 15 * time.Second

// Handler streams session snapshots via Server-Sent Events
type Handler struct {
	sessions  *sessionService.Service
	heartbeat time.Duration
}

// New creates a new stream handler
func New(sessions *sessionService.Service, heartbeat time.Duration) *Handler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	return &Handler{sessions: sessions, heartbeat: heartbeat}
}

// RegisterRoutes 注册事件流路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/sessions/{sessionID}/events", h.handleEvents)
}

// handleEvents 先推送当前快照，之后每次状态变化推送一次；会话删除时发送 closed 事件
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	sess, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	utils.SetupSSEHeaders(w)
	w.WriteHeader(http.StatusOK)

	updates, unsubscribe := sess.Subscribe()
	defer unsubscribe()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	log.Printf("[sse] opening snapshot stream for session=%s", sessionID)

	var seq int
	for {
		select {
		case <-ctx.Done():
			log.Printf("[sse] client left snapshot stream for session=%s", sessionID)
			return
		case snap, ok := <-updates:
			if !ok {
				_ = utils.SendSSEEvent(w, flusher, "", "closed", map[string]string{"sessionId": sessionID})
				log.Printf("[sse] session %s closed, ending stream", sessionID)
				return
			}
			seq++
			if err := utils.SendSSEEvent(w, flusher, strconv.Itoa(seq), "snapshot", snap); err != nil {
				log.Printf("[sse] write failed for session=%s: %v", sessionID, err)
				return
			}
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "heartbeat"); err != nil {
				return
			}
		}
	}
}
