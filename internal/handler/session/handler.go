package session

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	sessionService "github.com/zhouzirui/prepzone/backend/internal/service/session"
	"github.com/zhouzirui/prepzone/backend/pkg/utils"
)

// Handler 训练会话的HTTP处理器
type Handler struct {
	sessions *sessionService.Service
}

// New 创建会话处理器
func New(sessions *sessionService.Service) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes 注册会话相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Get("/sessions/{sessionID}", h.handleGetSession)
	r.Delete("/sessions/{sessionID}", h.handleDeleteSession)
	r.Post("/sessions/{sessionID}/{action}", h.handleAction)
}

// actionNames 把 URL 中的动作映射为命令
var actionNames = map[string]string{
	"language":     sessionService.CmdLanguage,
	"start":        sessionService.CmdStart,
	"back":         sessionService.CmdBack,
	"timer":        sessionService.CmdTimer,
	"category":     sessionService.CmdCategory,
	"answer":       sessionService.CmdAnswer,
	"next":         sessionService.CmdNext,
	"end":          sessionService.CmdEnd,
	"restart":      sessionService.CmdRestart,
	"new-scenario": sessionService.CmdNewScenario,
	"retry":        sessionService.CmdRetry,
}

type actionPayload struct {
	Language     string `json:"language"`
	Category     string `json:"category"`
	Choice       *int   `json:"choice"`
	TimerSeconds *int   `json:"timerSeconds"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Create(r.Context())
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusCreated, sess.Snapshot())
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, sess.Snapshot())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAction 执行一个玩家动作；拉取题目的动作会阻塞到内容返回
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Get(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return
	}

	cmdType, ok := actionNames[chi.URLParam(r, "action")]
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "unknown action")
		return
	}

	var payload actionPayload
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	snap, err := sess.Apply(r.Context(), sessionService.Command{
		Type:         cmdType,
		Language:     payload.Language,
		Category:     payload.Category,
		Choice:       payload.Choice,
		TimerSeconds: payload.TimerSeconds,
	})
	if err != nil {
		utils.RespondErrorWithSnapshot(w, StatusFor(err), err.Error(), snap)
		return
	}
	utils.RespondJSON(w, http.StatusOK, snap)
}

// StatusFor 把会话错误映射为HTTP状态码
func StatusFor(err error) int {
	switch {
	case errors.Is(err, sessionService.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, sessionService.ErrInvalidChoice),
		errors.Is(err, sessionService.ErrUnknownCategory),
		errors.Is(err, sessionService.ErrUnknownLanguage),
		errors.Is(err, sessionService.ErrInvalidTimer),
		errors.Is(err, sessionService.ErrMissingField),
		errors.Is(err, sessionService.ErrUnknownCommand):
		return http.StatusBadRequest
	case errors.Is(err, sessionService.ErrInvalidTransition),
		errors.Is(err, sessionService.ErrBusy),
		errors.Is(err, sessionService.ErrAlreadyAnswered),
		errors.Is(err, sessionService.ErrNotAnswered),
		errors.Is(err, sessionService.ErrGameEnding),
		errors.Is(err, sessionService.ErrStaleFetch),
		errors.Is(err, sessionService.ErrSessionClosed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
