package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/prepzone/backend/internal/i18n"
	"github.com/zhouzirui/prepzone/backend/internal/model/game"
	"github.com/zhouzirui/prepzone/backend/internal/service/progression"
	"github.com/zhouzirui/prepzone/backend/internal/service/session"
	"github.com/zhouzirui/prepzone/backend/pkg/utils"
)

// Handler 提供语言、分类和进度等只读数据
type Handler struct {
	categories  game.Store
	languages   *i18n.Bundle
	progression *progression.Store
	timer       *int
}

// New 创建只读数据处理器
func New(categories game.Store, languages *i18n.Bundle, progression *progression.Store, defaultTimer *int) *Handler {
	return &Handler{
		categories:  categories,
		languages:   languages,
		progression: progression,
		timer:       defaultTimer,
	}
}

// RegisterRoutes 注册只读路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/languages", h.handleListLanguages)
	r.Get("/categories", h.handleListCategories)
	r.Get("/progression", h.handleProgression)
}

type languagesResponse struct {
	Languages    []i18n.Language `json:"languages"`
	TimerOptions []int           `json:"timerOptions"`
	DefaultTimer *int            `json:"defaultTimer"`
}

func (h *Handler) handleListLanguages(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, languagesResponse{
		Languages:    i18n.SupportedLanguages(),
		TimerOptions: session.TimerOptions,
		DefaultTimer: h.timer,
	})
}

type categoryView struct {
	Key   string `json:"key"`
	Icon  string `json:"icon"`
	Title string `json:"title"`
}

// handleListCategories 按 ?lang= 翻译分类标题，未知语言回退到英文
func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	code := i18n.BaseLanguage
	if raw := r.URL.Query().Get("lang"); raw != "" {
		if matched, ok := h.languages.Match(raw); ok {
			code = matched
		}
	}
	t := h.languages.Translator(code)

	items := h.categories.List()
	out := make([]categoryView, 0, len(items))
	for _, c := range items {
		out = append(out, categoryView{Key: c.Key, Icon: c.Icon, Title: t.Translate(c.TitleKey())})
	}
	utils.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) handleProgression(w http.ResponseWriter, r *http.Request) {
	p := h.progression.Current()
	utils.RespondJSON(w, http.StatusOK, map[string]int{
		"level":         p.Level,
		"currentXp":     p.CurrentXP,
		"xpToNextLevel": p.XPToNextLevel(),
	})
}
