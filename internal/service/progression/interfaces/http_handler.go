package interfaces

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"inkverse/internal/pkg/httpx"
	"inkverse/internal/service/progression/application"
)

const serviceName = "progression-service"

// ProgressionHandler 封装了 progression 服务的 HTTP 处理器
type ProgressionHandler struct {
	service *application.ProgressionApplicationService
}

func NewProgressionHandler(service *application.ProgressionApplicationService) *ProgressionHandler {
	return &ProgressionHandler{service: service}
}

// RegisterRoutes 在路由上注册所有接口
func (h *ProgressionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(httpx.Tracing(serviceName))
		r.Route("/profiles/{userID}", func(r chi.Router) {
			r.Get("/", h.getProfile)
			r.Post("/reading", h.readPages)
			r.Post("/recharge", h.recharge)
			r.Get("/daily-reward", h.dailyStatus)
			r.Post("/daily-reward/claim", h.claimDailyReward)
			r.Post("/comics/{comicID}/chapters/{chapterID}/unlock", h.unlockChapter)
			r.Put("/level-system", h.setLevelSystem)
		})
	})
}

func (h *ProgressionHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.GetProfile(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *ProgressionHandler) readPages(w http.ResponseWriter, r *http.Request) {
	var req application.GrantExpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.ReadPages(r.Context(), chi.URLParam(r, "userID"), req.Amount)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ProgressionHandler) recharge(w http.ResponseWriter, r *http.Request) {
	var req application.GrantExpRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	resp, err := h.service.Recharge(r.Context(), chi.URLParam(r, "userID"), req.Amount)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ProgressionHandler) dailyStatus(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.DailyStatus(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ProgressionHandler) claimDailyReward(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.ClaimDailyReward(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ProgressionHandler) unlockChapter(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.UnlockChapter(r.Context(),
		chi.URLParam(r, "userID"),
		chi.URLParam(r, "comicID"),
		chi.URLParam(r, "chapterID"),
	)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *ProgressionHandler) setLevelSystem(w http.ResponseWriter, r *http.Request) {
	var req application.SetLevelSystemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	view, err := h.service.SetLevelSystem(r.Context(), chi.URLParam(r, "userID"), req.LevelSystem)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}
