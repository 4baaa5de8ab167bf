package httpapp

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mvaldes/encore/internal/app"
	"github.com/mvaldes/encore/internal/logger"
	"github.com/mvaldes/encore/internal/store"
)

type Handler struct {
	SyncService      *app.SyncService
	RecommendService *app.RecommendService
	SuggestService   *app.SuggestService
	QuizService      *app.QuizService
	SettingsRepo     *store.SettingsRepo
	Logger           *logger.Logger
}

func NewHandler(sync *app.SyncService, rec *app.RecommendService, sug *app.SuggestService, quiz *app.QuizService, settings *store.SettingsRepo, log *logger.Logger) *Handler {
	return &Handler{
		SyncService:      sync,
		RecommendService: rec,
		SuggestService:   sug,
		QuizService:      quiz,
		SettingsRepo:     settings,
		Logger:           log,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)

	r.Post("/api/users/{userID}/sync", h.StartSync)
	r.Get("/api/users/{userID}/sync/status", h.SyncStatus)
	r.Get("/api/users/{userID}/sync/history", h.SyncHistory)
	r.Get("/api/sync/stats", h.SyncStats)
	r.Post("/api/sync/history/clear", h.ClearSyncHistory)

	r.Get("/api/users/{userID}/recommendations", h.Recommendations)
	r.Post("/api/users/{userID}/quiz/confirm", h.QuizConfirm)

	r.Post("/api/suggestions/initial", h.SuggestionsInitial)
	r.Post("/api/suggestions/more", h.SuggestionsMore)
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("Failed to encode response", "error", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, map[string]string{"error": msg})
}

func (h *Handler) respondValidation(w http.ResponseWriter, errs map[string]string) {
	h.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  "validation failed",
		"fields": errs,
	})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
