package httpapp

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mvaldes/encore/internal/domain"
	"github.com/mvaldes/encore/internal/http/dto"
	"github.com/mvaldes/encore/internal/store"
	"github.com/mvaldes/encore/internal/sync"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if version, err := h.SettingsRepo.Get(store.SettingCatalogVersion); err == nil && version != "" {
		body["catalog_version"] = version
	}
	h.respondJSON(w, http.StatusOK, body)
}

func (h *Handler) StartSync(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	job, err := h.SyncService.StartSync(userID)
	if err != nil {
		if errors.Is(err, sync.ErrSyncAlreadyRunning) {
			h.respondError(w, http.StatusConflict, err.Error())
			return
		}
		h.Logger.Error("Failed to start sync", "user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to start sync")
		return
	}

	h.respondJSON(w, http.StatusAccepted, dto.NewSyncJobResponse(job))
}

func (h *Handler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	job, err := h.SyncService.GetStatus(userID)
	if err != nil {
		h.Logger.Error("Failed to load sync status", "user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load sync status")
		return
	}
	if job == nil {
		h.respondError(w, http.StatusNotFound, "no sync job found for user")
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewSyncJobResponse(job))
}

func (h *Handler) SyncHistory(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	jobs, err := h.SyncService.History(userID)
	if err != nil {
		h.Logger.Error("Failed to load sync history", "user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load sync history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs": dto.NewSyncJobResponses(jobs),
	})
}

func (h *Handler) SyncStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.SyncService.Stats()
	if err != nil {
		h.Logger.Error("Failed to load sync stats", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to load sync stats")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]int{
		"total":     stats.Total,
		"completed": stats.Completed,
		"failed":    stats.Failed,
	})
}

func (h *Handler) ClearSyncHistory(w http.ResponseWriter, r *http.Request) {
	if err := h.SyncService.ClearHistory(); err != nil {
		h.Logger.Error("Failed to clear sync history", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to clear sync history")
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	filters, errs := dto.ParseRecommendFilters(r.URL.Query())
	if len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	buckets, err := h.RecommendService.Recommendations(userID, filters)
	if err != nil {
		h.Logger.Error("Failed to build recommendations", "user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to build recommendations")
		return
	}

	h.respondJSON(w, http.StatusOK, buckets)
}

func (h *Handler) QuizConfirm(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var conf domain.QuizConfirmation
	if !h.decodeJSON(w, r, &conf) {
		return
	}
	if errs := dto.ValidateQuizConfirmation(conf); len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	result, err := h.QuizService.Confirm(userID, conf)
	if err != nil {
		h.Logger.Error("Failed to confirm quiz", "user_id", userID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to save quiz results")
		return
	}

	h.respondJSON(w, http.StatusOK, result)
}

func (h *Handler) SuggestionsInitial(w http.ResponseWriter, r *http.Request) {
	var req dto.SuggestionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	sctx := req.Context()
	if errs := dto.ValidateSuggestionContext(sctx); len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	batch, err := h.SuggestService.Initial(r.Context(), sctx)
	if err != nil {
		h.Logger.Error("Failed to build suggestions", "user_id", sctx.UserID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to build suggestions")
		return
	}

	h.respondJSON(w, http.StatusOK, batch)
}

func (h *Handler) SuggestionsMore(w http.ResponseWriter, r *http.Request) {
	var req dto.SuggestionRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}
	sctx := req.Context()
	if errs := dto.ValidateSuggestionContext(sctx); len(errs) > 0 {
		h.respondValidation(w, dto.ToMap(errs))
		return
	}

	batch, err := h.SuggestService.More(r.Context(), sctx, req.AlreadyShown)
	if err != nil {
		h.Logger.Error("Failed to load more suggestions", "user_id", sctx.UserID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to build suggestions")
		return
	}

	h.respondJSON(w, http.StatusOK, batch)
}
