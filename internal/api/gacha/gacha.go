package gacha

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	dto "gacha_backend/internal/api/dto/gacha"
	"gacha_backend/internal/converter"
	"gacha_backend/internal/middleware"
	"gacha_backend/internal/model"
	"gacha_backend/internal/service"
	"gacha_backend/pkg/req"
	"gacha_backend/pkg/resp"

	"github.com/rs/zerolog"
)

// retryAfterSeconds - подсказка клиенту для повтора с тем же ключом
const retryAfterSeconds = "1"

type HandlerDeps struct {
	Serv service.GachaService
	Log  zerolog.Logger
}

type Handler struct {
	serv service.GachaService
	log  zerolog.Logger
}

func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{serv: deps.Serv, log: deps.Log}
}

// Pull - POST /gacha/pull
func (h *Handler) Pull(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payload, err := req.Decode[dto.PullRequest](r.Body)
	if err != nil {
		resp.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.IdempotencyKey == "" {
		payload.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	}

	result, err := h.serv.Pull(r.Context(), converter.ToPullRequest(userID, payload))
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToPullResponse(*result))
}

// Stats - GET /gacha/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.serv.Stats(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToStatsResponse(stats))
}

// Collection - GET /gacha/collection
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.serv.Collection(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToCollectionResponse(items))
}

// History - GET /gacha/history?limit=N
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		resp.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			resp.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.serv.History(r.Context(), userID, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp.WriteJSONResponse(w, http.StatusOK, converter.ToHistoryResponse(entries))
}

// Health - GET /healthz
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp.WriteJSONResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if model.IsRetryable(err) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}
	switch {
	case errors.Is(err, model.ErrValidation):
		resp.WriteError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrConcurrencyConflict):
		resp.WriteError(w, http.StatusConflict, "another pull is in progress, retry with the same idempotency key")
	case errors.Is(err, model.ErrPersistence):
		h.log.Warn().Err(err).Msg("pull not persisted")
		resp.WriteError(w, http.StatusServiceUnavailable, "pull was not saved, retry with the same idempotency key")
	default:
		h.log.Error().Err(err).Msg("unexpected error")
		resp.WriteError(w, http.StatusInternalServerError, "internal error")
	}
}
