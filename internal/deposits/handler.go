package deposits

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"barbershop-backend/internal/httpx"
	"barbershop-backend/internal/metrics"
	"barbershop-backend/internal/middleware"
	"barbershop-backend/internal/transport"
	"barbershop-backend/internal/validation"
)

type Handler struct {
	service *Service
	val     *validation.Validator
	log     *slog.Logger
}

func NewHandler(service *Service, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		service: service,
		val:     val,
		log:     log,
	}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req CreateRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("deposits create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("deposits create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	deposit, err := h.service.Create(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			log.Warn("deposits create: appointment not found", slog.String("appointment_id", req.AppointmentID))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
		case errors.Is(err, ErrAlreadyPaid):
			log.Warn("deposits create: already paid", slog.String("appointment_id", req.AppointmentID))
			transport.WriteError(w, http.StatusConflict, err.Error(), nil)
		default:
			log.Error("deposits create: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("deposits create: ok",
		slog.String("deposit_id", deposit.ID),
		slog.String("appointment_id", deposit.AppointmentID),
		slog.Float64("amount", deposit.Amount),
	)
	transport.WriteJSON(w, http.StatusCreated, deposit)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deposit, err := h.service.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.Warn("deposits get: not found", slog.String("deposit_id", id))
			transport.WriteError(w, http.StatusNotFound, "deposit not found", nil)
			return
		}
		log.Error("deposits get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, deposit)
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req ConfirmRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("deposits confirm: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("deposits confirm: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	deposit, err := h.service.Confirm(ctx, id, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			transport.WriteError(w, http.StatusBadRequest, "validation error", map[string]string{"status": "oneof"})
		case errors.Is(err, ErrNotFound):
			log.Warn("deposits confirm: not found", slog.String("deposit_id", id))
			transport.WriteError(w, http.StatusNotFound, "deposit not found", nil)
		case errors.Is(err, ErrInvalidTransition):
			log.Warn("deposits confirm: invalid transition", slog.String("deposit_id", id), slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusConflict, err.Error(), nil)
		default:
			log.Error("deposits confirm: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	metrics.DepositsConfirmed.WithLabelValues(deposit.Status).Inc()
	log.Info("deposits confirm: ok",
		slog.String("deposit_id", deposit.ID),
		slog.String("status", deposit.Status),
	)
	transport.WriteJSON(w, http.StatusOK, deposit)
}

func (h *Handler) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return h.log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return h.log.With(slog.String("request_id", id))
	}
	return h.log
}
