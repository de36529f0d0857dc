package loyalty

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"barbershop-backend/internal/httpx"
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

func (h *Handler) GetRules(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rules, err := h.service.GetRules(ctx)
	if err != nil {
		log.Error("loyalty rules get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, rules)
}

func (h *Handler) UpdateRules(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req UpdateRulesRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("loyalty rules update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("loyalty rules update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rules, err := h.service.UpdateRules(ctx, req)
	if err != nil {
		log.Error("loyalty rules update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("loyalty rules update: ok",
		slog.Int("points_per_appointment", rules.PointsPerCompletedAppointment),
		slog.Int("referral_bonus", rules.ReferralBonus),
		slog.Int("reward_threshold", rules.RewardThreshold),
	)
	transport.WriteJSON(w, http.StatusOK, rules)
}

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing user id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	wallet, err := h.service.GetWallet(ctx, userID)
	if err != nil {
		log.Error("loyalty wallet get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, wallet)
}

func (h *Handler) GetReferralCode(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing user id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	code, err := h.service.ReferralCode(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			log.Warn("loyalty referral code: user not found", slog.String("user_id", userID))
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("loyalty referral code: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]string{
		"user_id":       userID,
		"referral_code": code,
	})
}

func (h *Handler) RegisterReferral(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req RegisterReferralRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("loyalty referral register: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("loyalty referral register: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	message, err := h.service.RegisterReferral(ctx, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			log.Warn("loyalty referral register: user not found", slog.String("user_id", req.UserID))
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, ErrReferralCodeNotFound):
			log.Warn("loyalty referral register: code not found")
			transport.WriteError(w, http.StatusNotFound, "referral code not found", nil)
		default:
			log.Error("loyalty referral register: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("loyalty referral register: ok", slog.String("user_id", req.UserID))
	transport.WriteMessage(w, http.StatusOK, message)
}

func (h *Handler) Earn(w http.ResponseWriter, r *http.Request) {
	log := h.logWithRequest(r)

	var req EarnRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("loyalty earn: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		log.Warn("loyalty earn: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	rules, err := h.service.GetRules(ctx)
	if err != nil {
		log.Error("loyalty earn: rules load error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	wallet, err := h.service.EarnFromAppointment(ctx, rules, req.AppointmentID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAppointmentNotFound):
			log.Warn("loyalty earn: appointment not found", slog.String("appointment_id", req.AppointmentID))
			transport.WriteError(w, http.StatusNotFound, "appointment not found", nil)
		case errors.Is(err, ErrNotCompleted), errors.Is(err, ErrNoClient):
			log.Warn("loyalty earn: rejected",
				slog.String("appointment_id", req.AppointmentID),
				slog.String("reason", err.Error()),
			)
			transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		default:
			log.Error("loyalty earn: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		}
		return
	}

	log.Info("loyalty earn: ok",
		slog.String("appointment_id", req.AppointmentID),
		slog.String("user_id", wallet.UserID),
		slog.Int("points", wallet.Points),
	)
	transport.WriteJSON(w, http.StatusOK, wallet)
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
