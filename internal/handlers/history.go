package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"barbershop-backend/internal/httpx"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/transport"
)

type CreateHistoryRequest struct {
	ClientUserID  string            `json:"client_user_id" validate:"required"`
	BarberID      string            `json:"barber_id" validate:"required"`
	AppointmentID string            `json:"appointment_id"`
	Photos        []string          `json:"photos" validate:"omitempty,dive,url"`
	Preferences   map[string]string `json:"preferences"`
	Notes         string            `json:"notes" validate:"max=2000"`
}

func (s *Server) CreateHistoryEntry(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	var req CreateHistoryRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("history create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("history create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	entry := models.ClientHistory{
		ID:            models.NewID("hist"),
		ClientUserID:  strings.TrimSpace(req.ClientUserID),
		BarberID:      strings.TrimSpace(req.BarberID),
		AppointmentID: strings.TrimSpace(req.AppointmentID),
		Photos:        req.Photos,
		Preferences:   req.Preferences,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     time.Now().UTC(),
	}
	if entry.Photos == nil {
		entry.Photos = []string{}
	}

	if _, err := s.Cols.ClientHistory.InsertOne(ctx, entry); err != nil {
		log.Error("history create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("history create: ok", slog.String("history_id", entry.ID), slog.String("client_user_id", entry.ClientUserID))
	transport.WriteJSON(w, http.StatusCreated, entry)
}

func (s *Server) ListClientHistory(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	clientID := strings.TrimSpace(chi.URLParam(r, "clientID"))
	if clientID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing client id", nil)
		return
	}

	limit, err := httpx.ParseLimit(r.URL.Query(), 100, 500)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.Cols.ClientHistory.Find(ctx, bson.M{"client_user_id": clientID}, opts)
	if err != nil {
		log.Error("history list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.ClientHistory, 0)
	for cursor.Next(ctx) {
		var entry models.ClientHistory
		if err := cursor.Decode(&entry); err != nil {
			log.Error("history list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, entry)
	}
	if err := cursor.Err(); err != nil {
		log.Error("history list: cursor error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	log.Info("history list: ok", slog.String("client_user_id", clientID), slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"history": items})
}
