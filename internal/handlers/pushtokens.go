package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"barbershop-backend/internal/httpx"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/transport"
)

type RegisterPushTokenRequest struct {
	UserID     string            `json:"user_id" validate:"required"`
	Token      string            `json:"token" validate:"required"`
	Platform   string            `json:"platform" validate:"required,oneof=ios android web"`
	DeviceInfo map[string]string `json:"device_info"`
}

// RegisterPushToken is idempotent per (user, token): re-registering the same
// device is a success, enforced by the unique index rather than a pre-read.
func (s *Server) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	var req RegisterPushTokenRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("push tokens register: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("push tokens register: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	token := models.PushToken{
		ID:         models.NewID("ptok"),
		UserID:     strings.TrimSpace(req.UserID),
		Token:      strings.TrimSpace(req.Token),
		Platform:   req.Platform,
		DeviceInfo: req.DeviceInfo,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.Cols.PushTokens.InsertOne(ctx, token); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Info("push tokens register: already registered", slog.String("user_id", token.UserID))
			transport.WriteMessage(w, http.StatusOK, "token already registered")
			return
		}
		log.Error("push tokens register: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("push tokens register: ok",
		slog.String("user_id", token.UserID),
		slog.String("platform", token.Platform),
	)
	transport.WriteJSON(w, http.StatusCreated, token)
}

func (s *Server) ListPushTokens(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing user id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.Cols.PushTokens.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		log.Error("push tokens list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.PushToken, 0)
	for cursor.Next(ctx) {
		var token models.PushToken
		if err := cursor.Decode(&token); err != nil {
			log.Error("push tokens list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, token)
	}
	if err := cursor.Err(); err != nil {
		log.Error("push tokens list: cursor error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"tokens": items})
}
