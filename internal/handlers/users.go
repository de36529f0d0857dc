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

type CreateUserRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Name    string `json:"name" validate:"required,max=120"`
	Picture string `json:"picture" validate:"omitempty,url"`
	Role    string `json:"role" validate:"omitempty,oneof=client barber admin"`
	Phone   string `json:"phone" validate:"omitempty,phone"`
}

func (s *Server) CreateUser(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	var req CreateUserRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("users create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = models.UserRoleClient
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("users create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Same email resolves to the same account, matching social-login flows
	// where user creation is retried on every sign-in.
	var existing models.User
	err := s.Cols.Users.FindOne(ctx, bson.M{"email": req.Email}).Decode(&existing)
	if err == nil {
		log.Info("users create: existing account", slog.String("user_id", existing.ID))
		transport.WriteJSON(w, http.StatusOK, existing)
		return
	}
	if err != mongo.ErrNoDocuments {
		log.Error("users create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	user := models.User{
		ID:        models.NewID("user"),
		Email:     req.Email,
		Name:      req.Name,
		Picture:   req.Picture,
		Role:      req.Role,
		Phone:     strings.TrimSpace(req.Phone),
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.Cols.Users.InsertOne(ctx, user); err != nil {
		log.Error("users create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("users create: ok", slog.String("user_id", user.ID), slog.String("role", user.Role))
	transport.WriteJSON(w, http.StatusCreated, user)
}

func (s *Server) GetUser(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var user models.User
	if err := s.Cols.Users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("users get: not found", slog.String("user_id", id))
			transport.WriteError(w, http.StatusNotFound, "user not found", nil)
			return
		}
		log.Error("users get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, user)
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, err := httpx.ParseLimit(r.URL.Query(), 100, 500)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	query := bson.M{}
	if role := strings.TrimSpace(r.URL.Query().Get("role")); role != "" {
		query["role"] = role
	}
	if email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email"))); email != "" {
		query["email"] = email
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.Cols.Users.Find(ctx, query, opts)
	if err != nil {
		log.Error("users list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.User, 0)
	for cursor.Next(ctx) {
		var user models.User
		if err := cursor.Decode(&user); err != nil {
			log.Error("users list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, user)
	}
	if err := cursor.Err(); err != nil {
		log.Error("users list: cursor error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	log.Info("users list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"users": items})
}
