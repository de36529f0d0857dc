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

type CreateBarberRequest struct {
	ShopID       string              `json:"shop_id" validate:"required"`
	UserID       string              `json:"user_id" validate:"required"`
	Bio          string              `json:"bio" validate:"max=2000"`
	Specialties  []string            `json:"specialties"`
	Portfolio    []string            `json:"portfolio" validate:"omitempty,dive,url"`
	Availability map[string][]string `json:"availability"`
}

type UpdateBarberRequest struct {
	Bio          string              `json:"bio" validate:"max=2000"`
	Specialties  []string            `json:"specialties"`
	Portfolio    []string            `json:"portfolio" validate:"omitempty,dive,url"`
	Availability map[string][]string `json:"availability"`
	Status       string              `json:"status" validate:"omitempty,oneof=available busy unavailable"`
}

type UpdateBarberStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available busy unavailable"`
}

func (s *Server) CreateBarber(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	var req CreateBarberRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("barbers create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("barbers create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	shopID := strings.TrimSpace(req.ShopID)
	if err := s.Cols.Barbershops.FindOne(ctx, bson.M{"_id": shopID}).Err(); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("barbers create: shop not found", slog.String("shop_id", shopID))
			transport.WriteError(w, http.StatusNotFound, "barbershop not found", nil)
			return
		}
		log.Error("barbers create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	barber := models.Barber{
		ID:           models.NewID("barber"),
		ShopID:       shopID,
		UserID:       strings.TrimSpace(req.UserID),
		Bio:          strings.TrimSpace(req.Bio),
		Specialties:  req.Specialties,
		Portfolio:    req.Portfolio,
		Availability: req.Availability,
		Status:       models.BarberStatusAvailable,
		CreatedAt:    time.Now().UTC(),
	}
	if barber.Specialties == nil {
		barber.Specialties = []string{}
	}
	if barber.Portfolio == nil {
		barber.Portfolio = []string{}
	}

	if _, err := s.Cols.Barbers.InsertOne(ctx, barber); err != nil {
		log.Error("barbers create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("barbers create: ok", slog.String("barber_id", barber.ID), slog.String("shop_id", barber.ShopID))
	transport.WriteJSON(w, http.StatusCreated, barber)
}

func (s *Server) GetBarber(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var barber models.Barber
	if err := s.Cols.Barbers.FindOne(ctx, bson.M{"_id": id}).Decode(&barber); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("barbers get: not found", slog.String("barber_id", id))
			transport.WriteError(w, http.StatusNotFound, "barber not found", nil)
			return
		}
		log.Error("barbers get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, barber)
}

func (s *Server) ListBarbers(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	limit, err := httpx.ParseLimit(r.URL.Query(), 100, 500)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	query := bson.M{}
	if shopID := strings.TrimSpace(r.URL.Query().Get("shop_id")); shopID != "" {
		query["shop_id"] = shopID
	}
	if status := strings.TrimSpace(r.URL.Query().Get("status")); status != "" {
		query["status"] = status
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "rating", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.Cols.Barbers.Find(ctx, query, opts)
	if err != nil {
		log.Error("barbers list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.Barber, 0)
	for cursor.Next(ctx) {
		var barber models.Barber
		if err := cursor.Decode(&barber); err != nil {
			log.Error("barbers list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, barber)
	}
	if err := cursor.Err(); err != nil {
		log.Error("barbers list: cursor error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	log.Info("barbers list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"barbers": items})
}

func (s *Server) UpdateBarber(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateBarberRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("barbers update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("barbers update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	set := bson.M{}
	if v := strings.TrimSpace(req.Bio); v != "" {
		set["bio"] = v
	}
	if req.Specialties != nil {
		set["specialties"] = req.Specialties
	}
	if req.Portfolio != nil {
		set["portfolio"] = req.Portfolio
	}
	if req.Availability != nil {
		set["availability"] = req.Availability
	}
	if req.Status != "" {
		set["status"] = req.Status
	}
	if len(set) == 0 {
		transport.WriteError(w, http.StatusBadRequest, "nothing to update", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var barber models.Barber
	if err := s.Cols.Barbers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&barber); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("barbers update: not found", slog.String("barber_id", id))
			transport.WriteError(w, http.StatusNotFound, "barber not found", nil)
			return
		}
		log.Error("barbers update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("barbers update: ok", slog.String("barber_id", id))
	transport.WriteJSON(w, http.StatusOK, barber)
}

func (s *Server) UpdateBarberStatus(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateBarberStatusRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("barbers status: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("barbers status: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var barber models.Barber
	if err := s.Cols.Barbers.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": req.Status}}, opts).Decode(&barber); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("barbers status: not found", slog.String("barber_id", id))
			transport.WriteError(w, http.StatusNotFound, "barber not found", nil)
			return
		}
		log.Error("barbers status: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	log.Info("barbers status: ok", slog.String("barber_id", id), slog.String("status", barber.Status))
	transport.WriteJSON(w, http.StatusOK, barber)
}
