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

const shopsCacheKey = "shops:all"

type CreateShopRequest struct {
	OwnerUserID  string                     `json:"owner_user_id" validate:"required"`
	Name         string                     `json:"name" validate:"required,max=160"`
	Address      string                     `json:"address" validate:"required,max=300"`
	Phone        string                     `json:"phone" validate:"required,phone"`
	Description  string                     `json:"description" validate:"max=2000"`
	Photos       []string                   `json:"photos" validate:"omitempty,dive,url"`
	WorkingHours map[string]models.DayHours `json:"working_hours"`
	Location     *models.GeoPoint           `json:"location"`
}

type UpdateShopRequest struct {
	Name         string                     `json:"name" validate:"omitempty,max=160"`
	Address      string                     `json:"address" validate:"omitempty,max=300"`
	Phone        string                     `json:"phone" validate:"omitempty,phone"`
	Description  string                     `json:"description" validate:"max=2000"`
	Photos       []string                   `json:"photos" validate:"omitempty,dive,url"`
	WorkingHours map[string]models.DayHours `json:"working_hours"`
	Location     *models.GeoPoint           `json:"location"`
}

func (s *Server) CreateShop(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	var req CreateShopRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("shops create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Address = strings.TrimSpace(req.Address)
	if err := s.Val.Struct(req); err != nil {
		log.Warn("shops create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	shop := models.Barbershop{
		ID:           models.NewID("shop"),
		OwnerUserID:  strings.TrimSpace(req.OwnerUserID),
		Name:         req.Name,
		Address:      req.Address,
		Phone:        strings.TrimSpace(req.Phone),
		Description:  strings.TrimSpace(req.Description),
		Photos:       req.Photos,
		WorkingHours: req.WorkingHours,
		Location:     req.Location,
		CreatedAt:    time.Now().UTC(),
	}
	if shop.Photos == nil {
		shop.Photos = []string{}
	}

	if _, err := s.Cols.Barbershops.InsertOne(ctx, shop); err != nil {
		log.Error("shops create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	_ = s.Cache.Delete(r.Context(), shopsCacheKey)

	log.Info("shops create: ok", slog.String("shop_id", shop.ID))
	transport.WriteJSON(w, http.StatusCreated, shop)
}

func (s *Server) GetShop(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var shop models.Barbershop
	if err := s.Cols.Barbershops.FindOne(ctx, bson.M{"_id": id}).Decode(&shop); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("shops get: not found", slog.String("shop_id", id))
			transport.WriteError(w, http.StatusNotFound, "barbershop not found", nil)
			return
		}
		log.Error("shops get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, shop)
}

func (s *Server) ListShops(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	if cached, ok, err := s.Cache.Get(r.Context(), shopsCacheKey); err == nil && ok {
		log.Info("shops list: cache hit")
		writeCachedJSON(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := s.Cols.Barbershops.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		log.Error("shops list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.Barbershop, 0)
	for cursor.Next(ctx) {
		var shop models.Barbershop
		if err := cursor.Decode(&shop); err != nil {
			log.Error("shops list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, shop)
	}
	if err := cursor.Err(); err != nil {
		log.Error("shops list: cursor error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	response := map[string]interface{}{"barbershops": items}
	if payload, err := encodeJSON(response); err == nil {
		_ = s.Cache.Set(r.Context(), shopsCacheKey, payload, time.Duration(s.Cfg.CacheTTLSeconds)*time.Second)
	}

	log.Info("shops list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, response)
}

func (s *Server) UpdateShop(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	var req UpdateShopRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("shops update: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := s.Val.Struct(req); err != nil {
		log.Warn("shops update: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	set := bson.M{}
	if v := strings.TrimSpace(req.Name); v != "" {
		set["name"] = v
	}
	if v := strings.TrimSpace(req.Address); v != "" {
		set["address"] = v
	}
	if v := strings.TrimSpace(req.Phone); v != "" {
		set["phone"] = v
	}
	if v := strings.TrimSpace(req.Description); v != "" {
		set["description"] = v
	}
	if req.Photos != nil {
		set["photos"] = req.Photos
	}
	if req.WorkingHours != nil {
		set["working_hours"] = req.WorkingHours
	}
	if req.Location != nil {
		set["location"] = req.Location
	}
	if len(set) == 0 {
		transport.WriteError(w, http.StatusBadRequest, "nothing to update", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var shop models.Barbershop
	if err := s.Cols.Barbershops.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&shop); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("shops update: not found", slog.String("shop_id", id))
			transport.WriteError(w, http.StatusNotFound, "barbershop not found", nil)
			return
		}
		log.Error("shops update: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	_ = s.Cache.Delete(r.Context(), shopsCacheKey)

	log.Info("shops update: ok", slog.String("shop_id", id))
	transport.WriteJSON(w, http.StatusOK, shop)
}
