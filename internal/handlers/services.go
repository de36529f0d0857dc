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

	"barbershop-backend/internal/cache"
	"barbershop-backend/internal/httpx"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/transport"
	"barbershop-backend/internal/utils"
)

const servicesCacheKey = "services:all"

type CreateServiceRequest struct {
	ShopID      string  `json:"shop_id" validate:"required"`
	Name        string  `json:"name" validate:"required,max=160"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"required,gt=0"`
	Duration    int     `json:"duration" validate:"required,gt=0"`
	Image       string  `json:"image" validate:"omitempty,url"`
}

func (s *Server) CreateService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	var req CreateServiceRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		log.Warn("services create: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if err := s.Val.Struct(req); err != nil {
		log.Warn("services create: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(s.Val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	service := models.Service{
		ID:          models.NewID("svc"),
		ShopID:      strings.TrimSpace(req.ShopID),
		Name:        req.Name,
		Slug:        utils.Slugify(req.Name),
		Description: strings.TrimSpace(req.Description),
		Price:       req.Price,
		Duration:    req.Duration,
		Image:       req.Image,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.Cols.Services.InsertOne(ctx, service); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Warn("services create: slug taken",
				slog.String("shop_id", service.ShopID),
				slog.String("slug", service.Slug),
			)
			transport.WriteError(w, http.StatusConflict, "a service with this name already exists in the shop", nil)
			return
		}
		log.Error("services create: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	_ = s.Cache.Delete(r.Context(), servicesCacheKey)

	log.Info("services create: ok", slog.String("service_id", service.ID), slog.String("slug", service.Slug))
	transport.WriteJSON(w, http.StatusCreated, service)
}

func (s *Server) GetService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var service models.Service
	if err := s.Cols.Services.FindOne(ctx, bson.M{"_id": id}).Decode(&service); err != nil {
		if err == mongo.ErrNoDocuments {
			log.Warn("services get: not found", slog.String("service_id", id))
			transport.WriteError(w, http.StatusNotFound, "service not found", nil)
			return
		}
		log.Error("services get: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, service)
}

func (s *Server) ListServices(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)

	shopID := strings.TrimSpace(r.URL.Query().Get("shop_id"))
	cacheKey := servicesCacheKey
	if shopID != "" {
		cacheKey = cache.Key("services", "shop", shopID)
	}

	if cached, ok, err := s.Cache.Get(r.Context(), cacheKey); err == nil && ok {
		log.Info("services list: cache hit")
		writeCachedJSON(w, http.StatusOK, cached)
		return
	}

	query := bson.M{}
	if shopID != "" {
		query["shop_id"] = shopID
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	cursor, err := s.Cols.Services.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		log.Error("services list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.Service, 0)
	for cursor.Next(ctx) {
		var service models.Service
		if err := cursor.Decode(&service); err != nil {
			log.Error("services list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, service)
	}
	if err := cursor.Err(); err != nil {
		log.Error("services list: cursor error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	response := map[string]interface{}{"services": items}
	if payload, err := encodeJSON(response); err == nil {
		_ = s.Cache.Set(r.Context(), cacheKey, payload, time.Duration(s.Cfg.CacheTTLSeconds)*time.Second)
	}

	log.Info("services list: ok", slog.Int("count", len(items)))
	transport.WriteJSON(w, http.StatusOK, response)
}

func (s *Server) DeleteService(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing id", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := s.Cols.Services.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		log.Error("services delete: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	if res.DeletedCount == 0 {
		log.Warn("services delete: not found", slog.String("service_id", id))
		transport.WriteError(w, http.StatusNotFound, "service not found", nil)
		return
	}

	_ = s.Cache.Delete(r.Context(), servicesCacheKey)

	log.Info("services delete: ok", slog.String("service_id", id))
	transport.WriteMessage(w, http.StatusOK, "service deleted")
}
