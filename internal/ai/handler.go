package ai

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"barbershop-backend/internal/httpx"
	"barbershop-backend/internal/metrics"
	"barbershop-backend/internal/models"
	"barbershop-backend/internal/transport"
	"barbershop-backend/internal/validation"
)

type ScanRequest struct {
	UserID string `json:"user_id"`
	Image  string `json:"image" validate:"required"`
}

type EditRequest struct {
	Image        string `json:"image" validate:"required"`
	Instructions string `json:"instructions" validate:"required,max=2000"`
}

// ScanResponse is always returned with HTTP 200: when the external capability
// is down, Success is false and Recommendations carries generic fallbacks so
// the client flow never breaks.
type ScanResponse struct {
	Success          bool     `json:"success"`
	FaceShape        string   `json:"face_shape,omitempty"`
	Recommendations  []string `json:"recommendations"`
	DetailedAnalysis string   `json:"detailed_analysis,omitempty"`
	Error            string   `json:"error,omitempty"`
}

// fallbackRecommendations keeps the scan flow usable when the analysis
// backend is down.
func fallbackRecommendations() []string {
	return []string{
		"Corte clasico degradado - Favorece a la mayoria de los rostros",
		"Corte texturizado medio - Versatil y facil de mantener",
		"Consulta con tu barbero para una recomendacion personalizada",
	}
}

type Handler struct {
	client *Client
	scans  *mongo.Collection
	val    *validation.Validator
	log    *slog.Logger
}

func NewHandler(client *Client, scans *mongo.Collection, val *validation.Validator, log *slog.Logger) *Handler {
	return &Handler{
		client: client,
		scans:  scans,
		val:    val,
		log:    log,
	}
}

func (h *Handler) Scan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		h.log.Warn("ai scan: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		h.log.Warn("ai scan: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
	defer cancel()

	result, err := h.client.Analyze(ctx, req.Image)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			h.log.Warn("ai scan: unavailable", slog.String("error", err.Error()))
			metrics.AIScans.WithLabelValues("unavailable").Inc()
			transport.WriteJSON(w, http.StatusOK, ScanResponse{
				Success:         false,
				Recommendations: fallbackRecommendations(),
				Error:           "analysis temporarily unavailable",
			})
			return
		}
		h.log.Error("ai scan: failed", slog.String("error", err.Error()))
		metrics.AIScans.WithLabelValues("error").Inc()
		transport.WriteError(w, http.StatusInternalServerError, "analysis failed", nil)
		return
	}

	if userID := strings.TrimSpace(req.UserID); userID != "" {
		scan := models.AIScan{
			ID:               models.NewID("scan"),
			UserID:           userID,
			FaceShape:        result.FaceShape,
			Recommendations:  result.Recommendations,
			DetailedAnalysis: result.DetailedAnalysis,
			CreatedAt:        time.Now().UTC(),
		}
		if _, err := h.scans.InsertOne(ctx, scan); err != nil {
			// The analysis already succeeded; losing the record is not worth
			// failing the request over.
			h.log.Warn("ai scan: persist failed", slog.String("error", err.Error()))
		}
	}

	h.log.Info("ai scan: ok", slog.String("face_shape", result.FaceShape))
	metrics.AIScans.WithLabelValues("ok").Inc()
	transport.WriteJSON(w, http.StatusOK, ScanResponse{
		Success:          true,
		FaceShape:        result.FaceShape,
		Recommendations:  result.Recommendations,
		DetailedAnalysis: result.DetailedAnalysis,
	})
}

func (h *Handler) ListScans(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(chi.URLParam(r, "userID"))
	if userID == "" {
		transport.WriteError(w, http.StatusBadRequest, "missing user id", nil)
		return
	}

	limit, err := httpx.ParseLimit(r.URL.Query(), 20, 100)
	if err != nil {
		transport.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)
	cursor, err := h.scans.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		h.log.Error("ai scans list: database error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
		return
	}
	defer cursor.Close(ctx)

	items := make([]models.AIScan, 0)
	for cursor.Next(ctx) {
		var scan models.AIScan
		if err := cursor.Decode(&scan); err != nil {
			h.log.Error("ai scans list: decode error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "decode error", nil)
			return
		}
		items = append(items, scan)
	}
	if err := cursor.Err(); err != nil {
		h.log.Error("ai scans list: cursor error", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "cursor error", nil)
		return
	}

	transport.WriteJSON(w, http.StatusOK, map[string]interface{}{"scans": items})
}

func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := httpx.DecodeJSON(r.Body, &req); err != nil {
		h.log.Warn("ai edit: invalid json")
		transport.WriteError(w, http.StatusBadRequest, "invalid json", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		h.log.Warn("ai edit: validation error")
		transport.WriteError(w, http.StatusBadRequest, "validation error", httpx.ValidationDetails(h.val.ValidationErrors(err)))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 35*time.Second)
	defer cancel()

	edited, err := h.client.Edit(ctx, req.Image, req.Instructions)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			h.log.Warn("ai edit: unavailable", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusServiceUnavailable, "editing temporarily unavailable", nil)
			return
		}
		h.log.Error("ai edit: failed", slog.String("error", err.Error()))
		transport.WriteError(w, http.StatusInternalServerError, "edit failed", nil)
		return
	}

	h.log.Info("ai edit: ok")
	transport.WriteJSON(w, http.StatusOK, map[string]string{"image": edited})
}
