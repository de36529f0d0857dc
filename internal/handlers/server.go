package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"barbershop-backend/internal/cache"
	"barbershop-backend/internal/config"
	"barbershop-backend/internal/db"
	"barbershop-backend/internal/middleware"
	"barbershop-backend/internal/validation"
)

type Server struct {
	Cfg   *config.Config
	Cols  *db.Collections
	Val   *validation.Validator
	Log   *slog.Logger
	Cache cache.Cache
}

func (s *Server) logWithRequest(r *http.Request) *slog.Logger {
	if r == nil {
		return s.Log
	}
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return s.Log.With(slog.String("request_id", id))
	}
	return s.Log
}

func writeCachedJSON(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(payload)
}

func encodeJSON(payload interface{}) ([]byte, error) {
	return json.Marshal(payload)
}
