package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"barbershop-backend/internal/appointments"
	"barbershop-backend/internal/cache"
	"barbershop-backend/internal/deposits"
	"barbershop-backend/internal/transport"
)

type DashboardStats struct {
	ShopID                string `json:"shop_id,omitempty"`
	TotalUsers            int64  `json:"total_users"`
	TotalBarbershops      int64  `json:"total_barbershops"`
	TotalBarbers          int64  `json:"total_barbers"`
	TotalAppointments     int64  `json:"total_appointments"`
	TodayAppointments     int64  `json:"today_appointments"`
	ScheduledAppointments int64  `json:"scheduled_appointments"`
	CompletedAppointments int64  `json:"completed_appointments"`
	PendingDeposits       int64  `json:"pending_deposits"`
	TotalScans            int64  `json:"total_scans"`
}

// GetDashboard aggregates counters, either platform-wide or scoped to one
// shop via ?shop_id=. Days are UTC days, matching stored scheduled times.
func (s *Server) GetDashboard(w http.ResponseWriter, r *http.Request) {
	log := s.logWithRequest(r)
	shopID := strings.TrimSpace(r.URL.Query().Get("shop_id"))

	cacheKey := "dashboard:stats"
	if shopID != "" {
		cacheKey = cache.Key("dashboard", "stats", shopID)
	}
	if cached, ok, err := s.Cache.Get(r.Context(), cacheKey); err == nil && ok {
		log.Info("dashboard: cache hit")
		writeCachedJSON(w, http.StatusOK, cached)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	appointmentScope := func(extra bson.M) bson.M {
		query := bson.M{}
		if shopID != "" {
			query["shop_id"] = shopID
		}
		for k, v := range extra {
			query[k] = v
		}
		return query
	}
	barberScope := bson.M{}
	if shopID != "" {
		barberScope["shop_id"] = shopID
	}

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	dayEnd := dayStart.Add(24 * time.Hour)

	stats := DashboardStats{ShopID: shopID}
	counts := []struct {
		dest  *int64
		count func() (int64, error)
	}{
		{&stats.TotalUsers, func() (int64, error) { return s.Cols.Users.CountDocuments(ctx, bson.D{}) }},
		{&stats.TotalBarbershops, func() (int64, error) { return s.Cols.Barbershops.CountDocuments(ctx, bson.D{}) }},
		{&stats.TotalBarbers, func() (int64, error) { return s.Cols.Barbers.CountDocuments(ctx, barberScope) }},
		{&stats.TotalAppointments, func() (int64, error) {
			return s.Cols.Appointments.CountDocuments(ctx, appointmentScope(nil))
		}},
		{&stats.TodayAppointments, func() (int64, error) {
			return s.Cols.Appointments.CountDocuments(ctx, appointmentScope(bson.M{
				"scheduled_time": bson.M{"$gte": dayStart, "$lt": dayEnd},
			}))
		}},
		{&stats.ScheduledAppointments, func() (int64, error) {
			return s.Cols.Appointments.CountDocuments(ctx, appointmentScope(bson.M{"status": appointments.StatusScheduled}))
		}},
		{&stats.CompletedAppointments, func() (int64, error) {
			return s.Cols.Appointments.CountDocuments(ctx, appointmentScope(bson.M{"status": appointments.StatusCompleted}))
		}},
		{&stats.PendingDeposits, func() (int64, error) {
			return s.Cols.Deposits.CountDocuments(ctx, bson.M{"status": deposits.StatusPending})
		}},
		{&stats.TotalScans, func() (int64, error) { return s.Cols.AIScans.CountDocuments(ctx, bson.D{}) }},
	}
	for _, c := range counts {
		n, err := c.count()
		if err != nil {
			log.Error("dashboard: database error", slog.String("error", err.Error()))
			transport.WriteError(w, http.StatusInternalServerError, "database error", nil)
			return
		}
		*c.dest = n
	}

	if payload, err := encodeJSON(stats); err == nil {
		_ = s.Cache.Set(r.Context(), cacheKey, payload, time.Duration(s.Cfg.CacheTTLSeconds)*time.Second)
	}

	log.Info("dashboard: ok", slog.Int64("users", stats.TotalUsers), slog.Int64("appointments", stats.TotalAppointments))
	transport.WriteJSON(w, http.StatusOK, stats)
}
