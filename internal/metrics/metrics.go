package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RemindersFired = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbershop_reminders_fired_total",
		Help: "Reminder notifications dispatched, by window.",
	}, []string{"window"})

	PointsAccrued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbershop_loyalty_points_accrued_total",
		Help: "Loyalty points credited, by entry type.",
	}, []string{"type"})

	DepositsConfirmed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbershop_deposits_confirmed_total",
		Help: "Deposit confirmations, by resulting status.",
	}, []string{"status"})

	AIScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "barbershop_ai_scans_total",
		Help: "AI scan requests, by outcome.",
	}, []string{"outcome"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
