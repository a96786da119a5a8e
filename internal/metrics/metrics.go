package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the referral pipeline.
type Metrics struct {
	registry *prometheus.Registry

	ReferralsCreated *prometheus.CounterVec
	ReferralsClosed  *prometheus.CounterVec
	ReferralViews    prometheus.Counter
	CodeCollisions   prometheus.Counter
	EmailsSent       *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		ReferralsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refrr_referrals_created_total",
				Help: "Referrals created, by creation path.",
			},
			[]string{"source"}, // explicit, link
		),
		ReferralsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refrr_referrals_closed_total",
				Help: "Referrals moved to a terminal status.",
			},
			[]string{"status"}, // approved, rejected, completed, expired
		),
		ReferralViews: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "refrr_referral_views_total",
				Help: "Public referral page views.",
			},
		),
		CodeCollisions: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "refrr_code_collisions_total",
				Help: "Referral code collisions detected on insert.",
			},
		),
		EmailsSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refrr_emails_sent_total",
				Help: "Outbound notification emails, by outcome.",
			},
			[]string{"status"}, // sent, failed
		),
	}
}

// Handler serves the metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
