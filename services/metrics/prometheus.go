package metricsvc

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Pensezy/EduTrack-CM-sub003/core"
)

// Prometheus records the domain and HTTP metrics of the app in its own registry.
type Prometheus struct {
	registry *prometheus.Registry

	PeopleResolved       *prometheus.CounterVec
	LinksCreated         *prometheus.CounterVec
	OnboardingsCompleted *prometheus.CounterVec
	RequestDuration      *prometheus.HistogramVec
}

var _ core.Metrics = (*Prometheus)(nil)

func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		PeopleResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_people_resolved_total",
			Help: "Identities resolved by get-or-create, by outcome (matched or created)",
		}, []string{"outcome"}),
		LinksCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_links_created_total",
			Help: "Relationship links created, by link type",
		}, []string{"type"}),
		OnboardingsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "edutrack_onboardings_completed_total",
			Help: "Onboarding sessions completed, by outcome (existing or created)",
		}, []string{"outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "edutrack_http_request_duration_seconds",
			Help:    "Duration of HTTP requests, by method, route and status code",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "code"}),
	}
}

func (m *Prometheus) PersonResolved(created bool) {
	outcome := "matched"
	if created {
		outcome = "created"
	}
	m.PeopleResolved.WithLabelValues(outcome).Inc()
}

func (m *Prometheus) LinkCreated(linkType string) {
	m.LinksCreated.WithLabelValues(linkType).Inc()
}

func (m *Prometheus) OnboardingFinished(outcome string) {
	m.OnboardingsCompleted.WithLabelValues(outcome).Inc()
}

// ObserveRequest records the duration of an HTTP request.
// Call with time.Now() at the start of the request.
func (m *Prometheus) ObserveRequest(method, route string, code int, start time.Time) {
	m.RequestDuration.WithLabelValues(method, route, strconv.Itoa(code)).Observe(time.Since(start).Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
