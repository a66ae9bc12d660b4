package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result constants for metric labels.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// Recorder is what the services and middleware report into.
type Recorder interface {
	// AuthAttempt counts a login/register/oauth outcome. result is ResultSuccess
	// or the failure reason.
	AuthAttempt(flow, result string)
	// GuardDecision counts route guard outcomes by decision and final state.
	GuardDecision(decision, state string)
	// HTTPRequest observes a served request; route is the matched mux pattern.
	HTTPRequest(method, route string, status int, d time.Duration)
	// Like counts like toggles.
	Like(liked bool)
}

// Prometheus implements Recorder with client_golang collectors.
type Prometheus struct {
	authAttempts   *prometheus.CounterVec
	guardDecisions *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	likes          *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		authAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leco",
			Name:      "auth_attempts_total",
			Help:      "Authentication flow outcomes by flow and result.",
		}, []string{"flow", "result"}),
		guardDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leco",
			Name:      "route_guard_decisions_total",
			Help:      "Route guard evaluations by authorization decision and resulting state.",
		}, []string{"decision", "state"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leco",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leco",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		likes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leco",
			Name:      "property_like_toggles_total",
			Help:      "Like toggles on listings.",
		}, []string{"action"}),
	}
	if reg != nil {
		reg.MustRegister(p.authAttempts, p.guardDecisions, p.httpRequests, p.httpDuration, p.likes)
	}
	return p
}

func (p *Prometheus) AuthAttempt(flow, result string) {
	p.authAttempts.WithLabelValues(flow, result).Inc()
}

func (p *Prometheus) GuardDecision(decision, state string) {
	p.guardDecisions.WithLabelValues(decision, state).Inc()
}

func (p *Prometheus) HTTPRequest(method, route string, status int, d time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (p *Prometheus) Like(liked bool) {
	action := "unlike"
	if liked {
		action = "like"
	}
	p.likes.WithLabelValues(action).Inc()
}

type noop struct{}

func (noop) AuthAttempt(string, string)                     {}
func (noop) GuardDecision(string, string)                   {}
func (noop) HTTPRequest(string, string, int, time.Duration) {}
func (noop) Like(bool)                                      {}

// Noop returns a Recorder that discards everything.
func Noop() Recorder { return noop{} }

// OrNoop returns r, or a no-op recorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return noop{}
	}
	return r
}
