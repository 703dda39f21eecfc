package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hackathon"

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

// Recorder groups the portal's collectors. A nil *Recorder records nothing.
type Recorder struct {
	requestTotal   *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	registrations  *prometheus.CounterVec
	verifications  *prometheus.CounterVec
	notifications  *prometheus.CounterVec
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_requests_total",
			Help:      "Count of processed HTTP requests",
		}, []string{"method", "route", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "http_request_duration_seconds",
			Help:      "Latency distribution of HTTP handlers",
			Buckets:   histogramBuckets,
		}, []string{"method", "route", "status"}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Team registration attempts by outcome",
		}, []string{"result"}),
		verifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_verifications_total",
			Help:      "OTP verification attempts by outcome",
		}, []string{"result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Outbound emails by kind and outcome",
		}, []string{"kind", "result"}),
	}

	reg.MustRegister(r.requestTotal, r.requestLatency, r.registrations, r.verifications, r.notifications)
	return r
}

func (r *Recorder) ObserveRequest(method, route string, status int, d time.Duration) {
	if r == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"route":  route,
		"status": strconv.Itoa(status),
	}
	r.requestTotal.With(labels).Inc()
	r.requestLatency.With(labels).Observe(d.Seconds())
}

func (r *Recorder) Registration(result string) {
	if r == nil {
		return
	}
	r.registrations.WithLabelValues(result).Inc()
}

func (r *Recorder) Verification(result string) {
	if r == nil {
		return
	}
	r.verifications.WithLabelValues(result).Inc()
}

func (r *Recorder) Notification(kind string, err error) {
	if r == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	r.notifications.WithLabelValues(kind, result).Inc()
}
