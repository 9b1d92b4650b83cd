// momo-gateway/pkg/metrics/metrics.go
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// label "service" supaya 1 query bisa bandingkan façade http vs grpc
	PaymentRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "payment",
			Name:      "requests_total",
			Help:      "Total request masuk per service",
		},
		[]string{"service", "status", "method", "route"},
	)

	PaymentRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "payment",
			Name:      "request_duration_seconds",
			Help:      "Durasi proses request per service",
			Buckets: []float64{
				0.01, 0.02, 0.03, 0.05, 0.08, 0.12,
				0.2, 0.3, 0.5, 0.8, 1.2, 2, 3, 5,
			},
		},
		[]string{"service", "route", "status"},
	)

	// panggilan keluar ke gateway MoMo (per attempt, termasuk retry)
	GatewayCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "momo",
			Name:      "gateway_calls_total",
			Help:      "Total panggilan HTTP ke gateway MoMo",
		},
		[]string{"operation", "outcome"},
	)

	GatewayCallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "momo",
			Name:      "gateway_call_duration_seconds",
			Help:      "Durasi panggilan ke gateway MoMo",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	EventsPublishedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "momo",
			Name:      "events_published_total",
			Help:      "Event pembayaran yang dikirim ke Kafka",
		},
		[]string{"type", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		PaymentRequestsTotal, PaymentRequestDuration,
		GatewayCallsTotal, GatewayCallDuration,
		EventsPublishedTotal,
	)
}

// Helper biar rapi dipanggil dari handler
func IncRequest(service, status, method, route string) {
	PaymentRequestsTotal.WithLabelValues(service, status, method, route).Inc()
}
func ObserveDuration(service, route, status string, seconds float64) {
	PaymentRequestDuration.WithLabelValues(service, route, status).Observe(seconds)
}

func IncGatewayCall(operation, outcome string) {
	GatewayCallsTotal.WithLabelValues(operation, outcome).Inc()
}
func ObserveGatewayCall(operation string, seconds float64) {
	GatewayCallDuration.WithLabelValues(operation).Observe(seconds)
}

func IncEvent(eventType, status string) {
	EventsPublishedTotal.WithLabelValues(eventType, status).Inc()
}
