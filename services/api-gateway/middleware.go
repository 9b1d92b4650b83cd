// services/api-gateway/middleware.go
package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	m "github.com/example/momo-gateway/pkg/metrics"
)

/*************** Metrics middleware ***************/
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// routeLabel keeps /orders/{orderId} as one series instead of one per order.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "unmatched"
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := routeLabel(r)
		if route == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		outcome := "FAILED"
		switch {
		case rec.status == http.StatusBadGateway:
			// gateway answered but refused the payment
			outcome = "REJECTED"
		case rec.status >= 200 && rec.status < 400:
			outcome = "SUCCESS"
		}
		m.IncRequest(serviceName, outcome, r.Method, route)
		m.ObserveDuration(serviceName, route, outcome, time.Since(start).Seconds())
	})
}
