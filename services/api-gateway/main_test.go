package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/momo-gateway/internal/config"
	"github.com/example/momo-gateway/internal/momo"
	"github.com/example/momo-gateway/internal/orders"
	"github.com/example/momo-gateway/internal/payments"
	m "github.com/example/momo-gateway/pkg/metrics"
)

func newTestRouter(t *testing.T) (http.Handler, func()) {
	t.Helper()
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"orderId": body["orderId"], "resultCode": 0, "message": "Successful.",
			"payUrl": "https://test-payment.momo.vn/pay/x",
		})
	}))
	cfg := &config.Config{
		AccessKey: "ak", SecretKey: "sk", Endpoint: gw.URL, PartnerCode: "MOMO",
		Timeout: time.Second,
	}
	svc := &payments.Service{
		Gateway: momo.NewClient(cfg),
		Latest:  orders.NewLatest(time.Hour),
		Orders:  orders.NewMemoryStore(time.Hour),
	}
	return newRouter(svc), gw.Close
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRouter_RoutesAndAliases(t *testing.T) {
	h, done := newTestRouter(t)
	defer done()

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/welcome", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)

	w := do(h, http.MethodPost, "/api/pay", `{"amount":4500}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var paid map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &paid))

	w = do(h, http.MethodGet, "/orderId", "")
	var latest map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &latest))
	assert.Equal(t, paid["orderId"], latest["orderId"])

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/orders/"+paid["orderId"], "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodGet, "/pay", "").Code)
}

func TestMetricsMiddleware_CountsByOutcomeAndRoute(t *testing.T) {
	h, done := newTestRouter(t)
	defer done()

	welcome := m.PaymentRequestsTotal.WithLabelValues(serviceName, "SUCCESS", http.MethodGet, "/welcome")
	badPay := m.PaymentRequestsTotal.WithLabelValues(serviceName, "FAILED", http.MethodPost, "/pay")
	order := m.PaymentRequestsTotal.WithLabelValues(serviceName, "FAILED", http.MethodGet, "/orders/{orderId}")
	okBefore, failBefore, orderBefore := testutil.ToFloat64(welcome), testutil.ToFloat64(badPay), testutil.ToFloat64(order)

	do(h, http.MethodGet, "/welcome", "")
	do(h, http.MethodPost, "/pay", `not json`)
	do(h, http.MethodGet, "/orders/MOMO1", "")
	do(h, http.MethodGet, "/orders/MOMO2", "")

	assert.Equal(t, okBefore+1, testutil.ToFloat64(welcome))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(badPay))
	// one series for every orderId
	assert.Equal(t, orderBefore+2, testutil.ToFloat64(order))

	w := do(h, http.MethodGet, "/metrics", "")
	body, _ := io.ReadAll(w.Body)
	assert.Contains(t, string(body), "payment_requests_total")
	assert.NotContains(t, string(body), `route="/metrics"`)
}

func TestWriteTimeout_CoversRetries(t *testing.T) {
	cfg := &config.Config{Timeout: 10 * time.Second, MaxRetries: 2, RetryMaxDelay: time.Second}
	assert.Equal(t, 30*time.Second+3*time.Second+5*time.Second, writeTimeout(cfg))
}
