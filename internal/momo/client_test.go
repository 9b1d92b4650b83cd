package momo

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/momo-gateway/internal/config"
	apperr "github.com/example/momo-gateway/pkg/errors"
)

func testConfig(endpoint string) *config.Config {
	return &config.Config{
		AccessKey:      testAccessKey,
		SecretKey:      testSecretKey,
		Endpoint:       endpoint,
		PartnerCode:    "MOMO",
		RedirectURL:    "https://example.com/return",
		IPNURL:         "https://example.com/ipn",
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.UnixMilli(1700000000000) }
}

func TestCreatePayment_SendsSignedBody(t *testing.T) {
	got := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, CreatePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		b, _ := io.ReadAll(r.Body)
		got <- b
		_, _ = w.Write([]byte(`{"orderId":"MOMO1700000000000","resultCode":0,"message":"Successful.","payUrl":"https://pay.example/abc"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), WithClock(fixedClock()))
	res, err := c.CreatePayment(context.Background(), 4500)
	require.NoError(t, err)
	raw := <-got

	assert.Equal(t, "https://pay.example/abc", res.PayURL)
	assert.Equal(t, "MOMO1700000000000", res.Sent.OrderID)
	assert.Contains(t, string(raw), `"amount":4500`)

	var sent CreateRequest
	require.NoError(t, json.Unmarshal(raw, &sent))
	assert.Equal(t, sent.OrderID, sent.RequestID)
	assert.Equal(t, PartnerName, sent.PartnerName)
	assert.Equal(t, StoreID, sent.StoreID)
	assert.Equal(t, Lang, sent.Lang)
	assert.True(t, sent.AutoCapture)
	assert.True(t, Verify(testSecretKey, CreateCanonical(testAccessKey, sent), sent.Signature))
	assert.Equal(t, "4900f2285ce4dcd818805276e3a16b10aa1053c79ac0265ce31c414dce65f090", sent.Signature)
}

func TestCreatePayment_RejectedReturnsResultAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"resultCode":11,"message":"Access denied."}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	res, err := c.CreatePayment(context.Background(), 4500)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeRejected, apperr.CodeOf(err))
	require.NotNil(t, res)
	assert.Equal(t, 11, res.ResultCode)
	assert.NotEmpty(t, res.Sent.OrderID)
}

func TestCreatePayment_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"resultCode":0,"payUrl":"https://pay.example/ok"}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	res, err := c.CreatePayment(context.Background(), 1000)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/ok", res.PayURL)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCreatePayment_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.CreatePayment(context.Background(), 1000)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeStatus, apperr.CodeOf(err))
	assert.Equal(t, int32(3), calls.Load())
}

func TestNegativeMaxRetries_StillCallsGatewayOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.URL.Path == QueryPath {
			_, _ = w.Write([]byte(`{"resultCode":1000,"message":"Pending."}`))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = -1
	c := NewClient(cfg)

	res, err := c.CreatePayment(context.Background(), 1000)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, apperr.CodeStatus, apperr.CodeOf(err))
	assert.Equal(t, int32(1), calls.Load())

	q, err := c.QueryPaymentStatus(context.Background(), "MOMO1")
	require.NoError(t, err)
	assert.Equal(t, 1000, q.ResultCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCreatePayment_NonJSONIsDecodeErrorWithoutRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	_, err := c.CreatePayment(context.Background(), 1000)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeDecode, apperr.CodeOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreatePayment_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(testConfig(url))
	_, err := c.CreatePayment(context.Background(), 1000)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTransport, apperr.CodeOf(err))
}

func TestCreatePayment_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 0
	c := NewClient(cfg, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := c.CreatePayment(context.Background(), 1000)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTransport, apperr.CodeOf(err))
}

func TestCreatePayment_CanceledContextStopsRetrying(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.MaxRetries = 5
	cfg.RetryBaseDelay = time.Hour
	cfg.RetryMaxDelay = time.Hour
	c := NewClient(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.CreatePayment(ctx, 1000)
	require.Error(t, err)
	assert.Equal(t, apperr.CodeTransport, apperr.CodeOf(err))
	assert.Equal(t, int32(1), calls.Load())
}

func TestQueryPaymentStatus_SendsSignedQuery(t *testing.T) {
	got := make(chan QueryRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, QueryPath, r.URL.Path)
		var q QueryRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		got <- q
		_, _ = w.Write([]byte(`{"orderId":"MOMO1","resultCode":1006,"message":"Transaction denied by user."}`))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL), WithRequestIDs(func() string { return "req-1" }))
	res, err := c.QueryPaymentStatus(context.Background(), "MOMO1700000000000")
	require.NoError(t, err)
	sent := <-got

	assert.Equal(t, 1006, res.ResultCode)
	assert.Equal(t, "MOMO1700000000000", sent.OrderID)
	assert.Equal(t, "req-1", sent.RequestID)
	assert.Equal(t, "5ff0a5fc7567a6aac43bbecb99b46f5d1e9b447f454e2143ceee0e814ebfc168", sent.Signature)
}

func TestNewOrderID_PrefixAndMonotonic(t *testing.T) {
	c := NewClient(testConfig("http://unused"), WithClock(fixedClock()))

	a, b := c.NewOrderID(), c.NewOrderID()
	assert.Equal(t, "MOMO1700000000000", a)
	assert.Equal(t, "MOMO1700000000001", b)
	assert.True(t, strings.HasPrefix(b, "MOMO"))
}

func TestBackoff(t *testing.T) {
	p := RetryPolicy{BaseDelay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}
	assert.Equal(t, time.Duration(0), p.Backoff(0))
	assert.Equal(t, 100*time.Millisecond, p.Backoff(1))
	assert.Equal(t, 200*time.Millisecond, p.Backoff(2))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(3))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(64))
}
