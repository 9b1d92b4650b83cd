// momo-gateway/internal/momo/client.go
package momo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/momo-gateway/internal/config"
	apperr "github.com/example/momo-gateway/pkg/errors"
	m "github.com/example/momo-gateway/pkg/metrics"
)

const maxResponseBytes = 1 << 20

// Client talks to the MoMo v2 gateway. Safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessKey   string
	secretKey   string
	partnerCode string
	redirectURL string
	ipnURL      string
	paymentCode string
	retry       RetryPolicy

	now          func() time.Time
	newRequestID func() string

	mu         sync.Mutex
	lastMillis int64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.httpClient = hc } }
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }
func WithRequestIDs(f func() string) Option { return func(c *Client) { c.newRequestID = f } }

func NewClient(cfg *config.Config, opts ...Option) *Client {
	c := &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.Endpoint,
		accessKey:   cfg.AccessKey,
		secretKey:   cfg.SecretKey,
		partnerCode: cfg.PartnerCode,
		redirectURL: cfg.RedirectURL,
		ipnURL:      cfg.IPNURL,
		paymentCode: cfg.PaymentCode,
		retry: RetryPolicy{
			MaxRetries: cfg.MaxRetries,
			BaseDelay:  cfg.RetryBaseDelay,
			MaxDelay:   cfg.RetryMaxDelay,
		},
		now:          time.Now,
		newRequestID: uuid.NewString,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NewOrderID returns partnerCode+unix millis, bumped so ids from this client never repeat.
func (c *Client) NewOrderID() string {
	ms := c.now().UnixMilli()
	c.mu.Lock()
	if ms <= c.lastMillis {
		ms = c.lastMillis + 1
	}
	c.lastMillis = ms
	c.mu.Unlock()
	return c.partnerCode + strconv.FormatInt(ms, 10)
}

// BuildCreateRequest fills and signs a create request for the given order.
func (c *Client) BuildCreateRequest(orderID string, amount int64) CreateRequest {
	req := CreateRequest{
		PartnerCode:  c.partnerCode,
		PartnerName:  PartnerName,
		StoreID:      StoreID,
		RequestID:    orderID,
		Amount:       amount,
		OrderID:      orderID,
		OrderInfo:    OrderInfo,
		RedirectURL:  c.redirectURL,
		IPNURL:       c.ipnURL,
		Lang:         Lang,
		RequestType:  RequestType,
		AutoCapture:  true,
		ExtraData:    "",
		OrderGroupID: "",
		PaymentCode:  c.paymentCode,
	}
	req.Signature = Sign(c.secretKey, CreateCanonical(c.accessKey, req))
	return req
}

func (c *Client) BuildQueryRequest(orderID string) QueryRequest {
	req := QueryRequest{
		PartnerCode: c.partnerCode,
		RequestID:   c.newRequestID(),
		OrderID:     orderID,
		Lang:        Lang,
	}
	req.Signature = Sign(c.secretKey, QueryCanonical(c.accessKey, req))
	return req
}

// CreatePayment asks the gateway to open a payment for amount and returns its reply.
// A non-zero resultCode is returned as a GATEWAY_REJECTED error together with the result.
func (c *Client) CreatePayment(ctx context.Context, amount int64) (*CreateResult, error) {
	req := c.BuildCreateRequest(c.NewOrderID(), amount)
	res := &CreateResult{Sent: req}
	if err := c.post(ctx, "create", CreatePath, req, &res.CreateResponse); err != nil {
		return nil, err
	}
	if res.ResultCode != 0 || res.PayURL == "" {
		return res, apperr.New(apperr.CodeRejected,
			fmt.Sprintf("resultCode %d: %s", res.ResultCode, res.Message))
	}
	return res, nil
}

// QueryPaymentStatus returns the gateway's view of orderID. The resultCode is relayed as-is.
func (c *Client) QueryPaymentStatus(ctx context.Context, orderID string) (*QueryResult, error) {
	req := c.BuildQueryRequest(orderID)
	res := &QueryResult{Sent: req}
	if err := c.post(ctx, "query", QueryPath, req, &res.QueryResponse); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) post(ctx context.Context, op, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return apperr.Wrap(apperr.CodeInvalidInput, "marshal "+op, err)
	}

	// at least one attempt, whatever the policy says
	retries := max(c.retry.MaxRetries, 0)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			delay := c.retry.Backoff(attempt)
			log.Printf("[momo] %s retry %d/%d in %s: %v", op, attempt, retries, delay, lastErr)
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return apperr.Wrap(apperr.CodeTransport, op+" canceled", ctx.Err())
			case <-t.C:
			}
		}
		lastErr = c.do(ctx, op, path, payload, out)
		if lastErr == nil || !retryable(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) do(ctx context.Context, op, path string, payload []byte, out any) error {
	start := time.Now()
	defer func() { m.ObserveGatewayCall(op, time.Since(start).Seconds()) }()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return apperr.Wrap(apperr.CodeTransport, "build "+op+" request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		m.IncGatewayCall(op, "transport_error")
		return apperr.Wrap(apperr.CodeTransport, "POST "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		m.IncGatewayCall(op, "transport_error")
		return apperr.Wrap(apperr.CodeTransport, "read "+op+" response", err)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		m.IncGatewayCall(op, "server_error")
		return apperr.Wrap(apperr.CodeStatus, "POST "+path, statusError{code: resp.StatusCode})
	}

	// 4xx replies still carry resultCode/message in JSON; decode them like a 200.
	if err := json.Unmarshal(data, out); err != nil {
		m.IncGatewayCall(op, "decode_error")
		return apperr.Wrap(apperr.CodeDecode, fmt.Sprintf("decode %s response (HTTP %d)", op, resp.StatusCode), err)
	}
	m.IncGatewayCall(op, "ok")
	return nil
}

type statusError struct{ code int }

func (e statusError) Error() string { return "unexpected status " + strconv.Itoa(e.code) }
