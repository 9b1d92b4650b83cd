package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/momo-gateway/internal/momo"
	"github.com/example/momo-gateway/internal/orders"
	"github.com/example/momo-gateway/internal/payments"
	"github.com/example/momo-gateway/internal/queue"
)

type queryOnlyGateway struct {
	mu      sync.Mutex
	queried []string
}

func (g *queryOnlyGateway) CreatePayment(context.Context, int64) (*momo.CreateResult, error) {
	panic("status worker never creates payments")
}

func (g *queryOnlyGateway) QueryPaymentStatus(_ context.Context, orderID string) (*momo.QueryResult, error) {
	g.mu.Lock()
	g.queried = append(g.queried, orderID)
	g.mu.Unlock()
	res := &momo.QueryResult{Sent: momo.QueryRequest{OrderID: orderID}}
	res.ResultCode = 0
	res.Message = "Successful."
	return res, nil
}

type capture struct {
	events []queue.Event
}

func (c *capture) PublishEvent(_ context.Context, ev queue.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func newPoller(g payments.Gateway, delay time.Duration, now time.Time) (*poller, *capture) {
	store := orders.NewMemoryStore(time.Hour)
	out := &capture{}
	return &poller{
		svc:   &payments.Service{Gateway: g, Latest: orders.NewLatest(time.Hour), Orders: store, Events: out},
		store: store,
		delay: delay,
		now:   func() time.Time { return now },
	}, out
}

func TestHandle_ChecksCreatedOrderAndRecordsStatus(t *testing.T) {
	g := &queryOnlyGateway{}
	at := time.Now()
	p, out := newPoller(g, time.Second, at.Add(2*time.Second))

	err := p.handle(context.Background(), queue.Event{
		Type: queue.EventPaymentCreated, OrderID: "MOMO1", Amount: 4500,
		PayURL: "https://pay/MOMO1", At: at,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"MOMO1"}, g.queried)
	o, err := p.store.Get(context.Background(), "MOMO1")
	require.NoError(t, err)
	assert.Equal(t, "Successful.", o.Message)
	require.Len(t, out.events, 1)
	assert.Equal(t, queue.EventPaymentChecked, out.events[0].Type)
}

func TestHandle_IgnoresOtherEvents(t *testing.T) {
	g := &queryOnlyGateway{}
	p, _ := newPoller(g, 0, time.Now())

	require.NoError(t, p.handle(context.Background(), queue.Event{Type: queue.EventPaymentChecked, OrderID: "MOMO1"}))
	require.NoError(t, p.handle(context.Background(), queue.Event{Type: queue.EventPaymentCreated, OrderID: "MOMO2", ResultCode: 11}))
	assert.Empty(t, g.queried)
}

func TestHandle_WaitRespectsContext(t *testing.T) {
	g := &queryOnlyGateway{}
	at := time.Now()
	p, _ := newPoller(g, time.Hour, at)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.handle(ctx, queue.Event{Type: queue.EventPaymentCreated, OrderID: "MOMO1", PayURL: "https://pay/x", At: at})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, g.queried)
}
