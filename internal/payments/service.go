// momo-gateway/internal/payments/service.go
package payments

import (
	"context"
	"errors"
	"log"

	"github.com/example/momo-gateway/internal/momo"
	"github.com/example/momo-gateway/internal/orders"
	"github.com/example/momo-gateway/internal/queue"
	apperr "github.com/example/momo-gateway/pkg/errors"
)

type Gateway interface {
	CreatePayment(ctx context.Context, amount int64) (*momo.CreateResult, error)
	QueryPaymentStatus(ctx context.Context, orderID string) (*momo.QueryResult, error)
}

type Publisher interface {
	PublishEvent(ctx context.Context, ev queue.Event) error
}

// Service is what the HTTP and gRPC surfaces call. Events may be nil.
type Service struct {
	Gateway Gateway
	Latest  *orders.Latest
	Orders  orders.Store
	Events  Publisher
}

// Pay creates a gateway payment. Once the gateway has answered (even with a rejection)
// the sent orderId becomes the latest order for session and globally.
func (s *Service) Pay(ctx context.Context, session string, amount int64) (*momo.CreateResult, error) {
	if amount <= 0 {
		return nil, apperr.New(apperr.CodeInvalidInput, "amount must be > 0")
	}

	res, err := s.Gateway.CreatePayment(ctx, amount)
	if res == nil {
		return nil, err
	}

	orderID := res.Sent.OrderID
	s.Latest.Set(session, orderID)

	if serr := s.Orders.Save(ctx, orders.Order{
		OrderID:    orderID,
		RequestID:  res.Sent.RequestID,
		Session:    session,
		Amount:     amount,
		PayURL:     res.PayURL,
		ResultCode: res.ResultCode,
		Message:    res.Message,
	}); serr != nil {
		log.Printf("[payments] save order %s: %v", orderID, serr)
	}

	s.publish(ctx, queue.Event{
		Type:       queue.EventPaymentCreated,
		OrderID:    orderID,
		Session:    session,
		Amount:     amount,
		PayURL:     res.PayURL,
		ResultCode: res.ResultCode,
		Message:    res.Message,
	})
	return res, err
}

// Check queries orderID, or the session's latest order when orderID is empty.
func (s *Service) Check(ctx context.Context, session, orderID string) (*momo.QueryResult, error) {
	if orderID == "" {
		orderID = s.Latest.GetFor(session)
	}
	if orderID == "" {
		return nil, apperr.New(apperr.CodeOrderNotFound, "no order has been created yet")
	}

	res, err := s.Gateway.QueryPaymentStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if uerr := s.Orders.UpdateStatus(ctx, orderID, res.ResultCode, res.Message); uerr != nil && !errors.Is(uerr, orders.ErrOrderNotFound) {
		log.Printf("[payments] update order %s: %v", orderID, uerr)
	}

	s.publish(ctx, queue.Event{
		Type:       queue.EventPaymentChecked,
		OrderID:    orderID,
		Session:    session,
		ResultCode: res.ResultCode,
		Message:    res.Message,
	})
	return res, nil
}

func (s *Service) LatestOrder(session string) string {
	return s.Latest.GetFor(session)
}

func (s *Service) Order(ctx context.Context, orderID string) (*orders.Order, error) {
	o, err := s.Orders.Get(ctx, orderID)
	if errors.Is(err, orders.ErrOrderNotFound) {
		return nil, apperr.Wrap(apperr.CodeOrderNotFound, "order "+orderID, err)
	}
	return o, err
}

func (s *Service) publish(ctx context.Context, ev queue.Event) {
	if s.Events == nil {
		return
	}
	if err := s.Events.PublishEvent(ctx, ev); err != nil {
		log.Printf("[payments] %v", err)
	}
}
