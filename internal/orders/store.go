// momo-gateway/internal/orders/store.go
package orders

import (
	"context"
	"errors"
	"log"
	"time"
)

var ErrOrderNotFound = errors.New("order not found")

type Order struct {
	OrderID    string    `json:"orderId"`
	RequestID  string    `json:"requestId"`
	Session    string    `json:"session,omitempty"`
	Amount     int64     `json:"amount"`
	PayURL     string    `json:"payUrl,omitempty"`
	ResultCode int       `json:"resultCode"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type Store interface {
	Save(ctx context.Context, o Order) error
	UpdateStatus(ctx context.Context, orderID string, resultCode int, message string) error
	Get(ctx context.Context, orderID string) (*Order, error)
}

const (
	// MemoryTTL is how long in-process orders and session slots live untouched.
	MemoryTTL  = 24 * time.Hour
	SweepEvery = 10 * time.Minute
)

// Open returns a Postgres store when dsn is set, otherwise a swept MemoryStore.
// The returned func releases the store.
func Open(ctx context.Context, dsn string) (Store, func(), error) {
	if dsn != "" {
		pg, err := OpenPostgres(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Printf("[orders] stored in postgres")
		return pg, pg.Close, nil
	}
	mem := NewMemoryStore(MemoryTTL)
	mem.StartSweeper(ctx, SweepEvery)
	return mem, func() {}, nil
}
