// momo-gateway/internal/orders/postgres.go
package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `CREATE TABLE IF NOT EXISTS momo_orders (
	order_id    TEXT PRIMARY KEY,
	request_id  TEXT NOT NULL,
	session     TEXT NOT NULL DEFAULT '',
	amount      BIGINT NOT NULL,
	pay_url     TEXT NOT NULL DEFAULT '',
	result_code INTEGER NOT NULL DEFAULT -1,
	message     TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`

type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects, pings and migrates.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	s := &PostgresStore{pool: pool}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("migrate momo_orders: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() { s.pool.Close() }

func (s *PostgresStore) Save(ctx context.Context, o Order) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO momo_orders
		 (order_id, request_id, session, amount, pay_url, result_code, message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (order_id) DO UPDATE
		 SET pay_url = EXCLUDED.pay_url,
		     result_code = EXCLUDED.result_code,
		     message = EXCLUDED.message,
		     updated_at = now()`,
		o.OrderID, o.RequestID, o.Session, o.Amount, o.PayURL, o.ResultCode, o.Message,
	)
	return err
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, orderID string, resultCode int, message string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE momo_orders
		 SET result_code = $2, message = $3, updated_at = now()
		 WHERE order_id = $1`,
		orderID, resultCode, message,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, orderID string) (*Order, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT order_id, request_id, session, amount, pay_url, result_code, message, created_at, updated_at
		 FROM momo_orders
		 WHERE order_id = $1`,
		orderID,
	)

	var o Order
	if err := row.Scan(
		&o.OrderID,
		&o.RequestID,
		&o.Session,
		&o.Amount,
		&o.PayURL,
		&o.ResultCode,
		&o.Message,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &o, nil
}
