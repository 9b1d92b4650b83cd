// cmd/status-worker/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/momo-gateway/internal/config"
	"github.com/example/momo-gateway/internal/momo"
	"github.com/example/momo-gateway/internal/orders"
	"github.com/example/momo-gateway/internal/payments"
	"github.com/example/momo-gateway/internal/queue"
)

const groupID = "momo-status-worker"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[status-worker] %v", err)
	}
	if len(cfg.KafkaBrokers) == 0 {
		log.Fatal("[status-worker] KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := orders.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[status-worker] order store: %v", err)
	}
	defer closeStore()

	latest := orders.NewLatest(orders.MemoryTTL)
	latest.StartSweeper(ctx, orders.SweepEvery)

	results := queue.New(cfg.KafkaBrokers, cfg.KafkaResTopic)
	defer results.Close()

	p := &poller{
		svc: &payments.Service{
			Gateway: momo.NewClient(cfg),
			Latest:  latest,
			Orders:  store,
			Events:  results,
		},
		store: store,
		delay: cfg.StatusPollDelay,
		now:   time.Now,
	}

	log.Printf("[status-worker] started: %s -> %s", cfg.KafkaTopic, cfg.KafkaResTopic)
	if err := queue.Consume(ctx, cfg.KafkaBrokers, cfg.KafkaTopic, groupID, p.handle); err != nil {
		log.Fatalf("[status-worker] %v", err)
	}
	log.Println("[status-worker] bye")
}
