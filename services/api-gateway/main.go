// services/api-gateway/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/example/momo-gateway/internal/config"
	"github.com/example/momo-gateway/internal/momo"
	"github.com/example/momo-gateway/internal/orders"
	"github.com/example/momo-gateway/internal/payments"
	"github.com/example/momo-gateway/internal/queue"
	"github.com/example/momo-gateway/services/api-gateway/handlers"
)

const serviceName = "api-gateway"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[%s] %v", serviceName, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := orders.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[%s] order store: %v", serviceName, err)
	}
	defer closeStore()

	latest := orders.NewLatest(orders.MemoryTTL)
	latest.StartSweeper(ctx, orders.SweepEvery)

	svc := &payments.Service{
		Gateway: momo.NewClient(cfg),
		Latest:  latest,
		Orders:  store,
	}
	if len(cfg.KafkaBrokers) > 0 {
		bus := queue.New(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer bus.Close()
		svc.Events = bus
		log.Printf("[%s] publishing events to %s on %v", serviceName, cfg.KafkaTopic, cfg.KafkaBrokers)
	}

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      cors.AllowAll().Handler(newRouter(svc)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server Shutdown: %v", err)
		}
	}()

	if cfg.WarmupAmount > 0 {
		go warmup(ctx, svc, cfg.WarmupAmount)
	}

	log.Printf("%s listening at %s", serviceName, cfg.HTTPAddr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
}

func newRouter(svc *payments.Service) *mux.Router {
	d := handlers.Deps{Payments: svc}

	r := mux.NewRouter()
	r.Use(metricsMiddleware)

	// metrics & health
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"service": serviceName,
			"ts":      time.Now().UTC(),
		})
	}).Methods(http.MethodGet)

	// API, with and without the /api prefix
	for _, prefix := range []string{"", "/api"} {
		r.HandleFunc(prefix+"/pay", handlers.PayHandler(d)).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/check", handlers.CheckHandler(d)).Methods(http.MethodPost)
		r.HandleFunc(prefix+"/orderId", handlers.OrderIDHandler(d)).Methods(http.MethodGet)
		r.HandleFunc(prefix+"/orders/{orderId}", handlers.OrderHandler(d)).Methods(http.MethodGet)
	}
	r.HandleFunc("/welcome", handlers.WelcomeHandler).Methods(http.MethodGet)

	return r
}

// writeTimeout leaves room for every attempt plus backoff before the server cuts the response.
func writeTimeout(cfg *config.Config) time.Duration {
	attempts := time.Duration(cfg.MaxRetries + 1)
	return cfg.Timeout*attempts + cfg.RetryMaxDelay*attempts + 5*time.Second
}

// warmup mirrors the one-off payment fired after start-up, useful to smoke-test credentials.
func warmup(ctx context.Context, svc *payments.Service, amount int64) {
	res, err := svc.Pay(ctx, "", amount)
	if err != nil {
		log.Printf("[%s] warm-up payment of %d failed: %v", serviceName, amount, err)
		return
	}
	log.Printf("[%s] warm-up payment %s: %s", serviceName, res.Sent.OrderID, res.PayURL)
}
