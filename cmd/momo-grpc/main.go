// cmd/momo-grpc/main.go
package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	gp "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/example/momo-gateway/internal/config"
	"github.com/example/momo-gateway/internal/grpcserver"
	"github.com/example/momo-gateway/internal/momo"
	"github.com/example/momo-gateway/internal/orders"
	"github.com/example/momo-gateway/internal/payments"
	"github.com/example/momo-gateway/internal/queue"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[momo-grpc] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := orders.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[momo-grpc] order store: %v", err)
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
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(gp.UnaryServerInterceptor),
		grpc.StreamInterceptor(gp.StreamServerInterceptor),
	)
	grpcserver.RegisterPaymentsServiceServer(grpcServer, &grpcserver.PaymentsServer{Payments: svc})

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)
	healthSrv.SetServingStatus(grpcserver.PaymentsServiceName, healthpb.HealthCheckResponse_SERVING)

	// Default gRPC metrics
	gp.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("[momo-grpc] listen %s: %v", cfg.GRPCAddr, err)
	}
	go func() {
		log.Printf("[momo-grpc] serving gRPC on %s", cfg.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatalf("[momo-grpc] grpc serve: %v", err)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	go func() {
		log.Printf("[momo-grpc] serving metrics on %s /metrics", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[momo-grpc] metrics serve: %v", err)
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	log.Println("[momo-grpc] shutting down...")
	healthSrv.Shutdown()
	grpcServer.GracefulStop()
	_ = metricsSrv.Shutdown(context.Background())
	log.Println("[momo-grpc] bye")
}
