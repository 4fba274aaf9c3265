package grpc

import (
	"context"
	"time"

	"iotkit-rental-backend/internal/logger"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health check name reported for the backend as a whole.
const ServiceName = "iotkit.rental.v1.Backend"

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewServer builds the gRPC server that exposes health checking and reflection
// next to the HTTP API.
func NewServer() (*grpc.Server, *health.Server) {
	server := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return server, healthServer
}

// WatchDatabase keeps the health status in step with the database until ctx
// is cancelled.
func WatchDatabase(ctx context.Context, hs *health.Server, db Pinger, interval time.Duration) {
	updateStatus(ctx, hs, db)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			hs.Shutdown()
			return
		case <-ticker.C:
			updateStatus(ctx, hs, db)
		}
	}
}

func updateStatus(ctx context.Context, hs *health.Server, db Pinger) {
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("Database ping failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", status)
	hs.SetServingStatus(ServiceName, status)
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		logger.Warn("gRPC request failed", "method", info.FullMethod, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return resp, err
	}
	logger.Debug("gRPC request", "method", info.FullMethod, "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}
