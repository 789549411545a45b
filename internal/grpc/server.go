package grpcserver

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/status"

	"clientDirectory/internal/auth"
	"clientDirectory/repository"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Deps are the collaborators of the gRPC server.
type Deps struct {
	Users     repository.UserRepositoryI
	Companies repository.CompanyRepositoryI
	Clients   repository.ClientRepositoryI
	Secret    string
	Logger    *zap.Logger
}

// NewServer builds a gRPC server exposing the health service and the directory
// service behind the JWT interceptor. Health checks bypass authentication.
func NewServer(d Deps) (*grpc.Server, *health.Server) {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		logUnary(logger),
		auth.NewUnaryAuthInterceptor(d.Secret, healthCheckMethod),
	))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(DirectoryServiceName, healthpb.HealthCheckResponse_SERVING)

	RegisterDirectoryServer(srv, &DirectoryService{
		Users:     d.Users,
		Companies: d.Companies,
		Clients:   d.Clients,
	})
	reflection.Register(srv)
	return srv, hs
}

// Start listens on addr and serves srv in the background. The returned function
// stops the server gracefully, falling back to a hard stop when ctx expires.
func Start(addr string, srv *grpc.Server, logger *zap.Logger) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	go func() {
		if err := srv.Serve(lis); err != nil {
			logger.Error("gRPC server stopped", zap.Error(err))
		}
	}()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}

// WatchDatabase pings db every interval and mirrors the result into the overall
// and directory health statuses until ctx is cancelled.
func WatchDatabase(ctx context.Context, hs *health.Server, db Pinger, interval time.Duration, logger *zap.Logger) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	check := func() {
		pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		st := healthpb.HealthCheckResponse_SERVING
		if err := db.PingContext(pctx); err != nil {
			st = healthpb.HealthCheckResponse_NOT_SERVING
			logger.Warn("database ping failed", zap.Error(err))
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(DirectoryServiceName, st)
	}

	check()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}

func logUnary(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)))
		return resp, err
	}
}
