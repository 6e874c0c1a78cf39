package grpc

import (
	"fmt"
	"net"
	"time"

	"bankauth/internal/config"
	"bankauth/internal/grpc/handler"
	"bankauth/internal/logger"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"
)

type Server struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
}

func NewServer(cfg *config.Config, validator handler.TokenValidator) (*Server, error) {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return nil, fmt.Errorf("failed to listen: %w", err)
	}

	return newServer(lis, validator), nil
}

func newServer(lis net.Listener, validator handler.TokenValidator) *Server {
	serverOpts := []grpc.ServerOption{
		// order matters!
		grpc.ChainUnaryInterceptor(
			recoveryInterceptor(),
			requestIDInterceptor(),
			metricsInterceptor(),
			validationInterceptor(),
			loggingInterceptor(),
			errorMappingInterceptor(),
		),
		grpc.StatsHandler(otelgrpc.NewServerHandler()),

		grpc.ConnectionTimeout(120 * time.Second),
		grpc.MaxConcurrentStreams(1000),
		grpc.MaxRecvMsgSize(64 * 1024),

		grpc.KeepaliveParams(keepalive.ServerParameters{
			MaxConnectionIdle:     15 * time.Minute,
			MaxConnectionAge:      30 * time.Minute,
			MaxConnectionAgeGrace: 5 * time.Minute,
			Time:                  5 * time.Minute,
			Timeout:               1 * time.Minute,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             1 * time.Minute,
			PermitWithoutStream: true,
		}),
	}

	grpcServer := grpc.NewServer(serverOpts...)

	handler.RegisterTokenServiceServer(grpcServer, handler.NewTokenHandler(validator))

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(handler.TokenServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	return &Server{
		server:   grpcServer,
		listener: lis,
		health:   healthServer,
	}
}

func (s *Server) Start() error {
	logger.Info().
		Str("addr", s.listener.Addr().String()).
		Msg("starting grpc server")
	return s.server.Serve(s.listener)
}

// Stop reports NOT_SERVING first so health-checking clients drain before
// in-flight calls are finished.
func (s *Server) Stop() {
	logger.Info().Msg("stopping grpc server")
	s.health.Shutdown()
	s.server.GracefulStop()
}
