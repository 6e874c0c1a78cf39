package grpc

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

var (
	grpcRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bankauth_grpc_request_duration_seconds",
			Help:    "Duration of gRPC requests in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "code"},
	)

	grpcRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_grpc_requests_total",
			Help: "Total number of gRPC requests",
		},
		[]string{"method", "code"},
	)

	grpcActiveRequests = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bankauth_grpc_active_requests",
			Help: "Number of active gRPC requests",
		},
		[]string{"method"},
	)

	grpcPanicsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bankauth_grpc_panics_total",
			Help: "Total number of gRPC panics recovered",
		},
		[]string{"method"},
	)
)

func metricsInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		method := info.FullMethod

		grpcActiveRequests.WithLabelValues(method).Inc()
		defer grpcActiveRequests.WithLabelValues(method).Dec()

		resp, err := handler(ctx, req)

		code := status.Code(err).String()
		grpcRequestsTotal.WithLabelValues(method, code).Inc()
		grpcRequestDuration.WithLabelValues(method, code).Observe(time.Since(start).Seconds())

		return resp, err
	}
}

func RecordPanic(method string) {
	grpcPanicsTotal.WithLabelValues(method).Inc()
}
