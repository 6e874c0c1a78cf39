package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"bankauth/internal/failure"
	"bankauth/internal/grpc/handler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubValidator struct {
	valid string
	calls int
}

func (s *stubValidator) ValidateToken(_ context.Context, accessToken string) bool {
	s.calls++
	return accessToken == s.valid
}

func startServer(t *testing.T, validator handler.TokenValidator) *grpc.ClientConn {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	srv := newServer(lis, validator)
	go func() { _ = srv.Start() }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestValidateToken(t *testing.T) {
	validator := &stubValidator{valid: "good"}
	client := handler.NewTokenServiceClient(startServer(t, validator))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var header metadata.MD
	ok, err := client.ValidateToken(ctx, "good", grpc.Header(&header))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, header.Get(requestIDHeader))

	ok, err = client.ValidateToken(ctx, "forged")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = client.ValidateToken(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 2, validator.calls, "empty tokens are rejected without validation")
}

func TestRequestIDIsPropagated(t *testing.T) {
	client := handler.NewTokenServiceClient(startServer(t, &stubValidator{}))

	ctx := metadata.AppendToOutgoingContext(context.Background(), requestIDHeader, "req-42")
	var header metadata.MD
	_, err := client.ValidateToken(ctx, "x", grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(requestIDHeader))
}

func TestHealth(t *testing.T) {
	health := grpc_health_v1.NewHealthClient(startServer(t, &stubValidator{}))

	resp, err := health.Check(context.Background(), &grpc_health_v1.HealthCheckRequest{Service: handler.TokenServiceName})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.GetStatus())
}

type panickingValidator struct{}

func (panickingValidator) ValidateToken(context.Context, string) bool { panic("boom") }

func TestRecoveryInterceptor(t *testing.T) {
	client := handler.NewTokenServiceClient(startServer(t, panickingValidator{}))

	_, err := client.ValidateToken(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestMapErrorToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"wrapped deadline", fmt.Errorf("fetch keys: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"canceled", context.Canceled, codes.Canceled},
		{"database", &failure.PersistenceError{Op: "insert", Err: errors.New("pq: broken")}, codes.Internal},
		{"provider down", &failure.ProviderUnreachableError{Err: errors.New("pq: refused")}, codes.Internal},
		{"unknown", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(mapErrorToStatus(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.want, st.Code())
			assert.NotContains(t, st.Message(), "pq:")
		})
	}
}
