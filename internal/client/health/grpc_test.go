package health

import (
	"context"
	"net"
	"testing"

	"github.com/dmitrijs2005/formai/internal/client/platform"
	"github.com/dmitrijs2005/formai/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
	"google.golang.org/grpc/test/bufconn"
)

func startHealthServer(t *testing.T, withReflection bool) (*grpchealth.Server, *GRPCProber) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	hs := grpchealth.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	if withReflection {
		reflection.Register(srv)
	}
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	prober, err := NewGRPCProber("passthrough:///bufnet", platform.New(platform.VariantNative), 0,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = prober.Close() })
	return hs, prober
}

func TestGRPCProber_Serving(t *testing.T) {
	hs, prober := startHealthServer(t, true)
	hs.SetServingStatus("analyze", healthpb.HealthCheckResponse_SERVING)

	r := prober.CheckHealth(context.Background())
	require.True(t, r.OK, r.ErrorMessage)
	assert.Equal(t, 200, r.HTTPStatus)
	assert.NotEmpty(t, r.RequestID)
	assert.Equal(t, RoutesListed, r.RoutesFallback)
	assert.Contains(t, r.Routes, "grpc.health.v1.Health")

	v := NewValidator(prober, logging.NewNopLogger())
	assert.True(t, v.ValidateAll(context.Background()))
}

func TestGRPCProber_NotServing(t *testing.T) {
	hs, prober := startHealthServer(t, false)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	r := prober.CheckHealth(context.Background())
	assert.False(t, r.OK)
	assert.Equal(t, 503, r.HTTPStatus)
	assert.NotEmpty(t, r.ErrorMessage)
}

func TestGRPCProber_NoReflection(t *testing.T) {
	_, prober := startHealthServer(t, false)

	r := prober.CheckHealth(context.Background())
	require.True(t, r.OK)
	assert.Nil(t, r.Routes)
	assert.Equal(t, RoutesNotListed, r.RoutesFallback)
}

func TestGRPCProber_UnknownServiceIsMissing(t *testing.T) {
	_, prober := startHealthServer(t, false)
	assert.False(t, prober.CheckEndpointExists(context.Background(), "/analyze"))
}

func TestGRPCProber_Unavailable(t *testing.T) {
	lis := bufconn.Listen(1 << 10)
	require.NoError(t, lis.Close())

	prober, err := NewGRPCProber("passthrough:///bufnet", platform.New(platform.VariantNative), 0,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	defer prober.Close()

	r := prober.CheckHealth(context.Background())
	assert.False(t, r.OK)
	assert.Equal(t, 0, r.HTTPStatus)
	assert.Equal(t, msgConnectivity, r.ErrorMessage)
}
