package health

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/formai/internal/client/fetch"
	"github.com/dmitrijs2005/formai/internal/client/platform"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	reflectionpb "google.golang.org/grpc/reflection/grpc_reflection_v1"
	"google.golang.org/grpc/status"
)

// GRPCProber speaks grpc.health.v1 and lists services via server reflection.
type GRPCProber struct {
	conn     *grpc.ClientConn
	health   healthpb.HealthClient
	reflect  reflectionpb.ServerReflectionClient
	platform platform.Provider
	timeout  time.Duration
}

// NewGRPCProber connects to addr. Extra dial options come after the default
// insecure transport credentials and may override them.
func NewGRPCProber(addr string, p platform.Provider, timeout time.Duration, opts ...grpc.DialOption) (*GRPCProber, error) {
	dialOpts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &GRPCProber{
		conn:     conn,
		health:   healthpb.NewHealthClient(conn),
		reflect:  reflectionpb.NewServerReflectionClient(conn),
		platform: p,
		timeout:  clampTimeout(timeout),
	}, nil
}

func (g *GRPCProber) Close() error {
	return g.conn.Close()
}

func (g *GRPCProber) outgoing(ctx context.Context) (context.Context, context.CancelFunc, string) {
	id := fetch.NewRequestID(g.platform.Capabilities().CryptoRandom, g.platform.Now())
	ctx = metadata.AppendToOutgoingContext(ctx, "x-request-id", id)
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	return ctx, cancel, id
}

func (g *GRPCProber) CheckHealth(ctx context.Context) Result {
	start := g.platform.Now()
	cctx, cancel, id := g.outgoing(ctx)
	defer cancel()

	resp, err := g.health.Check(cctx, &healthpb.HealthCheckRequest{})
	r := Result{RequestID: id, Elapsed: g.platform.Now().Sub(start)}
	if err != nil {
		code := status.Code(err)
		r.HTTPStatus = statusFromCode(code)
		var cause error
		if code == codes.DeadlineExceeded {
			cause = fetch.ErrTimeout
		}
		r.ErrorMessage = messageFor(r.HTTPStatus, cause)
		return r
	}

	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		r.HTTPStatus = http.StatusServiceUnavailable
		r.ErrorMessage = messageFor(r.HTTPStatus, nil)
		return r
	}

	r.OK = true
	r.HTTPStatus = http.StatusOK
	r.Routes, r.RoutesFallback = g.listServices(cctx)
	return r
}

// CheckEndpointExists checks the health of the service named by path
// ("/analyze" asks for service "analyze"). NOT_FOUND and errors mean missing.
func (g *GRPCProber) CheckEndpointExists(ctx context.Context, path string) bool {
	cctx, cancel, _ := g.outgoing(ctx)
	defer cancel()

	_, err := g.health.Check(cctx, &healthpb.HealthCheckRequest{Service: strings.TrimPrefix(path, "/")})
	return err == nil
}

func (g *GRPCProber) listServices(ctx context.Context) ([]string, RoutesFallback) {
	stream, err := g.reflect.ServerReflectionInfo(ctx)
	if err != nil {
		return nil, RoutesNotListed
	}
	defer func() { _ = stream.CloseSend() }()

	err = stream.Send(&reflectionpb.ServerReflectionRequest{
		MessageRequest: &reflectionpb.ServerReflectionRequest_ListServices{ListServices: ""},
	})
	if err != nil {
		return nil, RoutesNotListed
	}
	resp, err := stream.Recv()
	if err != nil {
		return nil, RoutesNotListed
	}
	list := resp.GetListServicesResponse()
	if list == nil {
		return nil, RoutesMalformed
	}

	routes := make([]string, 0, len(list.GetService()))
	for _, s := range list.GetService() {
		routes = append(routes, s.GetName())
	}
	sort.Strings(routes)
	return routes, RoutesListed
}

// statusFromCode maps a gRPC code onto the HTTP-like status used in Result.
func statusFromCode(c codes.Code) int {
	switch c {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound, codes.Unimplemented:
		return http.StatusNotFound
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		return 0
	default:
		return http.StatusInternalServerError
	}
}
