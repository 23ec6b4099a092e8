package grpcserver

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"donationRegistry/internal/auth"
)

const (
	healthCheckMethod = "/grpc.health.v1.Health/Check"

	// ServiceName is the health service name reported for the donation store.
	ServiceName = "donations"

	defaultProbeInterval = 15 * time.Second
)

// Pinger reports store reachability. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Options configures the gRPC endpoint.
type Options struct {
	Sessions      *auth.Manager
	Store         Pinger
	Log           logrus.FieldLogger
	ProbeInterval time.Duration
}

// StartGRPC listens on addr and serves the health service. It returns a
// shutdown function.
func StartGRPC(addr string, o Options) (func(context.Context) error, error) {
	if addr == "" {
		return nil, errors.New("grpc address is empty")
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return Serve(lis, o)
}

// Serve serves on lis. Every unary method except the health check requires a
// Bearer session token issued by the web login.
func Serve(lis net.Listener, o Options) (func(context.Context) error, error) {
	if o.Sessions == nil || o.Store == nil || o.Log == nil {
		return nil, errors.New("grpc: sessions, store and log are required")
	}
	if o.ProbeInterval <= 0 {
		o.ProbeInterval = defaultProbeInterval
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(auth.NewUnaryAuthInterceptor(o.Sessions, healthCheckMethod)))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	probeCtx, stopProbe := context.WithCancel(context.Background())
	probe(probeCtx, hs, o.Store, o.Log)
	go func() {
		t := time.NewTicker(o.ProbeInterval)
		defer t.Stop()
		for {
			select {
			case <-probeCtx.Done():
				return
			case <-t.C:
				probe(probeCtx, hs, o.Store, o.Log)
			}
		}
	}()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			o.Log.WithError(err).Error("grpc serve")
		}
	}()

	return func(ctx context.Context) error {
		stopProbe()
		hs.Shutdown()
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

// probe pings the store and publishes the result for both the overall
// server ("") and ServiceName.
func probe(ctx context.Context, hs *health.Server, store Pinger, log logrus.FieldLogger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	st := healthpb.HealthCheckResponse_SERVING
	if err := store.PingContext(ctx); err != nil {
		log.WithError(err).Warn("store ping failed")
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", st)
	hs.SetServingStatus(ServiceName, st)
}
