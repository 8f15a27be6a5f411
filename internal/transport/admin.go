// Package transport serves the admin surface of a running ingester: the gRPC
// health service, its HTTP gateway and prometheus metrics.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	grpcMiddleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpcZap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpcRecovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpcCtxTags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	grpcPrometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// IngesterService is the health service name the pipeline reports under.
const IngesterService = "ledger.ingester"

type AdminConfig struct {
	GRPCAddr string
	HTTPAddr string
}

// Admin owns the gRPC and HTTP admin servers.
type Admin struct {
	cfg    AdminConfig
	logger *zap.Logger
	health *health.Server
	grpc   *grpc.Server

	grpcLis net.Listener
	httpLis net.Listener
}

func NewAdmin(cfg AdminConfig, logger *zap.Logger) *Admin {
	logger = logger.Named("admin")
	chain := []grpc.UnaryServerInterceptor{
		grpcRecovery.UnaryServerInterceptor(),
		grpcCtxTags.UnaryServerInterceptor(),
		grpcPrometheus.UnaryServerInterceptor,
		grpcZap.UnaryServerInterceptor(logger),
	}
	srv := grpc.NewServer(
		grpc.UnaryInterceptor(grpcMiddleware.ChainUnaryServer(chain...)),
	)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	grpcPrometheus.EnableHandlingTimeHistogram()
	grpcPrometheus.Register(srv)

	a := &Admin{cfg: cfg, logger: logger, health: hs, grpc: srv}
	a.SetServing(false)
	return a
}

// SetServing publishes the ingester state on the health service.
func (a *Admin) SetServing(serving bool) {
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	a.health.SetServingStatus(IngesterService, status)
	a.health.SetServingStatus("", status)
}

// Listen binds both admin addresses.
func (a *Admin) Listen() error {
	var err error
	if a.grpcLis, err = net.Listen("tcp", a.cfg.GRPCAddr); err != nil {
		return fmt.Errorf("listen grpc %s: %w", a.cfg.GRPCAddr, err)
	}
	if a.httpLis, err = net.Listen("tcp", a.cfg.HTTPAddr); err != nil {
		_ = a.grpcLis.Close()
		return fmt.Errorf("listen http %s: %w", a.cfg.HTTPAddr, err)
	}
	return nil
}

func (a *Admin) GRPCAddr() string { return a.grpcLis.Addr().String() }
func (a *Admin) HTTPAddr() string { return a.httpLis.Addr().String() }

// Serve runs both servers until ctx is done. Listen must be called first.
func (a *Admin) Serve(ctx context.Context) error {
	if a.grpcLis == nil || a.httpLis == nil {
		return errors.New("admin listeners are not bound")
	}
	conn, err := grpc.NewClient(a.GRPCAddr(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return fmt.Errorf("dial health service: %w", err)
	}
	defer conn.Close()

	gw := gwruntime.NewServeMux(gwruntime.WithHealthzEndpoint(healthpb.NewHealthClient(conn)))
	mux := http.NewServeMux()
	mux.Handle("/", gw)
	mux.Handle("/metrics", promhttp.Handler())

	s := &http.Server{
		Handler:           cors.Default().Handler(mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    http.DefaultMaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("Starting GRPC server", zap.String("addr", a.GRPCAddr()))
		return a.grpc.Serve(a.grpcLis)
	})
	g.Go(func() error {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.HTTPAddr()))
		if err := s.Serve(a.httpLis); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("Shutting down admin servers")
		a.health.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Failed to shutdown http server", zap.Error(err))
		}
		a.grpc.GracefulStop()
		return nil
	})
	return g.Wait()
}
