package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"

	"github.com/signalsfoundry/precoding-evaluator/channel"
	"github.com/signalsfoundry/precoding-evaluator/core"
	"github.com/signalsfoundry/precoding-evaluator/internal/config"
	"github.com/signalsfoundry/precoding-evaluator/internal/evalsvc"
	"github.com/signalsfoundry/precoding-evaluator/internal/logging"
	"github.com/signalsfoundry/precoding-evaluator/internal/observability"
	"github.com/signalsfoundry/precoding-evaluator/internal/results"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML server configuration file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.NewFromEnv().Error(context.Background(), "failed to load configuration", logging.Err(err))
		os.Exit(1)
	}
	log := logging.New(cfg.LoggingConfig())

	lis, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error(context.Background(), "failed to listen for gRPC", logging.String("addr", cfg.ListenAddress), logging.Err(err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run serves the evaluation service on lis until ctx is cancelled.
func run(ctx context.Context, cfg config.ServerConfig, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	rpcMetrics, err := observability.NewRPCCollector(reg)
	if err != nil {
		return err
	}
	evalMetrics, err := observability.NewEvaluationCollector(reg)
	if err != nil {
		return err
	}

	store := results.NewStore(
		results.WithCapacity(cfg.Results.Capacity),
		results.WithMetrics(rpcMetrics),
	)
	unsubscribe := store.Subscribe(func(ev results.Event) {
		if ev.Type == results.EventEvicted {
			log.Debug(context.Background(), "result evicted", logging.String("result_id", ev.Record.ID))
		}
	})
	defer unsubscribe()

	var precoding []core.PrecodingOption
	if cfg.Precoding.ConditionLimit > 0 {
		precoding = append(precoding, core.WithConditionLimit(cfg.Precoding.ConditionLimit))
	}
	evaluator := core.NewEvaluator(nil,
		core.WithLogger(log),
		core.WithRecorder(evalMetrics),
		core.WithPrecodingOptions(precoding...),
	)
	svc := evalsvc.NewService(evaluator, store,
		evalsvc.WithDefaultChannel(channel.Spec{Model: cfg.Channel.Model, Seed: cfg.Channel.Seed}),
		evalsvc.WithLogger(log),
	)

	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			evalsvc.RequestIDUnaryServerInterceptor(log),
			evalsvc.TracingUnaryServerInterceptor(),
			rpcMetrics.UnaryServerInterceptor(),
		),
	)
	evalsvc.RegisterEvaluationServer(server, svc)

	metricsSrv := serveMetrics(cfg.MetricsAddress, rpcMetrics, log)

	errCh := make(chan error, 1)
	log.Info(ctx, "starting evaluation gRPC server", logging.String("addr", lis.Addr().String()))
	go func() {
		errCh <- server.Serve(lis)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down evaluation server")
		server.GracefulStop()
		<-errCh
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	if serveErr != nil && !errors.Is(serveErr, grpc.ErrServerStopped) {
		return serveErr
	}
	return nil
}

func serveMetrics(addr string, collector *observability.RPCCollector, log logging.Logger) *http.Server {
	if addr == "" || collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
