package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/outofforest/rendezvous"
	"github.com/outofforest/rendezvous/httpapi"
	"github.com/outofforest/rendezvous/ws"
)

func main() {
	config, err := LoadConfig(os.Args[1:], os.Getenv)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	log := logger.New(logger.DefaultConfig)
	ctx, stop := signal.NotifyContext(logger.WithLogger(context.Background(), log), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Rendezvous server failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, config Config) error {
	log := logger.Get(ctx)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := rendezvous.NewHub(rendezvous.Config{QueueSize: config.QueueSize}, reg)
	router := httpapi.NewRouter(hub, ws.NewHandler(hub, config.WebSocket()), reg)

	httpLs, err := net.Listen("tcp", config.HTTPAddr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s failed", config.HTTPAddr)
	}
	defer httpLs.Close()

	var nativeLs net.Listener
	if config.NativeAddr != "" {
		nativeLs, err = net.Listen("tcp", config.NativeAddr)
		if err != nil {
			return errors.Wrapf(err, "listening on %s failed", config.NativeAddr)
		}
		defer nativeLs.Close()
	}

	log.Info("Rendezvous server started",
		zap.Stringer("http", httpLs.Addr()),
		zap.String("native", config.NativeAddr),
		zap.Uint64("maxMessageSize", config.MaxMessageSize),
		zap.Int("queueSize", config.QueueSize))

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("http", parallel.Fail, func(ctx context.Context) error {
			return httpapi.Run(ctx, httpLs, router, config.ShutdownTimeout)
		})
		if nativeLs != nil {
			spawn("native", parallel.Fail, func(ctx context.Context) error {
				return rendezvous.RunServer(ctx, nativeLs, hub, rendezvous.ServerConfig{
					MaxMessageSize: config.MaxMessageSize,
				})
			})
		}

		return nil
	})
}
