package httpapi

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/outofforest/logger"
	"github.com/outofforest/parallel"
	"github.com/outofforest/rendezvous"
)

// LivenessText is returned by the root endpoint.
const LivenessText = "✅ Signaling server is running"

// Health is returned by the health endpoint.
type Health struct {
	Status     string `json:"status"`
	Sessions   int    `json:"sessions"`
	Identities int    `json:"identities"`
}

// NewRouter creates router serving liveness, health, metrics and websocket endpoints.
func NewRouter(hub *rendezvous.Hub, ws http.Handler, gatherer prometheus.Gatherer) *httprouter.Router {
	router := httprouter.New()

	router.GET("/", func(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(LivenessText))
	})
	router.GET("/health", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(Health{
			Status:     "ok",
			Sessions:   hub.Sessions(),
			Identities: hub.Registry().Len(),
		}); err != nil {
			logger.Get(r.Context()).Error("Encoding health failed", zap.Error(err))
		}
	})
	router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	router.Handler(http.MethodGet, "/ws", ws)

	return router
}

// Run serves HTTP requests on the listener until ctx is canceled.
// Requests inherit ctx, so the logger is available to handlers and websocket sessions end on shutdown.
func Run(ctx context.Context, ls net.Listener, handler http.Handler, shutdownTimeout time.Duration) error {
	server := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	return parallel.Run(ctx, func(ctx context.Context, spawn parallel.SpawnFn) error {
		spawn("server", parallel.Fail, func(ctx context.Context) error {
			err := server.Serve(ls)
			if errors.Is(err, http.ErrServerClosed) {
				return errors.WithStack(ctx.Err())
			}
			return errors.WithStack(err)
		})
		spawn("shutdown", parallel.Fail, func(ctx context.Context) error {
			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return errors.Wrap(err, "shutting down http server failed")
			}
			return errors.WithStack(ctx.Err())
		})

		return nil
	})
}
