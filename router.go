package rendezvous

import (
	"context"

	"go.uber.org/zap"

	"github.com/outofforest/logger"
)

// Router forwards connection requests to the sessions of the requested peers.
type Router struct {
	registry *Registry
	metrics  *Metrics
}

// NewRouter creates router resolving peers in the registry.
func NewRouter(registry *Registry, metrics *Metrics) *Router {
	return &Router{
		registry: registry,
		metrics:  metrics,
	}
}

// RouteRequest notifies the session registered under `to` that the peer `from` wants to connect.
// The request is dropped if the peer is not present. The requester is never notified.
func (r *Router) RouteRequest(ctx context.Context, from, to string) bool {
	log := logger.Get(ctx)

	target, exists := r.registry.Lookup(to)
	if !exists {
		r.metrics.requests.WithLabelValues(resultOffline).Inc()
		log.Debug("Could not deliver connection request, peer is not registered",
			zap.String("to", short(Normalize(to))))
		return false
	}

	from = Normalize(from)
	switch target.deliver(Message{
		Type: MessageIncomingRequest,
		From: from,
	}) {
	case deliveryClosed:
		r.metrics.requests.WithLabelValues(resultOffline).Inc()
		log.Debug("Could not deliver connection request, peer is disconnected",
			zap.String("to", short(Normalize(to))))
		return false
	case deliveryQueueFull:
		r.metrics.requests.WithLabelValues(resultDropped).Inc()
		r.metrics.outboundDropped.WithLabelValues(MessageIncomingRequest.String()).Inc()
		log.Warn("Connection request dropped, outbound queue is full",
			zap.String("from", short(from)), zap.String("to", short(Normalize(to))))
		return false
	}

	r.metrics.requests.WithLabelValues(resultDelivered).Inc()
	log.Debug("Connection request delivered",
		zap.String("from", short(from)), zap.String("to", short(Normalize(to))))
	return true
}
