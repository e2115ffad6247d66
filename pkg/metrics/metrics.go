package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EventsPublished counts change events fanned out by the realtime hub
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_published_total",
		Help: "Change events published to the realtime hub.",
	}, []string{"table", "action"})

	// EventsDropped counts events lost to full subscriber buffers
	EventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "realtime_events_dropped_total",
		Help: "Change events dropped because a subscriber buffer was full.",
	}, []string{"table"})

	// ActiveSubscriptions tracks open hub subscriptions
	ActiveSubscriptions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_active_subscriptions",
		Help: "Currently open realtime subscriptions.",
	})

	// WebsocketConnections tracks open websocket clients
	WebsocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections",
		Help: "Currently connected websocket clients.",
	})
)

// Serve exposes /metrics on the given port. Blocks, so run it in its own
// goroutine.
func Serve(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Printf("Metrics listening on :%s", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("Metrics server stopped: %v", err)
	}
}
