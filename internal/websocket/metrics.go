package websocket

import "github.com/prometheus/client_golang/prometheus"

var (
	wsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quote_desk_ws_connections",
		Help: "Dashboard websocket connections currently open.",
	})
	wsRooms = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "quote_desk_ws_rooms",
		Help: "Admin dashboard rooms with at least one client.",
	})
	wsPushes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "quote_desk_ws_pushes_total",
		Help: "Dashboard pushes by outcome.",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(wsConnections, wsRooms, wsPushes)
}

func incConnections() { wsConnections.Inc() }

func decConnections() { wsConnections.Dec() }

func setRooms(count int) {
	wsRooms.Set(float64(count))
}

func addDelivered(count int) {
	wsPushes.WithLabelValues("delivered").Add(float64(count))
}

// incDropped counts a payload that never reached a client, either because
// the hub backlog or a client buffer was full.
func incDropped() {
	wsPushes.WithLabelValues("dropped").Inc()
}
