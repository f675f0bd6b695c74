package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "Number of currently connected websocket clients.",
	})

	pushesDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_pushes_delivered_total",
		Help: "Total number of events delivered to a live connection.",
	}, []string{"event"})

	pushesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_pushes_dropped_total",
		Help: "Total number of events dropped because no live connection could take them.",
	}, []string{"event"})
)
