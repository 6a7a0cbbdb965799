package controlsvc

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	SniffersRunning prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sniffctl",
				Subsystem: "controlsvc",
				Name:      "requests_total",
				Help:      "Total number of control requests",
			},
			[]string{"op", "result"},
		),
		SniffersRunning: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "sniffctl",
				Subsystem: "controlsvc",
				Name:      "sniffers_running",
				Help:      "Number of sniffers currently marked as started",
			},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(m.RequestsTotal)
	reg.MustRegister(m.SniffersRunning)
}
