// Package metrics registers Prometheus collectors for starts, stops,
// restarts, running-instance counts, and current resource samples. It
// exposes an http.Handler for its own registry (built with
// promhttp.HandlerFor) but never runs an HTTP server itself —
// serving that handler is an operator's existing metrics scraper, outside
// this module's scope.
package metrics

import (
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors bundles the supervisor's Prometheus metrics. Each Facade
// (or test) owns its own Collectors plus Registry, so there is no shared
// package-level registration state.
type Collectors struct {
	Registry *prometheus.Registry

	Starts        *prometheus.CounterVec
	Restarts      *prometheus.CounterVec
	Stops         *prometheus.CounterVec
	RunningGauge  *prometheus.GaugeVec
	CurrentState  *prometheus.GaugeVec
	CPUPercent    *prometheus.GaugeVec
	MemoryBytes   *prometheus.GaugeVec
}

// New constructs and registers a fresh set of collectors against a private
// registry, so repeated construction (e.g. in tests) never collides.
func New() *Collectors {
	c := &Collectors{
		Registry: prometheus.NewRegistry(),
		Starts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supervisor", Subsystem: "process", Name: "starts_total",
			Help: "Number of successful process starts.",
		}, []string{"name"}),
		Restarts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supervisor", Subsystem: "process", Name: "restarts_total",
			Help: "Number of user-initiated restarts.",
		}, []string{"name"}),
		Stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "supervisor", Subsystem: "process", Name: "stops_total",
			Help: "Number of stops, graceful or forced.",
		}, []string{"name"}),
		RunningGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "supervisor", Subsystem: "process", Name: "running_instances",
			Help: "Current running instances per process name.",
		}, []string{"name"}),
		CurrentState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "supervisor", Subsystem: "process", Name: "current_state",
			Help: "Current state of each process (1 = active state, 0 = inactive).",
		}, []string{"name", "state"}),
		CPUPercent: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "supervisor", Subsystem: "process", Name: "cpu_percent",
			Help: "Last-sampled CPU percent per process.",
		}, []string{"name"}),
		MemoryBytes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "supervisor", Subsystem: "process", Name: "memory_bytes",
			Help: "Last-sampled resident memory bytes per process.",
		}, []string{"name"}),
	}

	for _, coll := range []prometheus.Collector{
		c.Starts, c.Restarts, c.Stops, c.RunningGauge, c.CurrentState, c.CPUPercent, c.MemoryBytes,
	} {
		if err := c.Registry.Register(coll); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err) // only reachable on a programming error: duplicate metric name
			}
		}
	}
	return c
}

// Handler returns an http.Handler serving this Collectors' registry. The
// core never calls ListenAndServe itself; wiring this into a route is left
// to the operator's own process.
func (c *Collectors) Handler() http.Handler {
	return promhttp.HandlerFor(c.Registry, promhttp.HandlerOpts{})
}

// ObserveStart increments the starts counter and marks name's running gauge.
func (c *Collectors) ObserveStart(name string) {
	c.Starts.WithLabelValues(name).Inc()
	c.RunningGauge.WithLabelValues(name).Set(1)
}

// ObserveStop increments the stops counter and clears name's running gauge.
func (c *Collectors) ObserveStop(name string) {
	c.Stops.WithLabelValues(name).Inc()
	c.RunningGauge.WithLabelValues(name).Set(0)
}

// ObserveRestart increments the restarts counter for name.
func (c *Collectors) ObserveRestart(name string) {
	c.Restarts.WithLabelValues(name).Inc()
}

// ObserveState sets the current-state gauge for name/state to 1 and zeroes
// every other known state label for that name to keep the gauge vector a
// clean one-hot encoding.
func (c *Collectors) ObserveState(name, state string, allStates []string) {
	for _, s := range allStates {
		if s == state {
			c.CurrentState.WithLabelValues(name, s).Set(1)
		} else {
			c.CurrentState.WithLabelValues(name, s).Set(0)
		}
	}
}

// ObserveResourceSample records the last-sampled CPU/memory reading for name.
func (c *Collectors) ObserveResourceSample(name string, cpuPercent float64, memBytes uint64) {
	c.CPUPercent.WithLabelValues(name).Set(cpuPercent)
	c.MemoryBytes.WithLabelValues(name).Set(float64(memBytes))
}
