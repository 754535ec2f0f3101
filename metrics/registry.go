package metrics

import (
	"errors"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	registryOnce sync.Once
	registry     *prometheus.Registry
)

// Common histogram buckets.
var (
	CountBuckets    = []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}
	DurationBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1}
)

// GetRegistry returns the process-wide registry served on /metrics.
func GetRegistry() *prometheus.Registry {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
	return registry
}

// ComponentRegistry creates collectors under a fixed namespace/subsystem and
// registers them on the shared registry. Registering the same metric twice
// returns the collector that is already registered.
type ComponentRegistry struct {
	namespace string
	subsystem string
	reg       prometheus.Registerer
}

// NewComponentRegistry returns a ComponentRegistry on the shared registry.
func NewComponentRegistry(namespace, subsystem string) *ComponentRegistry {
	return &ComponentRegistry{
		namespace: namespace,
		subsystem: subsystem,
		reg:       GetRegistry(),
	}
}

func (c *ComponentRegistry) NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	opts.Namespace, opts.Subsystem = c.namespace, c.subsystem
	return register(c.reg, prometheus.NewCounter(opts))
}

func (c *ComponentRegistry) NewCounterVec(opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	opts.Namespace, opts.Subsystem = c.namespace, c.subsystem
	return register(c.reg, prometheus.NewCounterVec(opts, labels))
}

func (c *ComponentRegistry) NewGauge(opts prometheus.GaugeOpts) prometheus.Gauge {
	opts.Namespace, opts.Subsystem = c.namespace, c.subsystem
	return register(c.reg, prometheus.NewGauge(opts))
}

func (c *ComponentRegistry) NewGaugeVec(opts prometheus.GaugeOpts, labels []string) *prometheus.GaugeVec {
	opts.Namespace, opts.Subsystem = c.namespace, c.subsystem
	return register(c.reg, prometheus.NewGaugeVec(opts, labels))
}

func (c *ComponentRegistry) NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	opts.Namespace, opts.Subsystem = c.namespace, c.subsystem
	return register(c.reg, prometheus.NewHistogram(opts))
}

func (c *ComponentRegistry) NewHistogramVec(opts prometheus.HistogramOpts, labels []string) *prometheus.HistogramVec {
	opts.Namespace, opts.Subsystem = c.namespace, c.subsystem
	return register(c.reg, prometheus.NewHistogramVec(opts, labels))
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) T {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}
