package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "sitekit"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg            *prom.Registry
	pluginDuration *prom.HistogramVec
	pluginResults  *prom.CounterVec
	pluginPages    *prom.CounterVec
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	lastBuild      prom.Gauge
}

// NewPrometheusRecorder constructs the metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		reg: reg,
		pluginDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "plugin_duration_seconds",
			Help:      "Duration of generator plugin runs",
			Buckets:   prom.DefBuckets,
		}, []string{"plugin"}),
		pluginResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_results_total",
			Help:      "Generator plugin results by outcome",
		}, []string{"plugin", "result"}),
		pluginPages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "plugin_pages_total",
			Help:      "Pages and files registered by generator plugins",
		}, []string{"plugin"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"}),
		lastBuild: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_build_timestamp_seconds",
			Help:      "Unix time the last build finished",
		}),
	}
	reg.MustRegister(pr.pluginDuration, pr.pluginResults, pr.pluginPages, pr.buildDuration, pr.buildOutcome, pr.lastBuild)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObservePluginDuration(plugin string, d time.Duration) {
	if p == nil {
		return
	}
	p.pluginDuration.WithLabelValues(plugin).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPluginResult(plugin string, result ResultLabel) {
	if p == nil {
		return
	}
	p.pluginResults.WithLabelValues(plugin, string(result)).Inc()
}

func (p *PrometheusRecorder) AddPluginPages(plugin string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.pluginPages.WithLabelValues(plugin).Add(float64(n))
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
	p.lastBuild.SetToCurrentTime()
}

// WriteTextfile writes the current metrics in the text exposition format,
// for the node-exporter textfile collector. The file is replaced atomically.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
