// Package metrics collects build statistics in a prometheus registry that
// can be written as a node_exporter textfile after a build.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/arthur-debert/isobundle/pkg/errors"
	"github.com/arthur-debert/isobundle/pkg/types"
)

// Module outcomes
const (
	OutcomeTransformed = "transformed"
	OutcomeBypassed    = "bypassed"
	OutcomePassThrough = "passthrough"
)

// Metrics holds the build statistics of one invocation, labelled by target
type Metrics struct {
	registry *prometheus.Registry

	modules       *prometheus.CounterVec
	assets        *prometheus.CounterVec
	assetBytes    *prometheus.CounterVec
	externals     *prometheus.CounterVec
	artifactBytes *prometheus.GaugeVec
	duration      *prometheus.GaugeVec
	lastSuccess   *prometheus.GaugeVec
}

// New creates the metrics in a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		modules: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isobundle_modules_total",
			Help: "Modules loaded, by matched rule and outcome",
		}, []string{"target", "rule", "outcome"}),
		assets: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isobundle_assets_total",
			Help: "Assets handled by the inliner, by decision",
		}, []string{"target", "decision"}),
		assetBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isobundle_asset_bytes_total",
			Help: "Asset content size, by decision",
		}, []string{"target", "decision"}),
		externals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "isobundle_externals_total",
			Help: "Imports left to the runtime",
		}, []string{"target"}),
		artifactBytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isobundle_artifact_bytes",
			Help: "Size of written artifacts, by kind",
		}, []string{"target", "kind"}),
		duration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isobundle_build_duration_seconds",
			Help: "Duration of the last build",
		}, []string{"target"}),
		lastSuccess: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "isobundle_build_last_success_timestamp_seconds",
			Help: "Unix time of the last successful build",
		}, []string{"target"}),
	}
}

// Registry exposes the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveModule counts one loaded module
func (m *Metrics) ObserveModule(target types.BuildTarget, rule, outcome string) {
	if rule == "" {
		rule = "none"
	}
	m.modules.WithLabelValues(string(target), rule, outcome).Inc()
}

// ObserveAsset counts one inliner decision
func (m *Metrics) ObserveAsset(target types.BuildTarget, inline bool, size int) {
	decision := "emitted"
	if inline {
		decision = "inlined"
	}
	m.assets.WithLabelValues(string(target), decision).Inc()
	m.assetBytes.WithLabelValues(string(target), decision).Add(float64(size))
}

// ObserveExternal counts one externalized import
func (m *Metrics) ObserveExternal(target types.BuildTarget) {
	m.externals.WithLabelValues(string(target)).Inc()
}

// ObserveArtifact adds the size of a written artifact
func (m *Metrics) ObserveArtifact(target types.BuildTarget, kind string, size int) {
	m.artifactBytes.WithLabelValues(string(target), kind).Add(float64(size))
}

// ObserveBuild records the duration of a finished build
func (m *Metrics) ObserveBuild(target types.BuildTarget, d time.Duration, ok bool) {
	m.duration.WithLabelValues(string(target)).Set(d.Seconds())
	if ok {
		m.lastSuccess.WithLabelValues(string(target)).SetToCurrentTime()
	}
}

// WriteTextfile writes the registry in the text exposition format
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.Wrapf(err, errors.ErrOutputWrite, "cannot write metrics to %s", path).
			WithDetail(errors.DetailPath, path)
	}
	return nil
}
