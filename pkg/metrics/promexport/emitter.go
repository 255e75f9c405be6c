package promexport

import "github.com/AccessDevops/S3Explorer/pkg/events"

// metricEmitter adapts an Exporter to events.Emitter so it can sit in the
// facade's emitter fan-out: request metrics land on the Prometheus
// instruments, progress events are ignored (they're transient UI state, not
// scrape material).
type metricEmitter struct {
	exporter *Exporter
}

// EmitterFor wraps e as an events.Emitter forwarding only metric events.
func EmitterFor(e *Exporter) events.Emitter {
	return &metricEmitter{exporter: e}
}

func (m *metricEmitter) EmitUploadProgress(events.UploadProgress)     {}
func (m *metricEmitter) EmitDownloadProgress(events.DownloadProgress) {}
func (m *metricEmitter) EmitIndexProgress(events.IndexProgress)       {}

func (m *metricEmitter) EmitMetric(metric events.S3RequestMetric) {
	m.exporter.ObserveRequest(metric)
}
