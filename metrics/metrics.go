// Package metrics exposes squeeze progress as Prometheus collectors.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/meigma/squeeze"
)

// Observer records progress events into Prometheus collectors.
// Register it on any squeeze.Sink; one Observer may serve many sinks.
type Observer struct {
	blocksTotal     *prometheus.CounterVec
	compressedBytes *prometheus.CounterVec
	totalBytes      *prometheus.GaugeVec
	blockBytes      *prometheus.HistogramVec
	currentStream   *prometheus.GaugeVec
}

var _ squeeze.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its collectors with reg.
func NewObserver(reg prometheus.Registerer) (*Observer, error) {
	o := &Observer{
		blocksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squeeze_blocks_total",
				Help: "Total number of blocks reported, labeled by sink.",
			},
			[]string{"sink"},
		),
		compressedBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "squeeze_block_compressed_bytes_total",
				Help: "Sum of per-block compressed sizes reported, labeled by sink.",
			},
			[]string{"sink"},
		),
		totalBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "squeeze_written_bytes",
				Help: "Bytes written by the sink as of its latest report.",
			},
			[]string{"sink"},
		),
		blockBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "squeeze_block_compressed_size_bytes",
				Help:    "Histogram of compressed block sizes.",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
			[]string{"sink"},
		),
		currentStream: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "squeeze_stream_index",
				Help: "Index of the stream named in the sink's latest report.",
			},
			[]string{"sink"},
		),
	}

	for _, c := range []prometheus.Collector{o.blocksTotal, o.compressedBytes, o.totalBytes, o.blockBytes, o.currentStream} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnProgress implements squeeze.Observer.
func (o *Observer) OnProgress(event squeeze.ProgressEvent) error {
	sink := sinkLabel(event.Source)
	o.blocksTotal.WithLabelValues(sink).Inc()
	o.compressedBytes.WithLabelValues(sink).Add(float64(event.CompressedBytesInCurrentUnit))
	o.totalBytes.WithLabelValues(sink).Set(float64(event.TotalBytesWritten))
	o.blockBytes.WithLabelValues(sink).Observe(float64(event.CompressedBytesInCurrentUnit))
	o.currentStream.WithLabelValues(sink).Set(float64(event.StreamIndex))
	return nil
}

// Forget drops the series recorded for a sink.
func (o *Observer) Forget(source squeeze.Source) {
	sink := sinkLabel(source)
	o.blocksTotal.DeleteLabelValues(sink)
	o.compressedBytes.DeleteLabelValues(sink)
	o.totalBytes.DeleteLabelValues(sink)
	o.blockBytes.DeleteLabelValues(sink)
	o.currentStream.DeleteLabelValues(sink)
}

func sinkLabel(source squeeze.Source) string {
	if source == nil {
		return "unknown"
	}
	return source.ID()
}

// WriteTextfile gathers g and writes it in the text exposition format to
// path, as consumed by the node_exporter textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// FormatRatio renders a compression ratio for labels and summaries.
func FormatRatio(compressed, uncompressed int64) string {
	if uncompressed == 0 {
		return "0.000"
	}
	return strconv.FormatFloat(float64(compressed)/float64(uncompressed), 'f', 3, 64)
}
