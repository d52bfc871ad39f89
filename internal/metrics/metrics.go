package metrics

import (
	"fmt"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scratchfile"

var (
	// Registry is a dedicated Prometheus registry for all scratchfile metrics.
	Registry = prometheus.NewRegistry()

	// WriteDuration measures a full scratch write run.
	WriteDuration = promauto.With(Registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_duration_ms",
			Help:      "Duration of scratch file write runs in milliseconds",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	// WriteTotal counts write runs by outcome.
	WriteTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_total",
			Help:      "Total number of scratch write runs",
		},
		[]string{"outcome"}, // success | error
	)

	// WriteErrorsTotal counts failed runs by the step that failed.
	WriteErrorsTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_errors_total",
			Help:      "Failed scratch write runs by failing step",
		},
		[]string{"op"}, // open | write | flush | close
	)

	// BytesWrittenTotal accumulates bytes handed to the scratch file.
	BytesWrittenTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bytes_written_total",
			Help:      "Bytes written to scratch files",
		},
	)

	// ValuesWrittenTotal accumulates integers written.
	ValuesWrittenTotal = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_written_total",
			Help:      "Integers written to scratch files",
		},
	)

	// VerifyTotal counts verification passes by outcome.
	VerifyTotal = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verify_total",
			Help:      "Total number of scratch verification passes",
		},
		[]string{"outcome"}, // ok | truncated | mismatch | trailing | error
	)

	// PackDuration measures compression of a scratch file.
	PackDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pack_duration_ms",
			Help:      "Duration of scratch pack operations in milliseconds",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		},
		[]string{"format"},
	)

	// PackRatio reports compressed size over original size for the last pack.
	PackRatio = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pack_ratio",
			Help:      "Compressed bytes divided by original bytes for the last pack",
		},
		[]string{"format"},
	)

	// HistoryRuns reports the number of runs held in the history store.
	HistoryRuns = promauto.With(Registry).NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "history_runs",
			Help:      "Runs recorded in the history store",
		},
	)

	// BuildInfo exposes static information about the binary.
	BuildInfo = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Static information about the scratchfile binary",
		},
		[]string{"os", "arch", "version"},
	)
)

func init() {
	Registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	Registry.MustRegister(prometheus.NewGoCollector())
}

// SetBuildInfo publishes the build info gauge.
func SetBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	BuildInfo.WithLabelValues(runtime.GOOS, runtime.GOARCH, version).Set(1)
}

// ObserveWrite records a write run. op is the failing step, empty on success.
func ObserveWrite(start time.Time, op string, bytes int64, values int) {
	WriteDuration.Observe(float64(time.Since(start)) / float64(time.Millisecond))

	if bytes > 0 {
		BytesWrittenTotal.Add(float64(bytes))
	}
	if values > 0 {
		ValuesWrittenTotal.Add(float64(values))
	}

	if op == "" {
		WriteTotal.WithLabelValues("success").Inc()
		return
	}
	WriteTotal.WithLabelValues("error").Inc()
	WriteErrorsTotal.WithLabelValues(op).Inc()
}

// ObserveVerify counts a verification outcome.
func ObserveVerify(outcome string) {
	VerifyTotal.WithLabelValues(outcome).Inc()
}

// ObservePack records pack timing and the resulting ratio.
func ObservePack(start time.Time, format string, inBytes, outBytes int64) {
	PackDuration.WithLabelValues(format).Observe(float64(time.Since(start)) / float64(time.Millisecond))
	if inBytes > 0 && outBytes >= 0 {
		PackRatio.WithLabelValues(format).Set(float64(outBytes) / float64(inBytes))
	}
}

// SetHistoryRuns reports the size of the history store.
func SetHistoryRuns(count int) {
	if count < 0 {
		count = 0
	}
	HistoryRuns.Set(float64(count))
}

// WriteTextfile dumps the registry in text exposition format for a
// node-exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
