// Package telemetry provides Prometheus metrics and correlation-id aware
// logging helpers for the archival pipeline.
package telemetry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	once sync.Once

	// Counters
	VideosConsidered prometheus.Counter
	VideosUploaded   prometheus.Counter
	VideosSkipped    *prometheus.CounterVec
	UploadsRejected  prometheus.Counter
	ChatAttempts     prometheus.Counter
	VideoAttempts    prometheus.Counter
	DriftCorrected   prometheus.Counter
	DriftFailed      prometheus.Counter

	// Histograms (seconds)
	ChatDownloadDuration  prometheus.Observer
	VideoDownloadDuration prometheus.Observer
	UploadDuration        prometheus.Observer
	VideoTotalDuration    prometheus.Observer

	// Gauges
	ChannelVideosGauge prometheus.Gauge
)

// Init registers metrics (idempotent).
func Init() {
	once.Do(func() {
		VideosConsidered = promauto.NewCounter(prometheus.CounterOpts{Name: "archiver_videos_considered_total", Help: "VODs examined by the pipeline"})
		VideosUploaded = promauto.NewCounter(prometheus.CounterOpts{Name: "archiver_videos_uploaded_total", Help: "VODs successfully archived"})
		VideosSkipped = promauto.NewCounterVec(prometheus.CounterOpts{Name: "archiver_videos_skipped_total", Help: "VODs skipped, by reason"}, []string{"reason"})
		UploadsRejected = promauto.NewCounter(prometheus.CounterOpts{Name: "archiver_uploads_rejected_total", Help: "Uploads rejected with a non-200 status"})
		ChatAttempts = promauto.NewCounter(prometheus.CounterOpts{Name: "archiver_chat_download_attempts_total", Help: "Chat download attempts"})
		VideoAttempts = promauto.NewCounter(prometheus.CounterOpts{Name: "archiver_video_download_attempts_total", Help: "Video download attempts"})
		DriftCorrected = promauto.NewCounter(prometheus.CounterOpts{Name: "archiver_metadata_drift_corrected_total", Help: "Verification updates issued for drifted metadata"})
		DriftFailed = promauto.NewCounter(prometheus.CounterOpts{Name: "archiver_metadata_drift_failed_total", Help: "Verification updates that failed"})
		ChatDownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archiver_chat_download_duration_seconds", Help: "Chat download duration seconds", Buckets: prometheus.DefBuckets})
		VideoDownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archiver_video_download_duration_seconds", Help: "Video download duration seconds", Buckets: prometheus.DefBuckets})
		UploadDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archiver_upload_duration_seconds", Help: "Upload duration seconds", Buckets: prometheus.DefBuckets})
		VideoTotalDuration = promauto.NewHistogram(prometheus.HistogramOpts{Name: "archiver_video_total_duration_seconds", Help: "End-to-end per-video duration seconds", Buckets: prometheus.DefBuckets})
		ChannelVideosGauge = promauto.NewGauge(prometheus.GaugeOpts{Name: "archiver_channel_videos", Help: "Number of VODs listed for the channel currently being processed"})
	})
}

// SkipReason increments the skip counter for a reason label.
func SkipReason(reason string) {
	if VideosSkipped != nil {
		VideosSkipped.WithLabelValues(reason).Inc()
	}
}

// SetChannelVideos records the listing size of the current channel.
func SetChannelVideos(n int) {
	if ChannelVideosGauge != nil {
		ChannelVideosGauge.Set(float64(n))
	}
}

// TimeFunc measures the duration of fn and records it in obs if non-nil.
func TimeFunc(obs prometheus.Observer, fn func()) time.Duration {
	start := time.Now()
	fn()
	d := time.Since(start)
	if obs != nil {
		obs.Observe(d.Seconds())
	}
	return d
}

// Correlation ID helpers ----------------------------------------------------
type corrKeyType struct{}

var corrKey corrKeyType

// WithCorrelation returns a new context embedding the correlation id.
func WithCorrelation(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, corrKey, id)
}

// GetCorrelation returns the correlation id or empty string.
func GetCorrelation(ctx context.Context) string {
	if s, ok := ctx.Value(corrKey).(string); ok {
		return s
	}
	return ""
}

// LoggerWithCorr returns a logger with the corr attribute if present.
func LoggerWithCorr(ctx context.Context) *slog.Logger {
	if id := GetCorrelation(ctx); id != "" {
		return slog.Default().With(slog.String("corr", id))
	}
	return slog.Default()
}
