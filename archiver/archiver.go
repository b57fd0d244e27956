// Package archiver drives the per-channel, per-video archival control flow:
// dedupe against the registry, gating on live status, staged downloads with
// bounded retry, metadata synthesis, upload, and guaranteed cleanup of local
// artifacts. Execution is strictly sequential: one video is processed start
// to finish before the next begins, and per-video failures never abort the
// rest of the run.
package archiver

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AksharDP/TwitchVodArchiver/archive"
	"github.com/AksharDP/TwitchVodArchiver/config"
	"github.com/AksharDP/TwitchVodArchiver/telemetry"
	"github.com/AksharDP/TwitchVodArchiver/workspace"
	"github.com/AksharDP/TwitchVodArchiver/ytdlp"
)

// Extractor lists a channel's VODs and extracts per-video detail.
type Extractor interface {
	ListVideos(ctx context.Context, channel string) ([]ytdlp.VideoSummary, error)
	GetVideoDetail(ctx context.Context, urlOrID string) (*ytdlp.VideoDetail, error)
}

// Registry abstracts the external archive (for tests/mocks).
type Registry interface {
	Exists(ctx context.Context, identifier string) bool
	ReadMetadata(ctx context.Context, identifier string) *archive.Metadata
	Reconcile(ctx context.Context, identifier string, expected archive.Metadata) (archive.ReconcileResult, error)
	Upload(ctx context.Context, identifier, mediaFile, chatFile string, md archive.Metadata) (*archive.UploadResult, error)
}

// ChatFetcher produces a compressed chat log for a video id.
type ChatFetcher interface {
	FetchChat(ctx context.Context, videoID, dir string) (string, error)
	ClearCache(ctx context.Context) error
}

// VideoFetcher downloads media for a video URL to a destination path.
type VideoFetcher interface {
	DownloadVideo(ctx context.Context, url, dest string) error
}

// Archiver owns the pipeline. The workspace is its exclusive mutable state;
// everything else is reached through the adapter interfaces.
type Archiver struct {
	Extractor Extractor
	Registry  Registry
	Chat      ChatFetcher
	Video     VideoFetcher
	WS        *workspace.Workspace

	// Verify enables metadata reconciliation for already-archived videos
	// instead of skipping them outright.
	Verify bool

	chatMaxAttempts  int
	videoMaxAttempts int
}

// New wires an Archiver with the configured retry budgets.
func New(cfg *config.Config, ext Extractor, reg Registry, chat ChatFetcher, video VideoFetcher, ws *workspace.Workspace) *Archiver {
	return &Archiver{
		Extractor:        ext,
		Registry:         reg,
		Chat:             chat,
		Video:            video,
		WS:               ws,
		chatMaxAttempts:  cfg.ChatMaxAttempts,
		videoMaxAttempts: cfg.VideoMaxAttempts,
	}
}

// Run processes the channels in caller order, videos within each channel in
// listing order. A channel whose listing fails is logged and skipped; the
// only error Run itself returns is context cancellation.
func (a *Archiver) Run(ctx context.Context, channels []string) error {
	ctx = telemetry.WithCorrelation(ctx, uuid.NewString()[:8])
	logger := telemetry.LoggerWithCorr(ctx)
	for _, channel := range channels {
		if err := ctx.Err(); err != nil {
			return err
		}
		chCtx, span := telemetry.StartSpan(ctx, "archiver", "archiver.channel", attribute.String("channel", channel))
		err := a.runChannel(chCtx, channel, logger.With(slog.String("channel", channel)))
		telemetry.RecordError(span, err)
		span.End()
		if err != nil && errors.Is(err, context.Canceled) {
			return err
		}
	}
	return nil
}

func (a *Archiver) runChannel(ctx context.Context, channel string, logger *slog.Logger) error {
	logger.Info("listing channel vods")
	videos, err := a.Extractor.ListVideos(ctx, channel)
	if err != nil {
		logger.Warn("channel listing failed; skipping channel", slog.Any("err", err))
		return nil
	}
	telemetry.SetChannelVideos(len(videos))
	logger.Info("channel listed", slog.Int("videos", len(videos)))
	counts := map[Outcome]int{}
	for _, v := range videos {
		if err := ctx.Err(); err != nil {
			return err
		}
		outcome := a.processVideo(ctx, v)
		counts[outcome]++
		logger.Info("video finished",
			slog.String("vod_id", ytdlp.VideoID(v.ID)),
			slog.String("outcome", string(outcome)),
			slog.Bool("archived", outcome.Done()))
	}
	logger.Info("channel finished", slog.Any("outcomes", counts))
	return nil
}
