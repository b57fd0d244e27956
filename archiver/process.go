package archiver

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/AksharDP/TwitchVodArchiver/archive"
	"github.com/AksharDP/TwitchVodArchiver/chatdl"
	"github.com/AksharDP/TwitchVodArchiver/telemetry"
	"github.com/AksharDP/TwitchVodArchiver/ytdlp"
)

// processVideo runs the per-video state machine and returns its terminal
// outcome. Existence is checked before detail extraction so an
// already-archived video (verification off) costs exactly one registry call.
func (a *Archiver) processVideo(ctx context.Context, v ytdlp.VideoSummary) Outcome {
	videoID := ytdlp.VideoID(v.ID)
	identifier := archive.Identifier(videoID)
	watchURL := v.URL
	if watchURL == "" {
		watchURL = ytdlp.WatchURL(v.ID)
	}
	logger := telemetry.LoggerWithCorr(ctx).With(
		slog.String("vod_id", videoID),
		slog.String("identifier", identifier),
		slog.String("component", "archiver"),
	)
	ctx, span := telemetry.StartSpan(ctx, "archiver", "archiver.video",
		attribute.String("vod_id", videoID), attribute.String("identifier", identifier))
	defer span.End()
	telemetry.VideosConsidered.Inc()
	start := time.Now()

	exists := a.Registry.Exists(ctx, identifier)
	if exists && !a.Verify {
		logger.Info("skipping: already archived")
		telemetry.SkipReason(string(OutcomeAlreadyArchived))
		return OutcomeAlreadyArchived
	}

	detail, err := a.Extractor.GetVideoDetail(ctx, watchURL)
	if err != nil {
		logger.Warn("skipping: vod detail unavailable", slog.String("url", watchURL), slog.Any("err", err))
		telemetry.SkipReason(string(OutcomeDetailUnavailable))
		telemetry.RecordError(span, err)
		return OutcomeDetailUnavailable
	}

	if exists {
		return a.verify(ctx, identifier, detail, logger)
	}

	if detail.IsLive {
		logger.Info("skipping: vod is live")
		telemetry.SkipReason(string(OutcomeLive))
		return OutcomeLive
	}

	// Downloads begin: claim the workspace for this video.
	if err := a.Chat.ClearCache(ctx); err != nil {
		logger.Warn("chat cache clear failed", slog.Any("err", err))
	}
	if err := a.WS.Reset(); err != nil {
		logger.Warn("workspace reset failed", slog.Any("err", err))
	}
	mediaPath := a.WS.Path(videoID + ".mp4")
	chatJSONPath := chatdl.ChatPath(a.WS.Dir(), videoID)
	chatGzPath := chatJSONPath + ".gz"
	// Local artifacts never outlive this video's processing, whatever the
	// outcome below.
	defer a.WS.Clean(mediaPath, chatJSONPath, chatGzPath)

	logger.Info("downloading chat")
	chatFile := ""
	dlStart := time.Now()
	for attempt := 1; attempt <= a.chatMaxAttempts && ctx.Err() == nil; attempt++ {
		telemetry.ChatAttempts.Inc()
		p, err := a.Chat.FetchChat(ctx, videoID, a.WS.Dir())
		if err == nil {
			chatFile = p
			break
		}
		logger.Warn("chat download attempt failed", slog.Int("attempt", attempt), slog.Any("err", err))
	}
	if chatFile == "" {
		logger.Error("skipping: chat download exhausted retries", slog.String("url", watchURL))
		telemetry.SkipReason(string(OutcomeChatDownloadFailed))
		return OutcomeChatDownloadFailed
	}
	telemetry.ChatDownloadDuration.Observe(time.Since(dlStart).Seconds())

	logger.Info("downloading vod")
	dlStart = time.Now()
	downloaded := false
	for attempt := 1; attempt <= a.videoMaxAttempts && ctx.Err() == nil; attempt++ {
		telemetry.VideoAttempts.Inc()
		if err := a.Video.DownloadVideo(ctx, detail.URL, mediaPath); err != nil {
			logger.Warn("vod download attempt failed", slog.Int("attempt", attempt), slog.String("url", watchURL), slog.Any("err", err))
		}
		if fileExists(mediaPath) {
			downloaded = true
			break
		}
	}
	if !downloaded {
		logger.Error("skipping: vod download exhausted retries", slog.String("url", watchURL))
		telemetry.SkipReason(string(OutcomeVideoDownloadFailed))
		return OutcomeVideoDownloadFailed
	}
	telemetry.VideoDownloadDuration.Observe(time.Since(dlStart).Seconds())

	md := archive.Synthesize(detail)

	logger.Info("uploading", slog.String("title", md.Title), slog.String("date", md.Date))
	upStart := time.Now()
	res, err := a.Registry.Upload(ctx, identifier, mediaPath, chatFile, md)
	if err != nil {
		logger.Error("upload failed", slog.String("url", watchURL), slog.Any("err", err))
		telemetry.UploadsRejected.Inc()
		telemetry.RecordError(span, err)
		return OutcomeUploadRejected
	}
	if res.StatusCode != 200 {
		logger.Error("upload rejected", slog.Int("status", res.StatusCode), slog.String("url", watchURL))
		telemetry.UploadsRejected.Inc()
		return OutcomeUploadRejected
	}
	telemetry.UploadDuration.Observe(time.Since(upStart).Seconds())
	telemetry.VideosUploaded.Inc()
	telemetry.VideoTotalDuration.Observe(time.Since(start).Seconds())
	telemetry.SetSpanSuccess(span)
	logger.Info("uploaded",
		slog.String("url", watchURL),
		slog.String("archive_url", "https://archive.org/details/"+identifier),
		slog.Duration("total_duration", time.Since(start)))
	return OutcomeUploaded
}

// verify re-derives metadata for an already-archived video and reconciles
// drift. Failures here are logged and never fatal to the run.
func (a *Archiver) verify(ctx context.Context, identifier string, detail *ytdlp.VideoDetail, logger *slog.Logger) Outcome {
	expected := archive.Synthesize(detail)
	stored := a.Registry.ReadMetadata(ctx, identifier)
	if stored == nil {
		logger.Warn("verify: stored metadata unavailable")
		telemetry.DriftFailed.Inc()
		return OutcomeVerifyFailed
	}
	if stored.Equal(expected) {
		logger.Info("verify: no drift")
		return OutcomeVerified
	}
	if _, err := a.Registry.Reconcile(ctx, identifier, expected); err != nil {
		logger.Error("verify: drift correction failed", slog.Any("err", err))
		telemetry.DriftFailed.Inc()
		return OutcomeVerifyFailed
	}
	logger.Info("verify: drift corrected")
	telemetry.DriftCorrected.Inc()
	return OutcomeVerified
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
