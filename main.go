// Command TwitchVodArchiver archives a Twitch channel's VODs, chat logs and
// metadata into the Internet Archive. It:
//   - Loads configuration, initializes structured logging and telemetry.
//   - Discovers the TwitchDownloaderCLI executable and optional cookie file
//     in the working directory (exit 1 if the downloader is missing).
//   - Processes the given channels strictly sequentially, skipping VODs that
//     are already archived and optionally reconciling metadata drift.
//
// Usage: TwitchVodArchiver [-verify] <channel1,channel2,...>
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AksharDP/TwitchVodArchiver/archive"
	"github.com/AksharDP/TwitchVodArchiver/archiver"
	"github.com/AksharDP/TwitchVodArchiver/chatdl"
	"github.com/AksharDP/TwitchVodArchiver/config"
	"github.com/AksharDP/TwitchVodArchiver/telemetry"
	"github.com/AksharDP/TwitchVodArchiver/workspace"
	"github.com/AksharDP/TwitchVodArchiver/ytdlp"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) { // text | json
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	verify := flag.Bool("verify", false, "reconcile metadata drift on already-archived VODs instead of skipping them")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-verify] <channel1,channel2,...>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	channels := splitChannels(flag.Arg(0))
	if len(channels) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}

	// Tool discovery happens once, before any channel is touched. A missing
	// downloader executable is the only fatal condition.
	cwd, err := os.Getwd()
	if err != nil {
		slog.Error("cannot determine working directory", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.DiscoverTools(cwd); err != nil {
		if errors.Is(err, config.ErrDownloaderNotFound) {
			slog.Error("TwitchDownloaderCLI not found")
		} else {
			slog.Error("tool discovery failed", slog.Any("err", err))
		}
		os.Exit(1)
	}
	slog.Info("tools resolved", slog.String("downloader", cfg.DownloaderCLI), slog.Bool("cookies", cfg.CookiesFile != ""))

	// Metrics / telemetry init
	telemetry.Init()
	shutdown, err := telemetry.InitTracing("twitch-vod-archiver", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Optional /metrics listener for scrape-based monitoring of long runs.
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{
				Addr:              cfg.MetricsAddr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       10 * time.Second,
				WriteTimeout:      10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}
			slog.Info("metrics listener enabled", slog.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil {
				slog.Error("metrics server error", slog.Any("err", err))
			}
		}()
	}

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	chatClient := &chatdl.Client{Bin: cfg.DownloaderCLI, Threads: cfg.ChatThreads}
	if cfg.FFmpegPresent {
		slog.Info("ffmpeg present; skipping downloader bootstrap")
	} else if err := chatClient.BootstrapFFmpeg(ctx); err != nil {
		slog.Warn("ffmpeg bootstrap failed", slog.Any("err", err))
	}

	ytClient := &ytdlp.Client{
		Bin:         cfg.YtDlpBin,
		CookiesFile: cfg.CookiesFile,
		Attempts:    cfg.ExtractAttempts,
		Timeout:     cfg.ExtractTimeout,
		Retries:     cfg.VideoRetries,
	}
	registry := &archive.Registry{
		AccessKey:  cfg.IAAccessKey,
		SecretKey:  cfg.IASecretKey,
		HTTPClient: &http.Client{Timeout: cfg.UploadTimeout},
	}
	ws, err := workspace.New(cfg.DataDir)
	if err != nil {
		slog.Error("cannot create workspace", slog.String("dir", cfg.DataDir), slog.Any("err", err))
		os.Exit(1)
	}

	arch := archiver.New(cfg, ytClient, registry, chatClient, ytClient, ws)
	arch.Verify = *verify

	if err := arch.Run(ctx, channels); err != nil {
		slog.Info("run interrupted", slog.Any("err", err))
	}
	slog.Info("done")
}

// splitChannels parses the comma-separated positional argument, dropping
// empty entries.
func splitChannels(arg string) []string {
	parts := strings.Split(arg, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
