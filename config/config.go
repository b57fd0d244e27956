// Package config loads environment variables and provides a typed Config used
// across the archiver. It applies sensible defaults so the binary can run
// locally with minimal setup. Tool and credential discovery happens once at
// startup via DiscoverTools; a missing downloader executable is a startup
// failure, not something probed mid-run.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrDownloaderNotFound is returned when no TwitchDownloaderCLI executable
// can be resolved. The process must exit before any channel is touched.
var ErrDownloaderNotFound = errors.New("TwitchDownloaderCLI not found")

type Config struct {
	// Tools (resolved by DiscoverTools)
	DownloaderCLI string // absolute path to TwitchDownloaderCLI
	CookiesFile   string // optional session cookie file; empty when absent
	YtDlpBin      string // yt-dlp binary; default "yt-dlp"

	// Storage
	DataDir string // transient artifact directory

	// Retry budgets
	ChatMaxAttempts  int // orchestrator chat download attempts
	VideoMaxAttempts int // orchestrator video download attempts
	ExtractAttempts  int // extractor-internal retry count
	VideoRetries     int // yt-dlp internal media retries

	// Timeouts
	ExtractTimeout time.Duration // per extraction call
	UploadTimeout  time.Duration // registry upload request timeout

	// Chat download
	ChatThreads int

	// Archive registry credentials
	IAAccessKey string
	IASecretKey string

	// Observability
	MetricsAddr string // optional /metrics listener; empty disables

	// FFmpegPresent mirrors the "ffmpeg" environment variable; when set the
	// one-time downloader self-install bootstrap is suppressed.
	FFmpegPresent bool
}

// Load reads environment variables and applies defaults. It never fails on
// missing optional values; only a malformed duration is an error.
func Load() (*Config, error) {
	cfg := &Config{
		YtDlpBin:         "yt-dlp",
		DataDir:          "data",
		ChatMaxAttempts:  5,
		VideoMaxAttempts: 5,
		ExtractAttempts:  3,
		VideoRetries:     10,
		ExtractTimeout:   60 * time.Second,
		UploadTimeout:    10 * time.Minute,
		ChatThreads:      2,
	}

	if v := os.Getenv("YTDLP_BIN"); v != "" {
		cfg.YtDlpBin = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.ChatMaxAttempts = intEnv("CHAT_MAX_ATTEMPTS", cfg.ChatMaxAttempts)
	cfg.VideoMaxAttempts = intEnv("VIDEO_MAX_ATTEMPTS", cfg.VideoMaxAttempts)
	cfg.ExtractAttempts = intEnv("EXTRACT_ATTEMPTS", cfg.ExtractAttempts)
	cfg.VideoRetries = intEnv("VIDEO_DOWNLOAD_RETRIES", cfg.VideoRetries)
	cfg.ChatThreads = intEnv("CHAT_DOWNLOAD_THREADS", cfg.ChatThreads)

	var err error
	if cfg.ExtractTimeout, err = durationEnv("EXTRACT_TIMEOUT", cfg.ExtractTimeout); err != nil {
		return nil, err
	}
	if cfg.UploadTimeout, err = durationEnv("UPLOAD_TIMEOUT", cfg.UploadTimeout); err != nil {
		return nil, err
	}

	cfg.IAAccessKey = os.Getenv("IA_ACCESS_KEY")
	cfg.IASecretKey = os.Getenv("IA_SECRET_KEY")
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	_, cfg.FFmpegPresent = os.LookupEnv("ffmpeg")

	return cfg, nil
}

// DiscoverTools resolves the downloader executable and optional cookie file
// from dir. Explicit env overrides (TWITCH_DOWNLOADER_CLI, COOKIES_FILE) win
// over filename-substring discovery; either way the resulting path is
// validated here, once, instead of scattering directory scans through the
// pipeline.
func (c *Config) DiscoverTools(dir string) error {
	if p := os.Getenv("TWITCH_DOWNLOADER_CLI"); p != "" {
		c.DownloaderCLI = p
	} else if p := findBySubstring(dir, "TwitchDownloaderCLI"); p != "" {
		c.DownloaderCLI = p
	}
	if c.DownloaderCLI == "" {
		return ErrDownloaderNotFound
	}
	if _, err := os.Stat(c.DownloaderCLI); err != nil {
		return fmt.Errorf("%w: %s", ErrDownloaderNotFound, c.DownloaderCLI)
	}
	if abs, err := filepath.Abs(c.DownloaderCLI); err == nil {
		c.DownloaderCLI = abs
	}

	if p := os.Getenv("COOKIES_FILE"); p != "" {
		c.CookiesFile = p
	} else if p := findBySubstring(dir, "cookies"); p != "" {
		c.CookiesFile = p
	}
	if c.CookiesFile != "" {
		if _, err := os.Stat(c.CookiesFile); err != nil {
			return fmt.Errorf("cookies file: %w", err)
		}
	}
	return nil
}

// findBySubstring returns the first regular file in dir whose name contains
// sub, or empty string.
func findBySubstring(dir, sub string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.Contains(e.Name(), sub) {
			return filepath.Join(dir, e.Name())
		}
	}
	return ""
}

func intEnv(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return def, nil
	}
	return d, nil
}
