package ytdlp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strconv"
	"time"
)

// Client invokes yt-dlp. The zero value works with a yt-dlp on PATH and
// default retry/timeout budgets.
type Client struct {
	Bin         string        // yt-dlp binary; default "yt-dlp"
	CookiesFile string        // optional session cookie file applied to every call
	Attempts    int           // extraction attempts per call; default 3
	Timeout     time.Duration // per-attempt extraction timeout; default 60s
	Retries     int           // yt-dlp internal media download retries; default 10

	// run is swapped in tests to avoid spawning real processes.
	run func(ctx context.Context, bin string, args []string) ([]byte, error)
}

func (c *Client) bin() string {
	if c.Bin != "" {
		return c.Bin
	}
	return "yt-dlp"
}

func (c *Client) attempts() int {
	if c.Attempts > 0 {
		return c.Attempts
	}
	return 3
}

func (c *Client) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 60 * time.Second
}

func (c *Client) exec(ctx context.Context, args []string) ([]byte, error) {
	if c.run != nil {
		return c.run(ctx, c.bin(), args)
	}
	return runCmd(ctx, c.bin(), args)
}

// baseArgs holds the flags shared by every invocation.
func (c *Client) baseArgs() []string {
	args := []string{"--quiet", "--no-warnings", "--socket-timeout", strconv.Itoa(int(c.timeout().Seconds()))}
	if c.CookiesFile != "" {
		args = append(args, "--cookies", c.CookiesFile)
	}
	return args
}

// extractJSON runs a --dump-single-json invocation with bounded retries and
// exponential backoff plus jitter, decoding stdout into out.
func (c *Client) extractJSON(ctx context.Context, extra []string, target string, out any) error {
	args := append(c.baseArgs(), "--dump-single-json")
	args = append(args, extra...)
	args = append(args, target)
	baseBackoff := 2 * time.Second
	var lastErr error
	for attempt := 0; attempt < c.attempts(); attempt++ {
		if attempt > 0 {
			backoff := baseBackoff*time.Duration(1<<attempt) + time.Duration(rand.Int63n(int64(baseBackoff)))
			slog.Warn("retrying extraction", slog.String("target", target), slog.Int("attempt", attempt), slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, c.timeout())
		raw, err := c.exec(callCtx, args)
		cancel()
		if err != nil {
			lastErr = err
			if ctx.Err() != nil {
				return ctx.Err()
			}
			continue
		}
		if err := json.Unmarshal(raw, out); err != nil {
			lastErr = fmt.Errorf("decode yt-dlp output: %w", err)
			continue
		}
		return nil
	}
	return lastErr
}

// ListVideos enumerates a channel's VODs via a flat playlist extraction.
// Listing order is whatever the provider returns; callers must not assume
// chronological order.
func (c *Client) ListVideos(ctx context.Context, channel string) ([]VideoSummary, error) {
	if channel == "" {
		return nil, &ExtractionError{Target: channel, Err: fmt.Errorf("channel empty")}
	}
	url := fmt.Sprintf("https://www.twitch.tv/%s/videos", channel)
	var body struct {
		Entries []VideoSummary `json:"entries"`
	}
	if err := c.extractJSON(ctx, []string{"--flat-playlist"}, url, &body); err != nil {
		return nil, &ExtractionError{Target: channel, Err: err}
	}
	return body.Entries, nil
}

// GetVideoDetail extracts the full record for one VOD by URL or id.
func (c *Client) GetVideoDetail(ctx context.Context, urlOrID string) (*VideoDetail, error) {
	var detail VideoDetail
	if err := c.extractJSON(ctx, nil, urlOrID, &detail); err != nil {
		return nil, &ExtractionError{Target: urlOrID, Err: err}
	}
	return &detail, nil
}

// DownloadVideo fetches best-quality media for url into dest. Transient
// network and fragment errors are retried internally by yt-dlp; a returned
// error means the whole invocation failed and the caller decides whether to
// try again.
func (c *Client) DownloadVideo(ctx context.Context, url, dest string) error {
	retries := c.Retries
	if retries <= 0 {
		retries = 10
	}
	args := append(c.baseArgs(),
		"--no-playlist",
		"--continue",
		"--retries", strconv.Itoa(retries),
		"-f", "best",
		"-o", dest,
		url,
	)
	if _, err := c.exec(ctx, args); err != nil {
		return &VideoDownloadError{URL: url, Err: err}
	}
	return nil
}
