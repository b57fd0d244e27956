// Package chatdl wraps the TwitchDownloaderCLI executable for chat log
// retrieval. The argument contract and output-path convention live here so
// the executable's interface is exercised from exactly one place. Retry is
// deliberately the caller's: success is observable only as the compressed
// output file appearing, and the orchestrator owns the per-video attempt
// budget.
package chatdl

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
)

// ChatDownloadError indicates the expected compressed chat file did not
// appear after an invocation.
type ChatDownloadError struct {
	VideoID string
	Err     error
}

func (e *ChatDownloadError) Error() string {
	return fmt.Sprintf("chat download %s: %v", e.VideoID, e.Err)
}
func (e *ChatDownloadError) Unwrap() error { return e.Err }

// Client invokes TwitchDownloaderCLI.
type Client struct {
	Bin     string // absolute path to the TwitchDownloaderCLI executable
	Threads int    // download concurrency hint; default 2

	// run is swapped in tests to avoid spawning real processes.
	run func(ctx context.Context, bin string, args []string) error
}

func (c *Client) threads() int {
	if c.Threads > 0 {
		return c.Threads
	}
	return 2
}

func (c *Client) exec(ctx context.Context, args []string) error {
	if c.run != nil {
		return c.run(ctx, c.Bin, args)
	}
	cmd := exec.CommandContext(ctx, c.Bin, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// ChatPath returns the uncompressed chat log path for a video inside dir.
// The compressed artifact the downloader actually produces is ChatPath+".gz".
func ChatPath(dir, videoID string) string {
	return filepath.Join(dir, videoID+".json")
}

// chatArgs builds the fixed chatdownload argument contract: embedded images,
// the three emote providers, gzip compression and a bounded thread count.
func (c *Client) chatArgs(videoID, outPath string) []string {
	return []string{
		"chatdownload",
		"--id", videoID,
		"--embed-images",
		"--bttv=true",
		"--ffz=true",
		"--stv=true",
		"-o", outPath,
		"--compression", "Gzip",
		"--banner", "false",
		"-t", strconv.Itoa(c.threads()),
	}
}

// FetchChat downloads one video's chat log into dir and returns the path of
// the compressed file. The invocation itself failing and the output simply
// not appearing are the same outcome for callers: no artifact, try again or
// give up.
func (c *Client) FetchChat(ctx context.Context, videoID, dir string) (string, error) {
	out := ChatPath(dir, videoID)
	compressed := out + ".gz"
	if err := c.exec(ctx, c.chatArgs(videoID, out)); err != nil {
		return "", &ChatDownloadError{VideoID: videoID, Err: err}
	}
	if _, err := os.Stat(compressed); err != nil {
		return "", &ChatDownloadError{VideoID: videoID, Err: fmt.Errorf("compressed chat file not produced: %w", err)}
	}
	return compressed, nil
}

// ClearCache drops the downloader's on-disk cache. Best-effort: a stale
// cache costs disk, not correctness.
func (c *Client) ClearCache(ctx context.Context) error {
	return c.exec(ctx, []string{"cache", "--force-clear"})
}

// BootstrapFFmpeg runs the downloader's ffmpeg self-install. Callers skip
// this when the environment signals a pre-installed ffmpeg.
func (c *Client) BootstrapFFmpeg(ctx context.Context) error {
	return c.exec(ctx, []string{"ffmpeg", "-d"})
}
