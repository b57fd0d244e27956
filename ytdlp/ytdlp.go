// Package ytdlp wraps the yt-dlp executable for Twitch metadata extraction
// and VOD media download. Listing and per-video detail extraction apply a
// bounded internal retry with backoff so callers never see transient network
// blips; media download delegates transient retries to yt-dlp itself.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// VideoSummary is one entry of a channel's VOD listing. ID is the raw
// provider id and still carries the one-character platform prefix.
type VideoSummary struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Chapter is a labeled offset within a VOD.
type Chapter struct {
	StartTime float64 `json:"start_time"`
	Title     string  `json:"title"`
}

// VideoDetail is the full extracted record for a single VOD. It is never
// persisted; it lives for the duration of one video's processing.
type VideoDetail struct {
	ID         string    `json:"id"`
	URL        string    `json:"webpage_url"`
	FullTitle  string    `json:"fulltitle"`
	UploaderID string    `json:"uploader_id"`
	UploadDate string    `json:"upload_date"` // YYYYMMDD
	IsLive     bool      `json:"is_live"`
	Chapters   []Chapter `json:"chapters"`
}

// VideoID strips the one-character platform prefix from a raw listing id,
// yielding the canonical id used for archive identifiers and filenames.
func VideoID(raw string) string {
	if len(raw) < 2 {
		return raw
	}
	return raw[1:]
}

// WatchURL returns the human-viewable URL for a raw listing id, used in
// failure logs so a VOD can be investigated manually.
func WatchURL(rawID string) string {
	return "https://www.twitch.tv/videos/" + rawID
}

// ExtractionError indicates channel or video metadata could not be extracted
// after the adapter's retry budget was spent.
type ExtractionError struct {
	Target string // channel name or video URL/id
	Err    error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract %s: %v", e.Target, e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// VideoDownloadError indicates a media download invocation failed.
type VideoDownloadError struct {
	URL string
	Err error
}

func (e *VideoDownloadError) Error() string { return fmt.Sprintf("download %s: %v", e.URL, e.Err) }
func (e *VideoDownloadError) Unwrap() error { return e.Err }

// runCmd executes bin with args and returns stdout. stderr is folded into the
// error so failure logs carry yt-dlp's own diagnostic line.
func runCmd(ctx context.Context, bin string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return stdout.Bytes(), nil
}
