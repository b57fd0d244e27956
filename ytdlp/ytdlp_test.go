package ytdlp

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestVideoID(t *testing.T) {
	cases := map[string]string{
		"v2295756722": "2295756722",
		"v123":        "123",
		"v":           "v",
		"":            "",
	}
	for raw, want := range cases {
		if got := VideoID(raw); got != want {
			t.Errorf("VideoID(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestListVideos(t *testing.T) {
	var gotArgs []string
	c := &Client{
		run: func(ctx context.Context, bin string, args []string) ([]byte, error) {
			gotArgs = args
			return []byte(`{"entries":[
				{"id":"v111","url":"https://www.twitch.tv/videos/v111"},
				{"id":"v222","url":"https://www.twitch.tv/videos/v222"}
			]}`), nil
		},
	}
	videos, err := c.ListVideos(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(videos) != 2 || videos[0].ID != "v111" || videos[1].URL != "https://www.twitch.tv/videos/v222" {
		t.Fatalf("videos = %+v", videos)
	}
	joined := strings.Join(gotArgs, " ")
	if !strings.Contains(joined, "--flat-playlist") {
		t.Errorf("listing must be a flat-playlist extraction: %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != "https://www.twitch.tv/alice/videos" {
		t.Errorf("target = %q", gotArgs[len(gotArgs)-1])
	}
}

func TestListVideosEmptyChannel(t *testing.T) {
	c := &Client{}
	_, err := c.ListVideos(context.Background(), "")
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
}

func TestGetVideoDetail(t *testing.T) {
	c := &Client{
		run: func(ctx context.Context, bin string, args []string) ([]byte, error) {
			return []byte(`{
				"id": "v123",
				"webpage_url": "https://www.twitch.tv/videos/v123",
				"fulltitle": "Morning Stream",
				"uploader_id": "alice",
				"upload_date": "20240102",
				"is_live": false,
				"chapters": [
					{"start_time": 0, "title": "Intro"},
					{"start_time": 90, "title": "GamePlay"}
				]
			}`), nil
		},
	}
	d, err := c.GetVideoDetail(context.Background(), "https://www.twitch.tv/videos/v123")
	if err != nil {
		t.Fatal(err)
	}
	if d.FullTitle != "Morning Stream" || d.UploaderID != "alice" || d.UploadDate != "20240102" {
		t.Fatalf("detail = %+v", d)
	}
	if len(d.Chapters) != 2 || d.Chapters[1].StartTime != 90 || d.Chapters[1].Title != "GamePlay" {
		t.Fatalf("chapters = %+v", d.Chapters)
	}
}

func TestGetVideoDetailFailure(t *testing.T) {
	calls := 0
	c := &Client{
		Attempts: 1,
		run: func(ctx context.Context, bin string, args []string) ([]byte, error) {
			calls++
			return nil, errors.New("ERROR: video unavailable")
		},
	}
	_, err := c.GetVideoDetail(context.Background(), "v999")
	var ee *ExtractionError
	if !errors.As(err, &ee) {
		t.Fatalf("err = %v, want ExtractionError", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want retry budget of 1 honored", calls)
	}
}

func TestCookiesAppliedToEveryCall(t *testing.T) {
	var gotArgs []string
	c := &Client{
		CookiesFile: "cookies.txt",
		run: func(ctx context.Context, bin string, args []string) ([]byte, error) {
			gotArgs = args
			return []byte(`{"entries":[]}`), nil
		},
	}
	if _, err := c.ListVideos(context.Background(), "alice"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(gotArgs, " "), "--cookies cookies.txt") {
		t.Errorf("cookie file not applied: %v", gotArgs)
	}
}

func TestDownloadVideoArgs(t *testing.T) {
	var gotArgs []string
	c := &Client{
		run: func(ctx context.Context, bin string, args []string) ([]byte, error) {
			gotArgs = args
			return nil, nil
		},
	}
	if err := c.DownloadVideo(context.Background(), "https://www.twitch.tv/videos/v123", "/data/123.mp4"); err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"--no-playlist", "--retries 10", "-f best", "-o /data/123.mp4"} {
		if !strings.Contains(joined, want) {
			t.Errorf("missing %q in %v", want, gotArgs)
		}
	}
	if gotArgs[len(gotArgs)-1] != "https://www.twitch.tv/videos/v123" {
		t.Errorf("target = %q", gotArgs[len(gotArgs)-1])
	}
}

func TestDownloadVideoError(t *testing.T) {
	c := &Client{
		run: func(ctx context.Context, bin string, args []string) ([]byte, error) {
			return nil, errors.New("exit status 1")
		},
	}
	err := c.DownloadVideo(context.Background(), "url", "dest")
	var vde *VideoDownloadError
	if !errors.As(err, &vde) {
		t.Fatalf("err = %v, want VideoDownloadError", err)
	}
}
