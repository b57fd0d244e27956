package chatdl

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestChatArgsContract(t *testing.T) {
	c := &Client{Bin: "/opt/TwitchDownloaderCLI"}
	args := c.chatArgs("123", "/tmp/data/123.json")
	want := []string{
		"chatdownload",
		"--id", "123",
		"--embed-images",
		"--bttv=true",
		"--ffz=true",
		"--stv=true",
		"-o", "/tmp/data/123.json",
		"--compression", "Gzip",
		"--banner", "false",
		"-t", "2",
	}
	if len(args) != len(want) {
		t.Fatalf("args = %v", args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("args[%d] = %q, want %q (full: %v)", i, args[i], want[i], args)
		}
	}
}

func TestChatArgsThreads(t *testing.T) {
	c := &Client{Threads: 8}
	args := c.chatArgs("123", "out.json")
	if args[len(args)-1] != "8" {
		t.Fatalf("thread hint = %q, want 8", args[len(args)-1])
	}
}

func TestFetchChatSuccess(t *testing.T) {
	dir := t.TempDir()
	c := &Client{
		Bin: "TwitchDownloaderCLI",
		run: func(ctx context.Context, bin string, args []string) error {
			// The downloader writes the compressed file next to -o.
			var out string
			for i, a := range args {
				if a == "-o" {
					out = args[i+1]
				}
			}
			return os.WriteFile(out+".gz", []byte("chat"), 0o644)
		},
	}
	p, err := c.FetchChat(context.Background(), "123", dir)
	if err != nil {
		t.Fatal(err)
	}
	if p != filepath.Join(dir, "123.json.gz") {
		t.Fatalf("path = %q", p)
	}
}

func TestFetchChatOutputMissing(t *testing.T) {
	c := &Client{
		Bin: "TwitchDownloaderCLI",
		run: func(ctx context.Context, bin string, args []string) error { return nil },
	}
	_, err := c.FetchChat(context.Background(), "123", t.TempDir())
	var cde *ChatDownloadError
	if !errors.As(err, &cde) {
		t.Fatalf("err = %v, want ChatDownloadError", err)
	}
	if cde.VideoID != "123" {
		t.Errorf("VideoID = %q", cde.VideoID)
	}
}

func TestFetchChatInvocationError(t *testing.T) {
	c := &Client{
		Bin: "TwitchDownloaderCLI",
		run: func(ctx context.Context, bin string, args []string) error { return errors.New("exit status 1") },
	}
	_, err := c.FetchChat(context.Background(), "123", t.TempDir())
	var cde *ChatDownloadError
	if !errors.As(err, &cde) {
		t.Fatalf("err = %v, want ChatDownloadError", err)
	}
}

func TestCacheAndBootstrapArgs(t *testing.T) {
	var got [][]string
	c := &Client{
		Bin: "TwitchDownloaderCLI",
		run: func(ctx context.Context, bin string, args []string) error {
			got = append(got, args)
			return nil
		},
	}
	if err := c.ClearCache(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := c.BootstrapFFmpeg(context.Background()); err != nil {
		t.Fatal(err)
	}
	if strings.Join(got[0], " ") != "cache --force-clear" {
		t.Errorf("cache args = %v", got[0])
	}
	if strings.Join(got[1], " ") != "ffmpeg -d" {
		t.Errorf("ffmpeg args = %v", got[1])
	}
}
