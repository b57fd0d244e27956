package archive

import (
	"reflect"
	"testing"

	"github.com/AksharDP/TwitchVodArchiver/ytdlp"
)

func TestIdentifier(t *testing.T) {
	if got := Identifier("v123"); got != "TwitchVod-v123" {
		t.Fatalf("Identifier = %q, want TwitchVod-v123", got)
	}
	if got := Identifier("2295756722"); got != "TwitchVod-2295756722" {
		t.Fatalf("Identifier = %q", got)
	}
}

func TestSynthesize(t *testing.T) {
	detail := &ytdlp.VideoDetail{
		ID:         "v123",
		URL:        "https://www.twitch.tv/videos/v123",
		FullTitle:  "Morning Stream",
		UploaderID: "alice",
		UploadDate: "20240102",
		Chapters: []ytdlp.Chapter{
			{StartTime: 0, Title: "Intro"},
			{StartTime: 90, Title: "GamePlay"},
		},
	}
	md := Synthesize(detail)
	if md.Date != "2024-01-02" {
		t.Errorf("Date = %q, want 2024-01-02", md.Date)
	}
	if md.Description != "00:00:00 - Intro\n00:01:30 - GamePlay" {
		t.Errorf("Description = %q", md.Description)
	}
	if !reflect.DeepEqual(md.Game, []string{"Intro", "GamePlay"}) {
		t.Errorf("Game = %v", md.Game)
	}
	if md.Title != "Morning Stream" || md.Creator != "alice" {
		t.Errorf("Title/Creator = %q/%q", md.Title, md.Creator)
	}
	if md.Mediatype != "movies" || md.Language != "eng" {
		t.Errorf("fixed fields = %q/%q", md.Mediatype, md.Language)
	}
	if !reflect.DeepEqual(md.Subject, []string{"Twitch", "Twitch Vod", "Twitch Chat"}) {
		t.Errorf("Subject = %v", md.Subject)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	detail := &ytdlp.VideoDetail{
		FullTitle:  "Run",
		UploaderID: "bob",
		UploadDate: "20231225",
		Chapters: []ytdlp.Chapter{
			{StartTime: 0, Title: "Just Chatting"},
			{StartTime: 3600, Title: "Slay the Spire"},
			{StartTime: 7261, Title: "Just Chatting"},
		},
	}
	a := Synthesize(detail)
	b := Synthesize(detail)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("synthesize not deterministic: %+v vs %+v", a, b)
	}
	// Duplicate chapter titles collapse in the game set but stay in the
	// description.
	if !reflect.DeepEqual(a.Game, []string{"Just Chatting", "Slay the Spire"}) {
		t.Errorf("Game = %v", a.Game)
	}
	if a.Description != "00:00:00 - Just Chatting\n01:00:00 - Slay the Spire\n02:01:01 - Just Chatting" {
		t.Errorf("Description = %q", a.Description)
	}
}

func TestSynthesizeNoChapters(t *testing.T) {
	md := Synthesize(&ytdlp.VideoDetail{FullTitle: "t", UploaderID: "u", UploadDate: "20240101"})
	if md.Description != "" {
		t.Errorf("Description = %q, want empty", md.Description)
	}
	if len(md.Game) != 0 {
		t.Errorf("Game = %v, want empty", md.Game)
	}
}

func TestFormatDatePassthrough(t *testing.T) {
	if got := formatDate("not-a-date"); got != "not-a-date" {
		t.Fatalf("formatDate passthrough = %q", got)
	}
}

func TestElapsed(t *testing.T) {
	cases := map[int]string{0: "00:00:00", 90: "00:01:30", 3723: "01:02:03", 36000: "10:00:00"}
	for in, want := range cases {
		if got := elapsed(in); got != want {
			t.Errorf("elapsed(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestMetadataEqual(t *testing.T) {
	base := Metadata{
		Title: "t", Mediatype: "movies", Creator: "c", Description: "d",
		Date: "2024-01-02", Subject: []string{"Twitch"}, Language: "eng",
		Game: []string{"A", "B"},
	}
	same := base
	same.Game = []string{"B", "A", "B"} // set semantics: order and dupes ignored
	if !base.Equal(same) {
		t.Error("expected equal despite game ordering")
	}
	drift := base
	drift.Game = []string{"A"}
	if base.Equal(drift) {
		t.Error("expected drift in game to be detected")
	}
	drift = base
	drift.Description = "other"
	if base.Equal(drift) {
		t.Error("expected drift in description to be detected")
	}
}
