// Package archive holds the Internet Archive record model, the pure metadata
// synthesizer, and the registry client used for existence checks, uploads and
// metadata reconciliation.
package archive

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/AksharDP/TwitchVodArchiver/ytdlp"
)

// Metadata is the archive record for one VOD. Field names and fixed values
// are the wire contract with existing archive entries; changing them would
// break verification against items uploaded by earlier runs.
type Metadata struct {
	Title       string   `json:"title"`
	Mediatype   string   `json:"mediatype"`
	Creator     string   `json:"creator"`
	Description string   `json:"description"`
	Date        string   `json:"date"` // YYYY-MM-DD
	Subject     []string `json:"subject"`
	Language    string   `json:"language"`
	Game        []string `json:"game"`
}

// Identifier derives the archive's primary key for a canonical video id.
// The format is the system's idempotency key and must not change.
func Identifier(videoID string) string {
	return "TwitchVod-" + videoID
}

// Synthesize derives the archive record from extracted VOD detail. It is
// pure and deterministic, and is the single derivation used by both the
// upload and verification paths so the two can never disagree.
func Synthesize(detail *ytdlp.VideoDetail) Metadata {
	lines := make([]string, 0, len(detail.Chapters))
	games := make([]string, 0, len(detail.Chapters))
	seen := make(map[string]bool, len(detail.Chapters))
	for _, ch := range detail.Chapters {
		lines = append(lines, fmt.Sprintf("%s - %s", elapsed(int(ch.StartTime)), ch.Title))
		if !seen[ch.Title] {
			seen[ch.Title] = true
			games = append(games, ch.Title)
		}
	}
	return Metadata{
		Title:       detail.FullTitle,
		Mediatype:   "movies",
		Creator:     detail.UploaderID,
		Description: strings.Join(lines, "\n"),
		Date:        formatDate(detail.UploadDate),
		Subject:     []string{"Twitch", "Twitch Vod", "Twitch Chat"},
		Language:    "eng",
		Game:        games,
	}
}

// elapsed renders a chapter offset in seconds as zero-padded HH:MM:SS
// elapsed time (not wall clock).
func elapsed(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

// formatDate reformats YYYYMMDD to YYYY-MM-DD. Unparseable input passes
// through unchanged so a malformed upstream date never aborts processing.
func formatDate(yyyymmdd string) string {
	t, err := time.Parse("20060102", yyyymmdd)
	if err != nil {
		return yyyymmdd
	}
	return t.Format("2006-01-02")
}

// Equal reports whether two records match field for field. Game is a set:
// order and duplicates are not significant.
func (m Metadata) Equal(o Metadata) bool {
	return m.Title == o.Title &&
		m.Mediatype == o.Mediatype &&
		m.Creator == o.Creator &&
		m.Description == o.Description &&
		m.Date == o.Date &&
		m.Language == o.Language &&
		equalList(m.Subject, o.Subject) &&
		equalSet(m.Game, o.Game)
}

func equalList(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalSet(a, b []string) bool {
	as := dedupSorted(a)
	bs := dedupSorted(b)
	return equalList(as, bs)
}

func dedupSorted(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
