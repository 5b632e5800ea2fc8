package playlist

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mpdspl/mpdspl/internal/library"
	"github.com/mpdspl/mpdspl/internal/rule"
)

var refNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func sampleDB() *library.Database {
	return library.NewDatabase([]library.Track{
		library.NewTrack(map[string]string{"file": "c.mp3", "artist": "Fred", "album": "B", "title": "a"}),
		library.NewTrack(map[string]string{"file": "a.mp3", "artist": "Fred", "album": "A", "title": "z"}),
		library.NewTrack(map[string]string{"file": "g.mp3", "artist": "George", "album": "A", "title": "when"}),
		library.NewTrack(map[string]string{"file": "r.mp3", "artist": "Ringo", "album": "A", "title": "b"}),
		library.NewTrack(map[string]string{"file": "dup.mp3", "artist": "Fred", "album": "A", "title": "z"}),
	})
}

func files(tracks []library.Track) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.File()
	}
	return out
}

func TestEvaluateSortsByArtistAlbumTitle(t *testing.T) {
	rs, err := rule.ParseRulesetAt("ar=/Fred/", refNow)
	if err != nil {
		t.Fatalf("ParseRulesetAt returned error: %v", err)
	}

	got := files(Evaluate(rs, sampleDB()))
	want := []string{"a.mp3", "dup.mp3", "c.mp3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Evaluate = %v, want %v", got, want)
	}
}

func TestEvaluateConjunction(t *testing.T) {
	rs, err := rule.ParseRulesetAt("ar=/(Fred|George)/,ti!/when/i", refNow)
	if err != nil {
		t.Fatalf("ParseRulesetAt returned error: %v", err)
	}
	got := files(Evaluate(rs, sampleDB()))
	want := []string{"a.mp3", "dup.mp3", "c.mp3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("Evaluate = %v, want %v", got, want)
	}
}

func TestEvaluateEmptyRulesetMatchesAll(t *testing.T) {
	got := Evaluate(rule.Ruleset{}, sampleDB())
	if len(got) != 5 {
		t.Fatalf("expected every track, got %d", len(got))
	}
}

func TestRender(t *testing.T) {
	if Render(nil) != "" {
		t.Fatalf("empty result must render as empty string")
	}
	rs, _ := rule.ParseRulesetAt("ar=/Ringo|George/", refNow)
	if got, want := Render(Evaluate(rs, sampleDB())), "g.mp3\nr.mp3\n"; got != want {
		t.Fatalf("Render = %q, want %q", got, want)
	}
}

func TestPlaylistLifecycle(t *testing.T) {
	p, err := New("fred", "ar=/Fred/", refNow)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if p.Evaluated() || p.M3U() != "" {
		t.Fatalf("new playlist must be unevaluated")
	}
	p.Evaluate(sampleDB())
	if !p.Evaluated() || len(p.Tracks()) != 3 {
		t.Fatalf("unexpected evaluation: %v", files(p.Tracks()))
	}

	if _, err := New("bad", "ar=(Fred/", refNow); !errors.Is(err, rule.ErrRuleSyntax) {
		t.Fatalf("expected syntax error, got %v", err)
	}
}

func TestEvaluateAll(t *testing.T) {
	texts := []string{"ar=/Fred/", "ar=/George/", "ar=/Ringo/", "ti=/nothing/", ""}
	var playlists []*Playlist
	for i, text := range texts {
		p, err := New(fmt.Sprintf("p%d", i), text, refNow)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		playlists = append(playlists, p)
	}

	if err := EvaluateAll(context.Background(), playlists, sampleDB(), 2); err != nil {
		t.Fatalf("EvaluateAll returned error: %v", err)
	}
	counts := []int{3, 1, 1, 0, 5}
	for i, p := range playlists {
		if !p.Evaluated() || len(p.Tracks()) != counts[i] {
			t.Fatalf("%s: evaluated=%v tracks=%d, want %d", p.Name, p.Evaluated(), len(p.Tracks()), counts[i])
		}
	}
}

func TestEvaluateAllCancelled(t *testing.T) {
	p, _ := New("p", "ar=/Fred/", refNow)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := EvaluateAll(ctx, []*Playlist{p}, sampleDB(), 1); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
