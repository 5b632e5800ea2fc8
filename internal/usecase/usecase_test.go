package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/filesystem"
	"github.com/mpdspl/mpdspl/internal/library"
)

const dump = `songList begin
key: one.mp3
file: Rock/one.mp3
Artist: Fred
Album: First
Title: Opening
key: two.mp3
file: Rock/two.mp3
Artist: George
Album: Second
Title: When it ends
key: three.mp3
file: Pop/three.mp3
Artist: Fred
Album: Another
Title: Closing
songList end
`

var refNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func writeDump(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "database")
	if err := os.WriteFile(path, []byte(dump), 0o600); err != nil {
		t.Fatalf("failed to write dump: %v", err)
	}
	return path
}

func setupDB(t *testing.T) *database.Context {
	t.Helper()
	ctx, err := database.CreateDatabase(filepath.Join(t.TempDir(), "playlists.db"))
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}
	t.Cleanup(func() {
		_ = database.CloseDatabase(ctx)
	})
	return ctx
}

func loadLibrary(t *testing.T) *library.Database {
	t.Helper()
	dir := t.TempDir()
	res, err := NewLibrary(zerolog.Nop()).Load(context.Background(), LoadInput{
		DumpPath:  writeDump(t, dir),
		CachePath: filepath.Join(dir, "mpddb.cache"),
		Now:       refNow,
	})
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return res.Database
}

func TestLibraryLoadBuildsThenUsesCache(t *testing.T) {
	dir := t.TempDir()
	input := LoadInput{
		DumpPath:  writeDump(t, dir),
		CachePath: filepath.Join(dir, "cache", "mpddb.cache"),
		Now:       refNow,
	}
	uc := NewLibrary(zerolog.Nop())

	first, err := uc.Load(context.Background(), input)
	if err != nil {
		t.Fatalf("first Load returned error: %v", err)
	}
	if !first.Rebuilt || first.Database.Len() != 3 {
		t.Fatalf("expected rebuilt database with 3 tracks, got %+v", first)
	}

	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(input.DumpPath, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	second, err := uc.Load(context.Background(), input)
	if err != nil {
		t.Fatalf("second Load returned error: %v", err)
	}
	if second.Rebuilt || second.Database.Len() != 3 {
		t.Fatalf("expected cached database, got rebuilt=%v", second.Rebuilt)
	}

	input.Force = true
	forced, err := uc.Load(context.Background(), input)
	if err != nil || !forced.Rebuilt {
		t.Fatalf("forced Load must rebuild: %+v %v", forced, err)
	}
}

func TestLibraryLoadReportsCorruptCache(t *testing.T) {
	dir := t.TempDir()
	input := LoadInput{DumpPath: writeDump(t, dir), CachePath: filepath.Join(dir, "mpddb.cache")}
	old := time.Now().Add(-time.Hour)
	if err := os.Chtimes(input.DumpPath, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}
	if err := os.WriteFile(input.CachePath, []byte("pickled"), 0o600); err != nil {
		t.Fatalf("failed to write cache: %v", err)
	}

	_, err := NewLibrary(zerolog.Nop()).Load(context.Background(), input)
	if !errors.Is(err, library.ErrStaleOrCorruptCache) {
		t.Fatalf("expected ErrStaleOrCorruptCache, got %v", err)
	}

	input.Force = true
	if _, err := NewLibrary(zerolog.Nop()).Load(context.Background(), input); err != nil {
		t.Fatalf("forced Load must recover from a corrupt cache: %v", err)
	}
}

func TestLibraryLoadMissingDump(t *testing.T) {
	_, err := NewLibrary(zerolog.Nop()).Load(context.Background(), LoadInput{DumpPath: filepath.Join(t.TempDir(), "nope")})
	if !errors.Is(err, library.ErrSourceMissing) {
		t.Fatalf("expected ErrSourceMissing, got %v", err)
	}
}

func TestGenerateOutputOnly(t *testing.T) {
	ctx := context.Background()
	dbCtx := setupDB(t)
	uc := NewPlaylists(dbCtx, zerolog.Nop())

	res, err := uc.Generate(ctx, loadLibrary(t), GenerateInput{
		New:        []NewPlaylist{{Name: "fred", Ruleset: "ar=/Fred/"}},
		OutputOnly: true,
		Now:        refNow,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(res.Playlists) != 1 {
		t.Fatalf("expected one playlist, got %d", len(res.Playlists))
	}
	if got, want := res.Playlists[0].Output, "Pop/three.mp3\nRock/one.mp3\n"; got != want {
		t.Fatalf("Output = %q, want %q", got, want)
	}

	saved, err := uc.List(ctx)
	if err != nil || len(saved) != 0 {
		t.Fatalf("output-only must not save playlists, got %v (%v)", saved, err)
	}
}

func TestGenerateWritesAndRecordsPlaylists(t *testing.T) {
	ctx := context.Background()
	uc := NewPlaylists(setupDB(t), zerolog.Nop())
	db := loadLibrary(t)
	listDir := filepath.Join(t.TempDir(), "playlists")

	first, err := uc.Generate(ctx, db, GenerateInput{
		New:         []NewPlaylist{{Name: "fred", Ruleset: "ar=/Fred/"}},
		PlaylistDir: listDir,
		Workers:     2,
		Now:         refNow,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(first.Playlists) != 1 || first.Playlists[0].Tracks != 2 {
		t.Fatalf("unexpected result %+v", first.Playlists)
	}

	second, err := uc.Generate(ctx, db, GenerateInput{
		New:         []NewPlaylist{{Name: "no-when", Ruleset: "ti!/when/i"}},
		PlaylistDir: listDir,
		Now:         refNow,
	})
	if err != nil {
		t.Fatalf("second Generate returned error: %v", err)
	}
	if len(second.Playlists) != 2 {
		t.Fatalf("saved playlists must be regenerated too, got %+v", second.Playlists)
	}

	content, err := os.ReadFile(filepath.Join(listDir, "fred.m3u"))
	if err != nil {
		t.Fatalf("expected fred.m3u: %v", err)
	}
	if string(content) != "Pop/three.mp3\nRock/one.mp3\n" {
		t.Fatalf("unexpected list content %q", content)
	}

	shown, err := uc.Show(ctx, "fred", true)
	if err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if !shown.Intact || len(shown.Entries) != 2 || shown.Record.TrackCount != 2 {
		t.Fatalf("unexpected show result %+v", shown)
	}

	_, err = uc.Generate(ctx, db, GenerateInput{
		New:         []NewPlaylist{{Name: "fred", Ruleset: "ar=/George/"}},
		PlaylistDir: listDir,
		Now:         refNow,
	})
	if !errors.Is(err, database.ErrPlaylistExists) {
		t.Fatalf("expected ErrPlaylistExists, got %v", err)
	}

	replaced, err := uc.Generate(ctx, db, GenerateInput{
		New:         []NewPlaylist{{Name: "fred", Ruleset: "ar=/George/"}},
		Replace:     true,
		PlaylistDir: listDir,
		Now:         refNow,
	})
	if err != nil {
		t.Fatalf("Generate with replace returned error: %v", err)
	}
	for _, g := range replaced.Playlists {
		if g.Name == "fred" && g.Tracks != 1 {
			t.Fatalf("replaced playlist must use the new ruleset, got %d tracks", g.Tracks)
		}
	}
}

func TestShowDetectsModifiedList(t *testing.T) {
	ctx := context.Background()
	uc := NewPlaylists(setupDB(t), zerolog.Nop())
	listDir := t.TempDir()

	res, err := uc.Generate(ctx, loadLibrary(t), GenerateInput{
		New:         []NewPlaylist{{Name: "all", Ruleset: ""}},
		PlaylistDir: listDir,
		Now:         refNow,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if err := os.WriteFile(res.Playlists[0].Path, []byte("edited\n"), 0o600); err != nil {
		t.Fatalf("failed to edit list: %v", err)
	}

	shown, err := uc.Show(ctx, "all", true)
	if err != nil {
		t.Fatalf("Show returned error: %v", err)
	}
	if shown.Intact || shown.Entries != nil {
		t.Fatalf("edited list must be reported and not read: %+v", shown)
	}
}

func TestGenerateValidation(t *testing.T) {
	ctx := context.Background()
	uc := NewPlaylists(setupDB(t), zerolog.Nop())
	db := loadLibrary(t)

	_, err := uc.Generate(ctx, db, GenerateInput{New: []NewPlaylist{{Name: "x", Ruleset: "ar=/a/"}}})
	if err == nil || !strings.Contains(err.Error(), "playlist directory") {
		t.Fatalf("expected missing playlist directory error, got %v", err)
	}

	_, err = uc.Generate(ctx, db, GenerateInput{
		New:        []NewPlaylist{{Name: "x", Ruleset: "ar=/a/"}, {Name: "x", Ruleset: "ar=/b/"}},
		OutputOnly: true,
	})
	if err == nil || !strings.Contains(err.Error(), "more than once") {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
}

func TestDeleteRemovesRecordAndList(t *testing.T) {
	ctx := context.Background()
	uc := NewPlaylists(setupDB(t), zerolog.Nop())
	listDir := t.TempDir()

	res, err := uc.Generate(ctx, loadLibrary(t), GenerateInput{
		New:         []NewPlaylist{{Name: "gone", Ruleset: "ar=/George/"}},
		PlaylistDir: listDir,
		Now:         refNow,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	path := res.Playlists[0].Path

	if _, err := uc.Delete(ctx, "gone", false); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected list file to be removed, stat err=%v", err)
	}
	if _, err := uc.Show(ctx, "gone", false); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateFailedBatchSavesNothing(t *testing.T) {
	ctx := context.Background()
	uc := NewPlaylists(setupDB(t), zerolog.Nop())
	db := loadLibrary(t)
	listDir := t.TempDir()

	if _, err := uc.Generate(ctx, db, GenerateInput{
		New:         []NewPlaylist{{Name: "b", Ruleset: "ar=/George/"}},
		PlaylistDir: listDir,
		Now:         refNow,
	}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	cases := []struct {
		name  string
		batch []NewPlaylist
	}{
		{"unknown attribute", []NewPlaylist{{Name: "a", Ruleset: "ar=/x/"}, {Name: "c", Ruleset: "xx=/y/"}}},
		{"saved name", []NewPlaylist{{Name: "a", Ruleset: "ar=/x/"}, {Name: "b", Ruleset: "ar=/y/"}}},
		{"path separator", []NewPlaylist{{Name: "a", Ruleset: "ar=/x/"}, {Name: "a/b", Ruleset: "ar=/y/"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := uc.Generate(ctx, db, GenerateInput{New: tc.batch, PlaylistDir: listDir, Now: refNow}); err == nil {
				t.Fatalf("expected the batch to fail")
			}
			saved, err := uc.List(ctx)
			if err != nil || len(saved) != 1 || saved[0].Name != "b" {
				t.Fatalf("registry must be unchanged after a failed batch, got %v (%v)", saved, err)
			}
			if _, err := os.Stat(filepath.Join(listDir, "a.m3u")); !os.IsNotExist(err) {
				t.Fatalf("no list file may be written for a failed batch, stat err=%v", err)
			}
		})
	}
}

func TestGenerateKeepsSimilarNamesApart(t *testing.T) {
	ctx := context.Background()
	uc := NewPlaylists(setupDB(t), zerolog.Nop())
	db := loadLibrary(t)
	listDir := t.TempDir()

	if _, err := uc.Generate(ctx, db, GenerateInput{
		New:         []NewPlaylist{{Name: "a-b", Ruleset: "ar=/Fred/"}},
		PlaylistDir: listDir,
		Now:         refNow,
	}); err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	_, err := uc.Generate(ctx, db, GenerateInput{
		New:         []NewPlaylist{{Name: "a/b", Ruleset: "ar=/George/"}},
		PlaylistDir: listDir,
		Now:         refNow,
	})
	if !errors.Is(err, filesystem.ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}

	shown, err := uc.Show(ctx, "a-b", true)
	if err != nil || !shown.Intact || len(shown.Entries) != 2 {
		t.Fatalf("a-b must keep its own list, got %+v (%v)", shown, err)
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	listDir := t.TempDir()

	cases := []struct {
		name     string
		keepList bool
	}{
		{"removes lists", false},
		{"keeps lists", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := NewPlaylists(setupDB(t), zerolog.Nop())
			res, err := uc.Generate(ctx, loadLibrary(t), GenerateInput{
				New:         []NewPlaylist{{Name: "fred", Ruleset: "ar=/Fred/"}, {Name: "george", Ruleset: "ar=/George/"}},
				PlaylistDir: listDir,
				Now:         refNow,
			})
			if err != nil {
				t.Fatalf("Generate returned error: %v", err)
			}

			removed, err := uc.DeleteAll(ctx, tc.keepList)
			if err != nil || len(removed) != 2 {
				t.Fatalf("DeleteAll returned %v (%v)", removed, err)
			}
			saved, _ := uc.List(ctx)
			if len(saved) != 0 {
				t.Fatalf("expected an empty registry, got %v", saved)
			}
			for _, g := range res.Playlists {
				_, err := os.Stat(g.Path)
				if tc.keepList && err != nil {
					t.Fatalf("list %s must be kept: %v", g.Path, err)
				}
				if !tc.keepList && !os.IsNotExist(err) {
					t.Fatalf("list %s must be removed, stat err=%v", g.Path, err)
				}
			}
		})
	}
}
