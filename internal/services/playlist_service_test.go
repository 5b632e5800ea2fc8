package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/filesystem"
	"github.com/mpdspl/mpdspl/internal/rule"
)

func setupServiceDB(t *testing.T) *database.Context {
	t.Helper()
	ctx, err := database.CreateDatabase(filepath.Join(t.TempDir(), "playlists.db"))
	if err != nil {
		t.Fatalf("CreateDatabase error: %v", err)
	}

	t.Cleanup(func() {
		if err := database.CloseDatabase(ctx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	return ctx
}

func TestPlaylistServiceRegister(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaylistService(setupServiceDB(t))
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	record, err := svc.Register(ctx, "fred", " ar=/Fred/ ", false, now)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if record.Name != "fred" || record.Ruleset != "ar=/Fred/" {
		t.Fatalf("unexpected record %+v", record)
	}

	if _, err := svc.Register(ctx, "fred", "ar=/George/", false, now); !errors.Is(err, database.ErrPlaylistExists) {
		t.Fatalf("expected ErrPlaylistExists, got %v", err)
	}

	replaced, err := svc.Register(ctx, "fred", "ar=/George/", true, now.Add(time.Hour))
	if err != nil {
		t.Fatalf("Register with replace failed: %v", err)
	}
	if replaced.ID != record.ID || replaced.Ruleset != "ar=/George/" {
		t.Fatalf("replace must keep the row and swap the ruleset: %+v", replaced)
	}

	list, err := svc.List(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one playlist, got %v (%v)", list, err)
	}
}

func TestPlaylistServiceRejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaylistService(setupServiceDB(t))

	if _, err := svc.Register(ctx, "bad", "ar=(Fred/", false, time.Now()); !errors.Is(err, rule.ErrRuleSyntax) {
		t.Fatalf("expected rule syntax error, got %v", err)
	}
	if _, err := svc.Register(ctx, "  ", "ar=/x/", false, time.Now()); err == nil {
		t.Fatalf("expected error for empty name")
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("invalid playlists must not be stored, got %v", list)
	}
}

func TestPlaylistServiceEvaluationAndRemove(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaylistService(setupServiceDB(t))
	now := time.Now().UTC().Truncate(time.Second)

	record, err := svc.Register(ctx, "rated", "ra>=#4#", false, now)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	ev := database.Evaluation{ListPath: "/lists/rated.m3u", Hash: "h", TrackCount: 2, EvaluatedAt: now}
	if err := svc.RecordEvaluation(ctx, record.ID, ev); err != nil {
		t.Fatalf("RecordEvaluation failed: %v", err)
	}
	got, err := svc.Get(ctx, "rated")
	if err != nil || got.ListPath != ev.ListPath || got.TrackCount != 2 {
		t.Fatalf("unexpected record %+v (%v)", got, err)
	}

	removed, err := svc.Remove(ctx, "rated")
	if err != nil || removed.ID != record.ID {
		t.Fatalf("Remove failed: %+v (%v)", removed, err)
	}
	if _, err := svc.Get(ctx, "rated"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	if _, err := svc.Remove(ctx, "rated"); !errors.Is(err, database.ErrNotFound) {
		t.Fatalf("expected ErrNotFound removing twice, got %v", err)
	}
}

func TestPlaylistServiceRegisterAllIsAtomic(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaylistService(setupServiceDB(t))
	now := time.Now()

	if _, err := svc.Register(ctx, "b", "ar=/George/", false, now); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	cases := []struct {
		name  string
		items []Registration
		want  error
	}{
		{"bad ruleset", []Registration{{"a", "ar=/x/"}, {"c", "xx=/y/"}}, rule.ErrUnknownAttribute},
		{"saved name", []Registration{{"a", "ar=/x/"}, {"b", "ar=/y/"}}, database.ErrPlaylistExists},
		{"path separator", []Registration{{"a", "ar=/x/"}, {"rock/80s", "ar=/y/"}}, filesystem.ErrInvalidName},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.RegisterAll(ctx, tc.items, false, now); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			list, err := svc.List(ctx)
			if err != nil || len(list) != 1 || list[0].Name != "b" {
				t.Fatalf("a failed batch must leave the registry unchanged, got %v (%v)", list, err)
			}
		})
	}

	if _, err := svc.RegisterAll(ctx, []Registration{{"x", "ar=/x/"}, {" x ", "ar=/y/"}}, false, now); err == nil {
		t.Fatalf("expected an error for a name given twice")
	}

	records, err := svc.RegisterAll(ctx, []Registration{{"a", "ar=/x/"}, {"b", "ar=/y/"}}, true, now)
	if err != nil {
		t.Fatalf("RegisterAll with replace failed: %v", err)
	}
	if len(records) != 2 || records[0].Name != "a" || records[1].Ruleset != "ar=/y/" {
		t.Fatalf("unexpected records %+v", records)
	}
}

func TestPlaylistServiceClear(t *testing.T) {
	ctx := context.Background()
	svc := NewPlaylistService(setupServiceDB(t))

	if _, err := svc.RegisterAll(ctx, []Registration{{"one", "ar=/1/"}, {"two", "ar=/2/"}}, false, time.Now()); err != nil {
		t.Fatalf("RegisterAll failed: %v", err)
	}
	removed, err := svc.Clear(ctx)
	if err != nil || len(removed) != 2 {
		t.Fatalf("Clear returned %v (%v)", removed, err)
	}
	list, _ := svc.List(ctx)
	if len(list) != 0 {
		t.Fatalf("expected empty registry, got %v", list)
	}
}
