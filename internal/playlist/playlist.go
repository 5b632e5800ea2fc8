// Package playlist evaluates rulesets against a library snapshot and renders
// the resulting ordered track lists.
package playlist

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mpdspl/mpdspl/internal/library"
	"github.com/mpdspl/mpdspl/internal/rule"
)

// Evaluate returns the tracks of db matching every rule, ordered by the
// concatenation of artist, album and title. Ties keep database order.
func Evaluate(rs rule.Ruleset, db *library.Database) []library.Track {
	var matched []library.Track
	for _, t := range db.Tracks() {
		if rs.Match(t) {
			matched = append(matched, t)
		}
	}
	slices.SortStableFunc(matched, func(a, b library.Track) int {
		return strings.Compare(a.SortKey(), b.SortKey())
	})
	return matched
}

// Render writes one file path per line with a trailing newline. An empty
// list renders as the empty string.
func Render(tracks []library.Track) string {
	if len(tracks) == 0 {
		return ""
	}
	var b strings.Builder
	for _, t := range tracks {
		b.WriteString(t.File())
		b.WriteByte('\n')
	}
	return b.String()
}

// Playlist is a named ruleset and, once evaluated, its matching tracks.
type Playlist struct {
	Name    string
	Ruleset rule.Ruleset
	Text    string

	tracks    []library.Track
	evaluated bool
}

// New parses rulesetText into a playlist. Time delta rules are measured from now.
func New(name, rulesetText string, now time.Time) (*Playlist, error) {
	rs, err := rule.ParseRulesetAt(rulesetText, now)
	if err != nil {
		return nil, err
	}
	return &Playlist{Name: name, Ruleset: rs, Text: rulesetText}, nil
}

// Evaluate replaces the playlist's tracks with the result against db.
func (p *Playlist) Evaluate(db *library.Database) {
	p.tracks = Evaluate(p.Ruleset, db)
	p.evaluated = true
}

// Evaluated reports whether the playlist holds a result.
func (p *Playlist) Evaluated() bool { return p.evaluated }

// Tracks returns the last evaluation result.
func (p *Playlist) Tracks() []library.Track { return p.tracks }

// M3U renders the last evaluation result as a list file.
func (p *Playlist) M3U() string { return Render(p.tracks) }

// EvaluateAll evaluates playlists concurrently against the same read-only
// database, running at most workers at a time (unbounded when workers < 1).
func EvaluateAll(ctx context.Context, playlists []*Playlist, db *library.Database, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for _, p := range playlists {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("evaluating playlist %q: %w", p.Name, err)
			}
			p.Evaluate(db)
			return nil
		})
	}
	return g.Wait()
}
