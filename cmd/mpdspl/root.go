package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/mpdspl/mpdspl/internal/config"
	"github.com/mpdspl/mpdspl/internal/database"
	"github.com/mpdspl/mpdspl/internal/keyword"
	"github.com/mpdspl/mpdspl/internal/library"
	"github.com/mpdspl/mpdspl/internal/logging"
	"github.com/mpdspl/mpdspl/internal/rule"
	"github.com/mpdspl/mpdspl/internal/usecase"
)

var rootCmd = &cobra.Command{
	Use:               "mpdspl",
	Short:             "mpdspl - smart playlists for MPD",
	Long:              longHelp(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setupApp,
}

// app holds what every subcommand shares once flags are parsed.
var app struct {
	cfg    *config.Config
	logger zerolog.Logger
}

var (
	settingsFile string
	verbose      bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&settingsFile, "config", "", "Settings file (default $XDG_CONFIG_HOME/mpdspl/config.yaml)")
	pf.String("mpd-config", "", "MPD config file (default "+config.DefaultMPDConfig+")")
	pf.String("mpd-user", "", "User whose home directory expands ~ in the MPD config")
	pf.String("cache-file", "", "Library cache file")
	pf.String("data-dir", "", "Directory holding the playlist registry")
	pf.String("db-file", "", "MPD database dump")
	pf.String("sticker-file", "", "MPD sticker database with track ratings")
	pf.String("stats-file", "", "mpd_stats database with ratings and play counts")
	pf.String("playlist-dir", "", "Directory the playlists are written to")
	pf.Int("workers", 0, "Playlists evaluated in parallel (default number of CPUs)")
	pf.String("log-level", "", "Log level: debug, info, warn or error")
	pf.BoolVar(&verbose, "verbose", false, "Log at debug level")

	rootCmd.Version = version
	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newKeywordsCmd())
	rootCmd.AddCommand(newRefreshCmd())
	rootCmd.AddCommand(newMCPCmd())
}

func setupApp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.LoadOptions{
		SettingsFile: settingsFile,
		Flags:        cmd.Flags(),
	})
	if err != nil {
		return err
	}

	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger, err := logging.Setup(level)
	if err != nil {
		return err
	}

	app.cfg = cfg
	app.logger = logger
	logger.Debug().
		Str("db_file", cfg.DBFile).
		Str("cache_file", cfg.CacheFile).
		Str("playlist_dir", cfg.PlaylistDir).
		Msg("configuration loaded")
	return nil
}

// libraryInput describes where the track database comes from. It fails when
// the settings a library load needs are missing.
func libraryInput(force bool) (usecase.LoadInput, error) {
	if err := app.cfg.Validate(); err != nil {
		return usecase.LoadInput{}, err
	}
	ratings, err := library.NewRatingsSource(app.cfg.StickerFile, app.cfg.StatsFile)
	if err != nil {
		return usecase.LoadInput{}, err
	}
	return usecase.LoadInput{
		DumpPath:  app.cfg.DBFile,
		CachePath: app.cfg.CacheFile,
		Ratings:   ratings,
		Force:     force,
	}, nil
}

func openRegistry() (*database.Context, error) {
	return database.CreateDatabase(app.cfg.RegistryPath())
}

func longHelp() string {
	var b strings.Builder
	b.WriteString("mpdspl builds smart playlists from the MPD database.\n\n")
	b.WriteString("A ruleset is a comma separated list of rules; a track must match every rule.\n")
	b.WriteString("Each rule has the form\n\n")
	b.WriteString("  <keyword><operator><delimiter><value><delimiter><flags>\n\n")
	b.WriteString("where the operator is one of = ! < <= > >= and the delimiter selects\n")
	b.WriteString("how the value is compared:\n\n")
	for _, line := range rule.Syntax() {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	b.WriteString("\nRegex flags: i ignores case, l normalises unicode before matching.\n")
	b.WriteString("The flag n negates any rule.\n\n")
	b.WriteString("Example: ar=/(Fred|George)/i,ra>=#4#,mt<=%2weeks%\n\n")
	b.WriteString("Keywords:\n\n")

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateHeader = false
	t.AppendHeader(table.Row{"Code", "Attribute", "Description"})
	for _, kw := range keyword.All() {
		t.AppendRow(table.Row{kw.Code, kw.Canonical, kw.Description})
	}
	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}
