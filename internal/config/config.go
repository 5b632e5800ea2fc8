// Package config resolves where mpdspl reads and writes its files, merging
// built-in XDG defaults, the optional settings file, MPDSPL_* environment
// variables, command-line flags and the MPD daemon's own configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const appName = "mpdspl"

// DefaultMPDConfig is where the MPD daemon keeps its configuration.
const DefaultMPDConfig = "/etc/mpd.conf"

// GetDataDir resolves the directory holding the playlist registry. MPDSPL_DIR
// wins over the XDG data home.
func GetDataDir() string {
	if explicit := os.Getenv("MPDSPL_DIR"); explicit != "" {
		return explicit
	}

	xdg.Reload()
	return filepath.Join(baseDir(xdg.DataHome, ".local", "share"), appName)
}

// GetDBPath returns the path of the playlist registry database.
func GetDBPath() string {
	return filepath.Join(GetDataDir(), "playlists.db")
}

// GetCachePath returns the default location of the library cache.
func GetCachePath() string {
	xdg.Reload()
	return filepath.Join(baseDir(xdg.CacheHome, ".cache"), appName, "mpddb.cache")
}

// GetSettingsPath returns the default location of the settings file.
func GetSettingsPath() string {
	xdg.Reload()
	return filepath.Join(baseDir(xdg.ConfigHome, ".config"), appName, "config.yaml")
}

func baseDir(xdgDir string, fallback ...string) string {
	if xdgDir != "" {
		return xdgDir
	}
	home := xdg.Home
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return os.TempDir()
		}
	}
	return filepath.Join(append([]string{home}, fallback...)...)
}

// Config is the resolved set of paths and knobs for one run.
type Config struct {
	MPDConfig   string `mapstructure:"mpd_config"`
	MPDUser     string `mapstructure:"mpd_user"`
	CacheFile   string `mapstructure:"cache_file"`
	DataDir     string `mapstructure:"data_dir"`
	DBFile      string `mapstructure:"db_file"`
	StickerFile string `mapstructure:"sticker_file"`
	StatsFile   string `mapstructure:"stats_file"`
	PlaylistDir string `mapstructure:"playlist_dir"`
	Workers     int    `mapstructure:"workers"`
	LogLevel    string `mapstructure:"log_level"`
}

// RegistryPath returns the playlist registry database inside DataDir.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.DataDir, "playlists.db")
}

// LoadOptions controls where settings come from.
type LoadOptions struct {
	// SettingsFile is an explicit settings file; it must exist when set.
	SettingsFile string
	// Flags are bound on top of the file and environment. A key such as
	// cache_file binds to the flag named cache-file when it was changed.
	Flags *pflag.FlagSet
}

var keys = []string{
	"mpd_config", "mpd_user", "cache_file", "data_dir", "db_file",
	"sticker_file", "stats_file", "playlist_dir", "workers", "log_level",
}

// Load merges defaults, the settings file, MPDSPL_* environment variables and
// flags, then fills database, sticker and playlist paths from the MPD config
// file wherever they are still unset.
func Load(opts LoadOptions) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetDefault("mpd_config", DefaultMPDConfig)
	v.SetDefault("mpd_user", "")
	v.SetDefault("cache_file", GetCachePath())
	v.SetDefault("data_dir", GetDataDir())
	v.SetDefault("db_file", "")
	v.SetDefault("sticker_file", "")
	v.SetDefault("stats_file", "")
	v.SetDefault("playlist_dir", "")
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("MPDSPL")
	v.AutomaticEnv()

	if opts.Flags != nil {
		for _, key := range keys {
			if flag := opts.Flags.Lookup(strings.ReplaceAll(key, "_", "-")); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag.Name, err)
				}
			}
		}
	}

	settings := opts.SettingsFile
	if settings == "" {
		if path := GetSettingsPath(); fileExists(path) {
			settings = path
		}
	}
	if settings != "" {
		v.SetConfigFile(settings)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read settings: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := cfg.applyMPDConf(cfg.MPDConfig != DefaultMPDConfig); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyMPDConf reads MPD's config file for values that were not set
// explicitly. A missing file is only an error when it was asked for.
func (c *Config) applyMPDConf(explicit bool) error {
	if c.MPDConfig == "" {
		return nil
	}
	path := expandHome(c.MPDConfig)
	if !fileExists(path) {
		if explicit {
			return fmt.Errorf("MPD config file %s: %w", path, os.ErrNotExist)
		}
		return nil
	}

	conf, err := ReadMPDConf(path, c.MPDUser)
	if err != nil {
		return err
	}
	if c.DBFile == "" {
		c.DBFile = conf.DBFile()
	}
	if c.StickerFile == "" && c.StatsFile == "" {
		c.StickerFile = conf.StickerFile()
	}
	if c.PlaylistDir == "" {
		c.PlaylistDir = conf.PlaylistDirectory()
	}
	return nil
}

// Validate checks the settings a generate or refresh run depends on.
func (c *Config) Validate() error {
	var errs []error
	if c.DBFile == "" {
		errs = append(errs, errors.New("no MPD database file: set db_file or point mpd_config at a file defining db_file"))
	}
	if c.StickerFile != "" && c.StatsFile != "" {
		errs = append(errs, errors.New("sticker_file and stats_file are mutually exclusive"))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
