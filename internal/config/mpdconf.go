package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"unicode"
)

// MPDConf holds the settings of an MPD daemon config file, keyed by lower
// camel case names (db_file becomes dbFile).
type MPDConf map[string]string

// DBFile returns the db_file setting.
func (c MPDConf) DBFile() string { return c["dbFile"] }

// StickerFile returns the sticker_file setting.
func (c MPDConf) StickerFile() string { return c["stickerFile"] }

// PlaylistDirectory returns the playlist_directory setting.
func (c MPDConf) PlaylistDirectory() string { return c["playlistDirectory"] }

// ReadMPDConf parses the MPD config file at path. See ParseMPDConf.
func ReadMPDConf(path, mpdUser string) (MPDConf, error) {
	//nolint:gosec // G304: path comes from configuration
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MPD config: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	conf, err := ParseMPDConf(f, mpdUser)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return conf, nil
}

// ParseMPDConf reads `name "value"` lines. Lines holding '#', '{' or '}' are
// skipped, so comments and block delimiters never produce settings. A '~' in a
// path expands to the home directory of mpdUser, or of the current user when
// mpdUser is empty.
func ParseMPDConf(r io.Reader, mpdUser string) (MPDConf, error) {
	conf := make(MPDConf)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.ContainsAny(line, "#{}") {
			continue
		}

		cut := strings.IndexFunc(line, unicode.IsSpace)
		if cut < 0 {
			continue
		}
		key := underscoreToCamel(line[:cut])
		value := strings.TrimSpace(line[cut:])
		value = strings.TrimPrefix(value, `"`)
		value = strings.TrimSuffix(value, `"`)

		if value == "~" || strings.Contains(value, "~/") {
			home, err := homeOf(mpdUser)
			if err != nil {
				return nil, err
			}
			value = strings.ReplaceAll(value, "~", home)
		}
		conf[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return conf, nil
}

func underscoreToCamel(s string) string {
	parts := strings.Split(s, "_")
	var b strings.Builder
	b.WriteString(parts[0])
	for _, p := range parts[1:] {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

func homeOf(name string) (string, error) {
	if name == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand ~: %w", err)
		}
		return filepath.Clean(home), nil
	}
	u, err := user.Lookup(name)
	if err != nil {
		return "", fmt.Errorf("failed to expand ~ for MPD user %q: %w", name, err)
	}
	return filepath.Clean(u.HomeDir), nil
}
