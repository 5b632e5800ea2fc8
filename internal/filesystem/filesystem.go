// Package filesystem writes, verifies and removes the m3u list files that
// playlists are materialized into.
package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ListExt is the extension of every list file.
const ListExt = ".m3u"

// ErrInvalidName indicates a playlist name that cannot become a file name.
var ErrInvalidName = errors.New("invalid playlist name")

// ListName turns a playlist name into a file name inside the playlist directory.
// Names holding a path separator are refused so that two playlists never
// share a list file.
func ListName(name string) (string, error) {
	clean := strings.TrimSpace(name)
	if clean == "" || clean == "." || clean == ".." || strings.ContainsAny(clean, "/\\\x00") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean + ListExt, nil
}

// ListPath returns where the list file of a playlist lives.
func ListPath(dir, name string) (string, error) {
	file, err := ListName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, file), nil
}

// WriteList writes content to <dir>/<name>.m3u, replacing any previous list
// atomically, and returns the file path and its SHA-256 hash.
func WriteList(dir, name, content string) (string, string, error) {
	path, err := ListPath(dir, name)
	if err != nil {
		return "", "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return "", "", err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return "", "", err
	}
	if err := tmp.Close(); err != nil {
		return "", "", err
	}
	// The music daemon usually runs as another user and must read the list.
	//nolint:gosec // G302: list files are meant to be world-readable
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return "", "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", "", err
	}

	return path, calculateHash(content), nil
}

// ReadList reads a list file and returns its contents as a string.
func ReadList(path string) (string, error) {
	//nolint:gosec // G304: path is from database, controlled by application
	bytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// ReadEntries returns the non-empty lines of a list file.
func ReadEntries(path string) ([]string, error) {
	content, err := ReadList(path)
	if err != nil {
		return nil, err
	}
	var entries []string
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			entries = append(entries, line)
		}
	}
	return entries, nil
}

// DeleteList removes a list file if it exists.
func DeleteList(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.Remove(path)
}

func listExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// VerifyList ensures the file exists and its SHA-256 hash matches the expected hash.
func VerifyList(path, expectedHash string) (bool, error) {
	if !listExists(path) {
		return false, nil
	}

	content, err := ReadList(path)
	if err != nil {
		return false, err
	}

	return calculateHash(content) == expectedHash, nil
}

func calculateHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
