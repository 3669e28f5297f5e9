// Package workspace manages the on-disk layout: one base directory with a
// project per manuscript, each holding its cache database and latest report.
package workspace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const BaseDirName = "SpeechTracker"

// Project locates one manuscript's working files. ID is stable for a title,
// so re-analyses of the same book share cache rows.
type Project struct {
	ID        string
	Root      string
	CachePath string
	ReportPath string
}

func EnsureDefault() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home: %w", err)
	}
	return EnsureAt(filepath.Join(home, BaseDirName))
}

func EnsureAt(base string) (string, error) {
	if err := os.MkdirAll(filepath.Join(base, "projects"), 0o755); err != nil {
		return "", fmt.Errorf("mkdir workspace: %w", err)
	}
	return base, nil
}

// OpenProject creates (or reuses) the project directory for a title.
func OpenProject(base, title string) (*Project, error) {
	id := titleHash(title)
	root := filepath.Join(base, "projects", id)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}
	return &Project{
		ID:         id,
		Root:       root,
		CachePath:  filepath.Join(root, "cache.db"),
		ReportPath: filepath.Join(root, "report.json"),
	}, nil
}

func titleHash(title string) string {
	trimmed := strings.TrimSpace(strings.ToLower(title))
	sum := sha256.Sum256([]byte(trimmed))
	return hex.EncodeToString(sum[:])[:12]
}
