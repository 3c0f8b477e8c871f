// Package git provides utilities for interacting with git repositories.
package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// FileStatus represents the git status of a file.
type FileStatus struct {
	Staging  byte // Index status.
	Worktree byte // Working tree status.
}

// GetAllFileStatus returns the status of all files in the specified directory using git status --porcelain.
// The status uses two-character codes: first is staging area, second is working tree.
func GetAllFileStatus(ctx context.Context, dir string) (map[string]FileStatus, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "status", "--porcelain", "-z", "--untracked-files=all")

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("getting file status: %w", err)
	}

	return parseStatus(output), nil
}

// parseStatus decodes NUL-separated porcelain output. Renames and copies are
// followed by an extra field holding the original path, which is skipped.
func parseStatus(output []byte) map[string]FileStatus {
	status := make(map[string]FileStatus)
	skipNext := false

	entries := bytes.Split(output, []byte{0})
	for _, entry := range entries {
		if skipNext {
			skipNext = false

			continue
		}

		if len(entry) >= 4 { //nolint:mnd // Git porcelain format: 2 status chars + space + filename.
			status[string(entry[3:])] = FileStatus{
				Staging:  entry[0],
				Worktree: entry[1],
			}

			skipNext = isRenameOrCopy(entry[0]) || isRenameOrCopy(entry[1])
		}
	}

	return status
}

func isRenameOrCopy(code byte) bool {
	return code == 'R' || code == 'C'
}

// GetPrefix returns the path of dir relative to the repository root, as
// reported by git rev-parse --show-prefix. It is empty at the root.
func GetPrefix(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "rev-parse", "--show-prefix")

	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("getting repository prefix: %w", err)
	}

	return strings.TrimSpace(string(output)), nil
}

// GetStagedContent reads the staged content of a file from the git index.
// The path is relative to the repository root, as git status reports it.
func GetStagedContent(ctx context.Context, dir, path string) ([]byte, error) {
	//nolint:gosec // Path comes from git status output.
	cmd := exec.CommandContext(ctx, "git", "-C", dir, "show", ":"+path)

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("getting staged content for %s: %w", path, err)
	}

	return output, nil
}

// FilterGoFiles filters a list of files to only include .go files.
func FilterGoFiles(files []string) []string {
	var goFiles []string

	for _, f := range files {
		if strings.HasSuffix(f, ".go") {
			goFiles = append(goFiles, f)
		}
	}

	return goFiles
}

// StagedOverlay returns the index content of every tracked .go file whose
// working tree differs from the index, keyed by absolute path, so the package
// loader sees the staged snapshot. Keys are built under dir even when dir is
// a subdirectory of the repository. Untracked files cannot be hidden and are
// still loaded from the working tree.
func StagedOverlay(ctx context.Context, dir string) (map[string][]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving dir: %w", err)
	}

	statuses, err := GetAllFileStatus(ctx, absDir)
	if err != nil {
		return nil, err
	}

	prefix, err := GetPrefix(ctx, absDir)
	if err != nil {
		return nil, err
	}

	var differing []string

	for file, status := range statuses {
		if status.Staging == '?' || status.Staging == 'D' || status.Worktree == ' ' {
			continue
		}

		differing = append(differing, file)
	}

	overlay := make(map[string][]byte)

	for _, file := range FilterGoFiles(differing) {
		content, err := GetStagedContent(ctx, absDir, file)
		if err != nil {
			continue // Fall back to working tree.
		}

		// Status paths are relative to the repository root.
		rel, err := filepath.Rel(filepath.FromSlash(prefix), filepath.FromSlash(file))
		if err != nil {
			continue
		}

		overlay[filepath.Join(absDir, rel)] = content
	}

	return overlay, nil
}
