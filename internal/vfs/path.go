package vfs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/slok/fmsched/internal/model"
)

// UniquePath returns path if nothing exists there, otherwise the first free
// `name_N.ext` sibling.
func UniquePath(ctx context.Context, p Provider, path string) (string, error) {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// Dot files like `.bashrc`.
		stem, ext = base, ""
	}

	candidate := path
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		_, err := p.Stat(ctx, candidate, false)
		if errors.Is(Classify(err), model.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("could not check %q: %w", candidate, err)
		}

		candidate = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
	}
}

// IsNested returns true if child is the same path as parent or is inside it.
func IsNested(parent, child string) bool {
	parent, child = filepath.Clean(parent), filepath.Clean(child)
	if parent == child {
		return true
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RelativeTo returns the path of target relative to the directory dir, both absolute.
func RelativeTo(target, dir string) string {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return target
	}
	return rel
}
