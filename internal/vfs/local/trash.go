package local

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/vfs"
)

const trashInfoTpl = `[Trash Info]
Path=%s
DeletionDate=%s
`

// trash moves a whole entry into the freedesktop trash, writing its info file first
// so a restore always knows the original location.
func (p *Provider) trash(ctx context.Context, path string) error {
	path = filepath.Clean(path)
	if vfs.IsNested(path, p.trashDir) {
		return fmt.Errorf("can't trash %q, it contains the trash: %w", path, model.ErrNotValid)
	}

	if _, err := p.stat(path, false); err != nil {
		return vfs.Classify(err)
	}

	for _, d := range []string{conventions.TrashFilesDir, conventions.TrashInfoDir} {
		if err := p.fs.MkdirAll(filepath.Join(p.trashDir, d), 0o700); err != nil {
			return vfs.Classify(fmt.Errorf("creating trash: %w", err))
		}
	}

	name, err := p.trashName(ctx, filepath.Base(path))
	if err != nil {
		return err
	}

	info := fmt.Sprintf(trashInfoTpl, (&url.URL{Path: path}).EscapedPath(), time.Now().Format("2006-01-02T15:04:05"))
	infoPath := conventions.TrashInfoPath(p.trashDir, name)
	if err := afero.WriteFile(p.fs, infoPath, []byte(info), 0o600); err != nil {
		return vfs.Classify(fmt.Errorf("writing trash info: %w", err))
	}

	if err := p.fs.Rename(path, conventions.TrashFilePath(p.trashDir, name)); err != nil {
		_ = p.fs.Remove(infoPath)
		err = vfs.Classify(err)
		if errors.Is(err, model.ErrNotSupported) {
			return fmt.Errorf("%q is on a different device than the trash, delete it permanently: %w", path, err)
		}
		return err
	}

	p.logger.Debugf("Trashed %q as %q", path, name)
	return nil
}

// trashName returns a name that is free in both trash directories.
func (p *Provider) trashName(ctx context.Context, base string) (string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}

	name := base
	for i := 1; ; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		_, ferr := p.stat(conventions.TrashFilePath(p.trashDir, name), false)
		_, ierr := p.stat(conventions.TrashInfoPath(p.trashDir, name), false)
		if ferr != nil && ierr != nil {
			return name, nil
		}
		name = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}
