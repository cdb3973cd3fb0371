// Package local implements the vfs.Provider on top of an afero file system.
// With the OS file system it uses sparse aware copies and real hard links.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"
	"github.com/spf13/afero"

	"github.com/slok/fmsched/internal/conventions"
	"github.com/slok/fmsched/internal/log"
	"github.com/slok/fmsched/internal/model"
	"github.com/slok/fmsched/internal/utils/file"
	"github.com/slok/fmsched/internal/vfs"
)

// ProviderConfig is the configuration of the local provider.
type ProviderConfig struct {
	// FS is the backing file system, defaults to the OS one.
	FS afero.Fs
	// TrashDir is the freedesktop trash directory used for recoverable removals.
	TrashDir string
	Logger   log.Logger
}

func (c *ProviderConfig) defaults() error {
	if c.FS == nil {
		c.FS = afero.NewOsFs()
	}

	if c.TrashDir == "" {
		c.TrashDir = conventions.DefaultTrashDir()
	}
	if !filepath.IsAbs(c.TrashDir) {
		return fmt.Errorf("trash dir must be absolute: %q", c.TrashDir)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "vfs.Local"})

	return nil
}

// Provider is the local file system provider.
type Provider struct {
	fs       afero.Fs
	osFS     bool
	trashDir string
	logger   log.Logger
}

var _ vfs.Provider = &Provider{}

// NewProvider returns a new local provider.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	_, osFS := cfg.FS.(*afero.OsFs)

	return &Provider{
		fs:       cfg.FS,
		osFS:     osFS,
		trashDir: cfg.TrashDir,
		logger:   cfg.Logger,
	}, nil
}

func (p *Provider) Stat(ctx context.Context, path string, follow bool) (fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := p.stat(path, follow)
	if err != nil {
		return nil, vfs.Classify(err)
	}
	return info, nil
}

func (p *Provider) stat(path string, follow bool) (fs.FileInfo, error) {
	if follow {
		return p.fs.Stat(path)
	}
	if l, ok := p.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return p.fs.Stat(path)
}

// ReadDir returns the directory entries in natural order (`a2` before `a10`).
func (p *Provider) ReadDir(ctx context.Context, path string) ([]fs.FileInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	infos, err := afero.ReadDir(p.fs, path)
	if err != nil {
		return nil, vfs.Classify(err)
	}
	sort.SliceStable(infos, func(i, j int) bool { return natural.Less(infos[i].Name(), infos[j].Name()) })

	return infos, nil
}

func (p *Provider) Mkdir(ctx context.Context, path string, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return vfs.Classify(p.fs.MkdirAll(path, perm))
}

func (p *Provider) Copy(ctx context.Context, src, dst string, opts vfs.CopyOpts) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	info, err := p.stat(src, opts.Follow)
	if err != nil {
		return 0, vfs.Classify(err)
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := p.ReadLink(ctx, src)
		if err != nil {
			return 0, err
		}
		if err := p.symlink(target, dst, opts.Force); err != nil {
			return 0, err
		}
		return 0, nil
	case info.Mode().IsRegular():
	default:
		return 0, fmt.Errorf("can't copy %q with mode %s: %w", src, info.Mode().Type(), model.ErrNotSupported)
	}

	if p.osFS {
		n, err := file.Copy(ctx, src, dst, file.CopyOpts{Overwrite: opts.Force, OnProgress: opts.OnProgress})
		return n, vfs.Classify(err)
	}

	n, err := p.copyAfero(ctx, src, dst, info, opts)
	return n, vfs.Classify(err)
}

func (p *Provider) copyAfero(ctx context.Context, src, dst string, info fs.FileInfo, opts vfs.CopyOpts) (n int64, err error) {
	in, err := p.fs.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if opts.Force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := p.fs.OpenFile(dst, flags, info.Mode().Perm())
	if err != nil {
		return 0, err
	}
	defer func() {
		cerr := out.Close()
		if err == nil {
			err = cerr
		}
		if err != nil {
			_ = p.fs.Remove(dst)
		}
	}()

	buf := make([]byte, 256*1024)
	for {
		if err := ctx.Err(); err != nil {
			return n, err
		}

		rn, rerr := in.Read(buf)
		if rn > 0 {
			if _, err := out.Write(buf[:rn]); err != nil {
				return n, err
			}
			n += int64(rn)
			if opts.OnProgress != nil {
				opts.OnProgress(int64(rn))
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return n, rerr
		}
	}

	_ = p.fs.Chtimes(dst, info.ModTime(), info.ModTime())
	return n, nil
}

func (p *Provider) Rename(ctx context.Context, src, dst string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return vfs.Classify(p.fs.Rename(src, dst))
}

func (p *Provider) Remove(ctx context.Context, path string, opts vfs.RemoveOpts) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if opts.Permanently {
		return vfs.Classify(p.fs.Remove(path))
	}

	return p.trash(ctx, path)
}

func (p *Provider) Link(ctx context.Context, src, dst string, opts vfs.LinkOpts) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := src
	if opts.Relative {
		target = vfs.RelativeTo(src, filepath.Dir(dst))
	}
	return p.symlink(target, dst, opts.Force)
}

func (p *Provider) Hardlink(ctx context.Context, src, dst string, opts vfs.LinkOpts) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.osFS {
		return fmt.Errorf("hard links on %s: %w", p.fs.Name(), model.ErrNotSupported)
	}

	if opts.Force {
		if err := p.removeExisting(dst); err != nil {
			return err
		}
	}
	return vfs.Classify(os.Link(src, dst))
}

func (p *Provider) ReadLink(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	r, ok := p.fs.(afero.LinkReader)
	if !ok {
		return "", fmt.Errorf("symlinks on %s: %w", p.fs.Name(), model.ErrNotSupported)
	}
	target, err := r.ReadlinkIfPossible(path)
	if err != nil {
		return "", vfs.Classify(err)
	}
	return target, nil
}

func (p *Provider) symlink(target, dst string, force bool) error {
	l, ok := p.fs.(afero.Linker)
	if !ok {
		return fmt.Errorf("symlinks on %s: %w", p.fs.Name(), model.ErrNotSupported)
	}

	if force {
		if err := p.removeExisting(dst); err != nil {
			return err
		}
	}
	return vfs.Classify(l.SymlinkIfPossible(target, dst))
}

func (p *Provider) removeExisting(path string) error {
	if _, err := p.stat(path, false); err != nil {
		return nil
	}
	return vfs.Classify(p.fs.Remove(path))
}
