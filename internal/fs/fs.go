// Package fs provides filesystem adapters for the export sinks.
package fs

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/engsaleh/quran-pipeline/internal/domain"
)

// OutputDir writes and reads export files under Root. Writes are atomic:
// content goes to a temporary file that is renamed over the target.
type OutputDir struct {
	Root string
}

// Path returns the absolute-or-relative path of name under Root.
func (d *OutputDir) Path(name string) string {
	return filepath.Join(d.Root, name)
}

// WriteFileImpl streams write's output to name, creating directories as
// needed, and reports the resulting artifact.
func (d *OutputDir) WriteFileImpl(ctx context.Context, name string, write func(io.Writer) error) (domain.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return domain.Artifact{}, err
	}
	dest := d.Path(name)
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Artifact{}, fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("creating temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()
	fail := func(err error) (domain.Artifact, error) {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return domain.Artifact{}, fmt.Errorf("writing %s: %w", name, err)
	}

	bw := bufio.NewWriterSize(tmp, 64<<10)
	if err := write(bw); err != nil {
		return fail(err)
	}
	if err := bw.Flush(); err != nil {
		return fail(err)
	}
	if err := tmp.Sync(); err != nil {
		return fail(err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		return fail(err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return domain.Artifact{}, fmt.Errorf("writing %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return domain.Artifact{}, fmt.Errorf("replacing %s: %w", name, err)
	}
	syncDir(dir)

	info, err := os.Stat(dest)
	if err != nil {
		return domain.Artifact{}, err
	}
	return domain.Artifact{Name: name, Path: dest, Size: info.Size()}, nil
}

// WriteFile delegates to WriteFileImpl.
func (d *OutputDir) WriteFile(ctx context.Context, name string, write func(io.Writer) error) (domain.Artifact, error) {
	return d.WriteFileImpl(ctx, name, write)
}

// OpenImpl opens name for reading.
func (d *OutputDir) OpenImpl(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(d.Path(name))
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}
	return f, nil
}

// Open delegates to OpenImpl.
func (d *OutputDir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	return d.OpenImpl(ctx, name)
}

// syncDir flushes directory metadata where the platform allows it.
func syncDir(dir string) {
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
