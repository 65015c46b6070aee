package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/jonwraymond/surcharge/observe"
	"github.com/jonwraymond/surcharge/stress"
)

const (
	npzExt = ".npz"
	// entryMode matches what os.Create would give a cache entry; CreateTemp
	// opens its files 0600.
	entryMode fs.FileMode = 0o644
)

// DiskTier persists fields as .npz files in one directory. Writes go to a
// temporary file in the same directory which is fsynced and renamed over the
// final name, so concurrent readers in other processes only ever see
// complete files.
type DiskTier struct {
	dir    string
	logger observe.Logger
}

// DiskOption configures a DiskTier.
type DiskOption func(*DiskTier)

// WithDiskLogger sets the logger used for I/O diagnostics.
func WithDiskLogger(l observe.Logger) DiskOption {
	return func(d *DiskTier) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDiskTier creates the directory if needed and returns a tier rooted there.
func NewDiskTier(dir string, opts ...DiskOption) (*DiskTier, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("%w: empty cache directory", ErrDiskUnavailable)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDiskUnavailable, err)
	}
	d := &DiskTier{dir: dir, logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Name returns "disk".
func (d *DiskTier) Name() string { return "disk" }

// Dir returns the cache directory.
func (d *DiskTier) Dir() string { return d.dir }

// Path returns the file path for key.
func (d *DiskTier) Path(key Key) string {
	return filepath.Join(d.dir, key.FileName())
}

// Get reads the field for key. A missing file is ErrNotFound; an unreadable
// one wraps ErrCorrupt.
func (d *DiskTier) Get(ctx context.Context, key Key) (*stress.Field, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := d.Path(key)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("cache: stat %s: %w", path, err)
	}

	field, err := readNPZ(f, info.Size())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	d.logger.Debug(ctx, "disk cache read",
		observe.Field{Key: "path", Value: path},
		observe.Field{Key: "size", Value: humanize.Bytes(uint64(info.Size()))},
	)
	return field, nil
}

// Set writes field atomically under key.
func (d *DiskTier) Set(ctx context.Context, key Key, field *stress.Field) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if field == nil {
		return errors.New("cache: nil field")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := d.Path(key)
	size, err := d.writeAtomic(path, field)
	if err != nil {
		return err
	}

	d.logger.Debug(ctx, "disk cache write",
		observe.Field{Key: "path", Value: path},
		observe.Field{Key: "size", Value: humanize.Bytes(uint64(size))},
	)
	return nil
}

func (d *DiskTier) writeAtomic(path string, field *stress.Field) (size int64, err error) {
	tmp, err := os.CreateTemp(d.dir, ".tmp-*"+npzExt)
	if err != nil {
		return 0, fmt.Errorf("cache: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = writeNPZ(tmp, field); err != nil {
		return 0, err
	}
	if err = tmp.Chmod(entryMode); err != nil {
		return 0, fmt.Errorf("cache: chmod %s: %w", tmp.Name(), err)
	}
	if err = tmp.Sync(); err != nil {
		return 0, fmt.Errorf("cache: sync %s: %w", tmp.Name(), err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return 0, fmt.Errorf("cache: stat %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return 0, fmt.Errorf("cache: close %s: %w", tmp.Name(), err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("cache: rename into %s: %w", path, err)
	}
	return info.Size(), nil
}

// Delete removes the file for key. Idempotent - no error on miss.
func (d *DiskTier) Delete(_ context.Context, key Key) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(d.Path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

// Usage reports the number and total size of cache files.
func (d *DiskTier) Usage() (files int, bytes int64, err error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("cache: read %s: %w", d.dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), npzExt) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files++
		bytes += info.Size()
	}
	return files, bytes, nil
}

// Probe checks that the directory accepts the same create, sync, rename and
// remove sequence used by Set.
func (d *DiskTier) Probe(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(d.dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDiskUnavailable, err)
	}
	name := tmp.Name()
	defer os.Remove(name)

	_, werr := tmp.Write([]byte("probe"))
	serr := tmp.Sync()
	cerr := tmp.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		return fmt.Errorf("%w: %v", ErrDiskUnavailable, err)
	}

	final := name + ".done"
	if err := os.Rename(name, final); err != nil {
		return fmt.Errorf("%w: %v", ErrDiskUnavailable, err)
	}
	if err := os.Remove(final); err != nil {
		return fmt.Errorf("%w: %v", ErrDiskUnavailable, err)
	}
	return nil
}

var _ Tier = (*DiskTier)(nil)
