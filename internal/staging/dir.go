package staging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gofrs/flock"

	"vibemix/internal/logging"
)

// TempSuffix is appended to the sanitized title to name the staging directory.
const TempSuffix = "_temp"

// ErrLocked reports that another run holds the staging directory.
var ErrLocked = errors.New("staging directory is in use by another run")

// PathFor returns the staging directory for a sanitized title.
func PathFor(outputDir, sanitizedTitle string) string {
	return filepath.Join(outputDir, sanitizedTitle+TempSuffix)
}

// LockPathFor returns the lock file guarding a staging directory.
func LockPathFor(stagingPath string) string {
	return filepath.Join(filepath.Dir(stagingPath), "."+filepath.Base(stagingPath)+".lock")
}

// Dir is an exclusively held staging directory.
type Dir struct {
	path   string
	lock   *flock.Flock
	writer Writer
	logger *slog.Logger
}

// Create acquires the staging lock and creates an empty directory. Anything
// left at path by an earlier, interrupted run is removed first. It fails with
// ErrLocked when another run, in this process or another, holds the lock.
func Create(path string, writer Writer, logger *slog.Logger) (*Dir, error) {
	if writer == nil {
		writer = FileWriter{}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	lock := flock.New(LockPathFor(path))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire staging lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	if err := os.RemoveAll(path); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("clear leftover staging directory: %w", err)
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("create staging directory: %w", err)
	}
	return &Dir{
		path:   path,
		lock:   lock,
		writer: writer,
		logger: logging.NewComponentLogger(logger, "staging"),
	}, nil
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// StageImages writes blobs as 0.png, 1.png, ... in order.
func (d *Dir) StageImages(ctx context.Context, blobs [][]byte) ([]string, error) {
	return d.stage(ctx, blobs, ".png")
}

// StageAudio writes blobs as 0.wav, 1.wav, ... in order.
func (d *Dir) StageAudio(ctx context.Context, blobs [][]byte) ([]string, error) {
	return d.stage(ctx, blobs, ".wav")
}

func (d *Dir) stage(ctx context.Context, blobs [][]byte, ext string) ([]string, error) {
	paths := make([]string, 0, len(blobs))
	for i, blob := range blobs {
		target := filepath.Join(d.path, strconv.Itoa(i)+ext)
		if err := d.writer.Write(ctx, target, blob, EncodingBinary); err != nil {
			return paths, err
		}
		paths = append(paths, target)
	}
	d.logger.Debug("staged inputs",
		logging.Int("count", len(paths)),
		logging.String("extension", ext),
		logging.String(logging.FieldEventType, "staging_write"),
	)
	return paths, nil
}

// Remove deletes the directory and releases the lock. It is safe to call
// more than once.
func (d *Dir) Remove() error {
	if d == nil {
		return nil
	}
	removeErr := os.RemoveAll(d.path)
	if removeErr != nil {
		logging.WarnWithContext(d.logger, "staging directory removal failed", "staging_cleanup_failed",
			logging.String("path", d.path),
			logging.Error(removeErr),
			logging.String(logging.FieldErrorHint, "remove the directory manually or run `vibemix staging clean`"),
			logging.String(logging.FieldImpact, "staged inputs remain on disk"),
		)
	}
	if d.lock != nil && d.lock.Locked() {
		if err := d.lock.Unlock(); err != nil && removeErr == nil {
			removeErr = fmt.Errorf("release staging lock: %w", err)
		}
		_ = os.Remove(d.lock.Path())
	}
	return removeErr
}
