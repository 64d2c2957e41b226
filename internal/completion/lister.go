package completion

import (
	"context"
	"os"
	"time"
)

// Entry is one file in a directory listing.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
}

// Lister lists the regular files in a directory.
type Lister interface {
	List(ctx context.Context, dir string) ([]Entry, error)
}

// DirLister lists directories on the local filesystem.
type DirLister struct{}

// List implements Lister.
func (DirLister) List(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{Name: de.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return entries, nil
}
