// Package fileutil holds small file helpers shared by the staging and store layers.
package fileutil

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// WriteFileVerified writes data to path and re-reads it to confirm the size
// and SHA-256 digest match. The file is removed on mismatch.
func WriteFileVerified(path string, data []byte, mode os.FileMode) error {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	written, err := out.Write(data)
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	if written != len(data) {
		_ = os.Remove(path)
		return fmt.Errorf("write size mismatch: expected %d bytes, wrote %d bytes", len(data), written)
	}

	want := sha256.Sum256(data)
	got, size, err := hashFile(path)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if size != int64(len(data)) {
		_ = os.Remove(path)
		return fmt.Errorf("write size mismatch: expected %d bytes, found %d bytes on disk", len(data), size)
	}
	if !bytes.Equal(want[:], got) {
		_ = os.Remove(path)
		return fmt.Errorf("write hash mismatch: %s corrupted during write", path)
	}
	return nil
}

func hashFile(path string) ([]byte, int64, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer in.Close()

	hasher := sha256.New()
	size, err := io.Copy(hasher, in)
	if err != nil {
		return nil, 0, err
	}
	return hasher.Sum(nil), size, nil
}

// DirSize sums the sizes of regular files directly inside dir.
func DirSize(dir string) (int64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		total += info.Size()
	}
	return total, nil
}
