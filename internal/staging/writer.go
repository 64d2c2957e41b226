package staging

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"

	"vibemix/internal/fileutil"
)

// Encoding describes how payload bytes map to file contents.
type Encoding string

const (
	// EncodingBinary writes the payload unchanged.
	EncodingBinary Encoding = "binary"
	// EncodingBase64 decodes a standard base64 payload before writing.
	EncodingBase64 Encoding = "base64"
	// EncodingText writes the payload unchanged, without line-ending translation.
	EncodingText Encoding = "text"
)

// Writer persists one staged file.
type Writer interface {
	Write(ctx context.Context, path string, data []byte, enc Encoding) error
}

// FileWriter writes to the local filesystem and verifies every write.
type FileWriter struct {
	Mode os.FileMode
}

// Write implements Writer.
func (w FileWriter) Write(ctx context.Context, path string, data []byte, enc Encoding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload := data
	switch enc {
	case EncodingBinary, EncodingText, "":
	case EncodingBase64:
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(data)))
		n, err := base64.StdEncoding.Decode(decoded, data)
		if err != nil {
			return fmt.Errorf("decode base64 payload for %s: %w", path, err)
		}
		payload = decoded[:n]
	default:
		return fmt.Errorf("unsupported encoding %q", enc)
	}
	mode := w.Mode
	if mode == 0 {
		mode = 0o644
	}
	return fileutil.WriteFileVerified(path, payload, mode)
}
