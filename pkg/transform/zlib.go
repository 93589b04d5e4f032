package transform

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ZlibTransform is the built-in "zlib" compression stage.
type ZlibTransform struct {
	// Level is the zlib compression level, as accepted by zlib.NewWriterLevel.
	// Zero value resolves to zlib.DefaultCompression.
	Level int
}

func (z ZlibTransform) Name() string   { return "zlib" }
func (z ZlibTransform) Module() string { return "klauspost/compress/zlib" }

// Encapsulate always succeeds (ok=true): zlib has no input it refuses.
func (z ZlibTransform) Encapsulate(data []byte) ([]byte, map[string]string, bool) {
	level := z.Level
	if level == 0 {
		level = zlib.DefaultCompression
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, nil, false
	}
	if _, err := w.Write(data); err != nil {
		return nil, nil, false
	}
	if err := w.Close(); err != nil {
		return nil, nil, false
	}
	return buf.Bytes(), nil, true
}

func (z ZlibTransform) Decapsulate(data []byte, _ map[string]string) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("transform: zlib: %w", err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("transform: zlib: %w", err)
	}
	return out, nil
}
