package transform

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdTransform is the built-in "zstd" compression stage. The encoder and
// decoder are built lazily and reused: both are safe for concurrent use and
// expensive enough to construct that the engine's concurrent writers and
// readers should not each pay for their own.
type ZstdTransform struct {
	once    sync.Once
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	initErr error
}

func (z *ZstdTransform) Name() string   { return "zstd" }
func (z *ZstdTransform) Module() string { return "klauspost/compress/zstd" }

func (z *ZstdTransform) init() {
	z.encoder, z.initErr = zstd.NewWriter(nil)
	if z.initErr != nil {
		return
	}
	z.decoder, z.initErr = zstd.NewReader(nil)
}

func (z *ZstdTransform) Encapsulate(data []byte) ([]byte, map[string]string, bool) {
	z.once.Do(z.init)
	if z.initErr != nil {
		return nil, nil, false
	}
	return z.encoder.EncodeAll(data, nil), nil, true
}

func (z *ZstdTransform) Decapsulate(data []byte, _ map[string]string) ([]byte, error) {
	z.once.Do(z.init)
	if z.initErr != nil {
		return nil, fmt.Errorf("transform: zstd: %w", z.initErr)
	}
	out, err := z.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("transform: zstd: %w", err)
	}
	return out, nil
}
