package storage

import (
	"fmt"

	"github.com/benji-go/corestore/pkg/backend"
	"github.com/benji-go/corestore/pkg/config"
	"github.com/benji-go/corestore/pkg/corelog"
	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/metadata"
	"github.com/benji-go/corestore/pkg/rcache"
	"github.com/benji-go/corestore/pkg/transform"
)

// NewFromConfig builds a Storage from a validated config.Storage: it
// resolves activeTransforms against the built-in zlib/zstd/aes transforms,
// resolves the HMAC and encryption key material (direct or KDF-derived),
// and opens the read cache, degrading to uncached operation with a warning
// if cache construction fails rather than failing the whole storage. name
// is not part of config.Storage because config.File keys storages by name;
// callers pass the map key straight through.
func NewFromConfig(name string, cfg config.Storage, be backend.Backend) (*Storage, error) {
	chain, err := buildChain(cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: %s: %w", name, err)
	}

	hmacKey, err := cfg.HMAC.Resolve()
	if err != nil {
		return nil, fmt.Errorf("storage: %s: resolve hmac key: %w", name, err)
	}
	codec := metadata.NewCodec(hmacKey)

	cache, err := rcache.New(rcache.Config{
		Directory:   cfg.ReadCache.Directory,
		MaximumSize: cfg.ReadCache.MaximumSize,
	})
	if err != nil {
		corelog.WithStorage(name).Warn().Err(err).Msg("read cache construction failed, degrading to uncached operation")
		cache = rcache.NewDegraded(rcache.Config{})
	}

	return New(Config{
		Name: name,

		SimultaneousReads:  cfg.SimultaneousReads,
		SimultaneousWrites: cfg.SimultaneousWrites,

		BandwidthRead:  cfg.BandwidthRead,
		BandwidthWrite: cfg.BandwidthWrite,

		ConsistencyCheckWrites: cfg.ConsistencyCheckWrites,
	}, be, chain, codec, cache), nil
}

// buildChain registers the built-in transforms and activates the
// configured subset in order, resolving the encryption key only when
// "aes" actually appears in activeTransforms.
func buildChain(cfg config.Storage) (*transform.Chain, error) {
	transforms := []transform.Transform{transform.ZlibTransform{}, &transform.ZstdTransform{}}

	for _, name := range cfg.ActiveTransforms {
		if name != "aes" {
			continue
		}
		key, err := cfg.Encryption.Resolve()
		if err != nil {
			return nil, fmt.Errorf("resolve encryption key: %w", err)
		}
		if len(key) == 0 {
			return nil, fmt.Errorf("%w: activeTransforms includes \"aes\" but encryption is not configured", corestore.ErrConfiguration)
		}
		aes, err := transform.NewAESTransform(key)
		if err != nil {
			return nil, fmt.Errorf("build aes transform: %w", err)
		}
		transforms = append(transforms, aes)
		break
	}

	registry := transform.NewRegistry(transforms...)
	chain, err := transform.NewChain(registry, cfg.ActiveTransforms)
	if err != nil {
		return nil, err
	}
	return chain, nil
}
