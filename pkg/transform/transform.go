// Package transform implements the encapsulation pipeline: an ordered chain
// of reversible transforms (compression, encryption) applied to a payload
// before it is handed to the backend, and reversed, in recorded order, on
// read.
package transform

import (
	"fmt"

	"github.com/benji-go/corestore/pkg/corestore"
	"github.com/benji-go/corestore/pkg/types"
)

// Transform is the capability set a registered transform exposes. Module
// identifies the implementation backing Name (e.g. a compression transform
// named "zlib" backed by module "klauspost/compress/zlib"); it is recorded
// alongside the materials so a later reconfiguration that renames or swaps
// the backing module is caught as a configuration mismatch rather than
// silently decapsulating with the wrong algorithm.
type Transform interface {
	Name() string
	Module() string

	// Encapsulate transforms data, returning the new payload and the
	// materials needed to reverse it. A nil/false ok return means "decline
	// to transform": the input passes through unchanged and no metadata
	// record is appended for this stage.
	Encapsulate(data []byte) (out []byte, materials map[string]string, ok bool)

	// Decapsulate reverses Encapsulate given the materials recorded at
	// encapsulation time.
	Decapsulate(data []byte, materials map[string]string) ([]byte, error)
}

// Registry is an immutable, name-keyed lookup of configured transforms,
// built once from configuration and never mutated afterwards so it can be
// shared across goroutines without locking.
type Registry struct {
	byName map[string]Transform
}

// NewRegistry builds a registry from the given transforms. Later entries
// with a duplicate name overwrite earlier ones, matching a last-wins
// configuration override.
func NewRegistry(transforms ...Transform) *Registry {
	r := &Registry{byName: make(map[string]Transform, len(transforms))}
	for _, t := range transforms {
		r.byName[t.Name()] = t
	}
	return r
}

// Get resolves a transform by its registered name.
func (r *Registry) Get(name string) (Transform, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Chain is the ordered, active transform chain used for encapsulation. It
// is a view over a Registry: the order here is the order applied on write
// and reversed on read.
type Chain struct {
	registry *Registry
	active   []Transform
}

// NewChain builds an active chain from names already present in registry.
// An unknown name at construction time is a configuration error: unlike a
// name recorded in metadata on an object written long ago, the active chain
// is fully under the operator's control right now.
func NewChain(registry *Registry, names []string) (*Chain, error) {
	c := &Chain{registry: registry}
	for _, name := range names {
		t, ok := registry.Get(name)
		if !ok {
			return nil, fmt.Errorf("transform: %w: %s is not registered", corestore.ErrConfiguration, name)
		}
		c.active = append(c.active, t)
	}
	return c, nil
}

// Encapsulate applies the active chain in order. Each transform that
// declines (ok=false) is skipped: its output does not become the input to
// the next stage, and no record is appended.
func (c *Chain) Encapsulate(data []byte) ([]byte, []types.TransformRecord) {
	var records []types.TransformRecord
	for _, t := range c.active {
		out, materials, ok := t.Encapsulate(data)
		if !ok {
			continue
		}
		data = out
		records = append(records, types.TransformRecord{
			Name:      t.Name(),
			Module:    t.Module(),
			Materials: materials,
		})
	}
	return data, records
}

// Decapsulate reverses a recorded chain in reverse order, re-resolving each
// stage by name against the registry (not the active chain — an object
// written under an older configuration must still decode against whatever
// transforms are still registered).
func (c *Chain) Decapsulate(data []byte, records []types.TransformRecord) ([]byte, error) {
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		t, ok := c.registry.Get(rec.Name)
		if !ok {
			return nil, fmt.Errorf("transform: %w: %s", corestore.ErrUnknownTransform, rec.Name)
		}
		if t.Module() != rec.Module {
			return nil, fmt.Errorf("transform: %w: module mismatch for %s (%s != %s)",
				corestore.ErrConfiguration, rec.Name, rec.Module, t.Module())
		}
		out, err := t.Decapsulate(data, rec.Materials)
		if err != nil {
			return nil, fmt.Errorf("transform: decapsulate %s: %w", rec.Name, err)
		}
		data = out
	}
	return data, nil
}
