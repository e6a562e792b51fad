// Package provider implements embedding engines (local ONNX inference
// via hugot, remote OpenAI-compatible APIs) and the registry that loads
// and caches them.
package provider

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/embedware/vectord/domain/embedding"
)

// Loader loads an engine for a model identifier. Implementations bind
// the model to CPU-only execution.
type Loader interface {
	Load(ctx context.Context, modelID string) (embedding.Engine, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, modelID string) (embedding.Engine, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, modelID string) (embedding.Engine, error) {
	return f(ctx, modelID)
}

// Registry resolves model identifiers to loaded engines.
//
// The default model is loaded synchronously at startup via LoadDefault;
// a startup failure is sticky: every later resolve of the default
// returns the recorded LoadError until the process restarts. Non-default
// models load on demand behind a per-key single-flight, so concurrent
// first requests for the same identifier trigger exactly one load and
// all callers receive the same engine or the same error. Successful
// loads are cached for the process lifetime; failed on-demand loads
// leave the cache untouched and the next request retries.
type Registry struct {
	loader       Loader
	defaultModel string

	group singleflight.Group

	mu         sync.RWMutex
	engines    map[string]embedding.Engine
	defaultErr error

	loads atomic.Int64
}

// NewRegistry creates a Registry with the given default model and loader.
func NewRegistry(defaultModel string, loader Loader) *Registry {
	return &Registry{
		loader:       loader,
		defaultModel: defaultModel,
		engines:      make(map[string]embedding.Engine),
	}
}

// DefaultModel returns the configured default model identifier.
func (r *Registry) DefaultModel() string { return r.defaultModel }

// LoadDefault loads the default model synchronously. A failure is
// recorded and returned by every subsequent Resolve of the default.
func (r *Registry) LoadDefault(ctx context.Context) error {
	_, err := r.load(ctx, r.defaultModel)
	if err != nil {
		r.mu.Lock()
		r.defaultErr = err
		r.mu.Unlock()
	}
	return err
}

// Resolve returns the engine for the given model identifier, loading it
// on first use. An empty identifier resolves to the default model.
func (r *Registry) Resolve(ctx context.Context, modelID string) (embedding.Engine, error) {
	if modelID == "" {
		modelID = r.defaultModel
	}

	r.mu.RLock()
	if modelID == r.defaultModel && r.defaultErr != nil {
		err := r.defaultErr
		r.mu.RUnlock()
		return nil, err
	}
	if eng, ok := r.engines[modelID]; ok {
		r.mu.RUnlock()
		return eng, nil
	}
	r.mu.RUnlock()

	return r.load(ctx, modelID)
}

// LoadCount returns how many loader invocations have run. Test hook for
// the single-flight guarantee.
func (r *Registry) LoadCount() int64 {
	return r.loads.Load()
}

func (r *Registry) load(ctx context.Context, modelID string) (embedding.Engine, error) {
	v, err, _ := r.group.Do(modelID, func() (any, error) {
		// Recheck under the flight: a previous winner may have
		// published while we queued.
		r.mu.RLock()
		eng, ok := r.engines[modelID]
		r.mu.RUnlock()
		if ok {
			return eng, nil
		}

		r.loads.Add(1)
		loaded, loadErr := r.loader.Load(ctx, modelID)
		if loadErr != nil {
			return nil, loadErr
		}

		r.mu.Lock()
		r.engines[modelID] = loaded
		r.mu.Unlock()
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(embedding.Engine), nil
}
