package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/embedware/vectord/domain/embedding"
)

// localBatchMax is the number of texts per pipeline run. Larger batches
// are split internally; callers never observe the sub-batching.
const localBatchMax = 10

// hugotRuntime holds the process-wide hugot session. The ONNX Runtime
// backend allows only one active session per process, and inference on
// it is not thread-safe, so both pipeline creation and pipeline runs
// are serialized behind the mutex.
var hugotRuntime struct {
	session *hugot.Session
	mu      sync.Mutex
}

// LocalLoader loads models from a directory of model files for CPU-only
// inference with hugot feature-extraction pipelines.
//
// A model identifier like "sentence-transformers/all-MiniLM-L6-v2"
// resolves to modelDir/sentence-transformers/all-MiniLM-L6-v2 (or, as a
// fallback, modelDir/all-MiniLM-L6-v2); a directory qualifies when it
// contains tokenizer.json. When no model files exist on disk and the
// binary was built with the embed_model tag, the embedded model is
// extracted to modelDir first.
type LocalLoader struct {
	modelDir string
}

// NewLocalLoader creates a LocalLoader reading models from modelDir.
func NewLocalLoader(modelDir string) *LocalLoader {
	return &LocalLoader{modelDir: modelDir}
}

// Available reports whether any usable model exists: either compiled
// into the binary or present on disk under the loader's model dir.
func (l *LocalLoader) Available(modelID string) bool {
	if hasEmbeddedModel {
		return true
	}
	_, err := l.diskModelPath(modelID)
	return err == nil
}

// Load loads the model and probes its output dimension with one encode.
// Execution is bound to CPU; no GPU device path exists.
func (l *LocalLoader) Load(ctx context.Context, modelID string) (embedding.Engine, error) {
	if err := ctx.Err(); err != nil {
		return nil, embedding.NewLoadError(modelID, "load cancelled", err)
	}

	modelPath, err := l.resolveModelPath(modelID)
	if err != nil {
		return nil, embedding.NewLoadError(modelID, "model files not found", err)
	}

	hugotRuntime.mu.Lock()
	defer hugotRuntime.mu.Unlock()

	if hugotRuntime.session == nil {
		session, sessErr := newHugotSession()
		if sessErr != nil {
			return nil, embedding.NewLoadError(modelID, "create inference session", sessErr)
		}
		hugotRuntime.session = session
	}

	config := hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      modelID,
	}
	pipeline, err := hugot.NewPipeline(hugotRuntime.session, config)
	if err != nil {
		return nil, embedding.NewLoadError(modelID, "create feature extraction pipeline", err)
	}

	// Probe the output dimension once; it is fixed for the model's
	// lifetime and every response reports it.
	probe, err := pipeline.RunPipeline([]string{"dimension probe"})
	if err != nil {
		return nil, embedding.NewLoadError(modelID, "probe output dimension", err)
	}
	if len(probe.Embeddings) == 0 || len(probe.Embeddings[0]) == 0 {
		return nil, embedding.NewLoadError(modelID, "model produced no probe vector", nil)
	}

	return &LocalEngine{
		modelID:  modelID,
		dim:      len(probe.Embeddings[0]),
		pipeline: pipeline,
	}, nil
}

// resolveModelPath returns the on-disk path for modelID, extracting the
// embedded model first when nothing is on disk yet.
func (l *LocalLoader) resolveModelPath(modelID string) (string, error) {
	if path, err := l.diskModelPath(modelID); err == nil {
		return path, nil
	}

	if !hasEmbeddedModel {
		return "", fmt.Errorf("no model %q in %s and no embedded model compiled in (build with -tags embed_model)", modelID, l.modelDir)
	}

	if err := os.MkdirAll(l.modelDir, 0o755); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}
	if _, err := extractEmbeddedModel(embeddedModelFS, l.modelDir); err != nil {
		return "", err
	}

	return l.diskModelPath(modelID)
}

// diskModelPath locates the model directory for modelID. The full
// identifier path is preferred; the last path element is accepted as a
// fallback so flat model directories keep working.
func (l *LocalLoader) diskModelPath(modelID string) (string, error) {
	candidates := []string{
		filepath.Join(l.modelDir, filepath.FromSlash(modelID)),
		filepath.Join(l.modelDir, filepath.Base(filepath.FromSlash(modelID))),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(filepath.Join(candidate, "tokenizer.json")); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no directory with tokenizer.json for model %q in %s", modelID, l.modelDir)
}

// LocalEngine encodes text with a hugot feature-extraction pipeline.
//
// Inputs beyond the model's maximum sequence length are clamped by the
// tokenizer whether or not truncation was requested; encoding never
// fails on input length.
type LocalEngine struct {
	modelID  string
	dim      int
	pipeline *pipelines.FeatureExtractionPipeline
}

// ModelID returns the identifier the model was loaded under.
func (e *LocalEngine) ModelID() string { return e.modelID }

// Dim returns the probed output dimension.
func (e *LocalEngine) Dim() int { return e.dim }

// Encode runs the pipeline over texts in sub-batches, returning one
// vector per text in input order. On any sub-batch failure the whole
// call fails; no partial results are returned.
func (e *LocalEngine) Encode(ctx context.Context, texts []string, opts embedding.EncodeOptions) ([][]float64, error) {
	vectors := make([][]float64, 0, len(texts))

	for start := 0; start < len(texts); start += localBatchMax {
		if err := ctx.Err(); err != nil {
			return nil, embedding.NewEncodeError(e.modelID, err)
		}

		end := min(start+localBatchMax, len(texts))
		batch := texts[start:end]

		// Inference on the shared session is not thread-safe; hold the
		// runtime mutex per sub-batch so concurrent requests interleave.
		hugotRuntime.mu.Lock()
		result, err := e.pipeline.RunPipeline(batch)
		hugotRuntime.mu.Unlock()
		if err != nil {
			return nil, embedding.NewEncodeError(e.modelID, err)
		}
		if len(result.Embeddings) != len(batch) {
			return nil, embedding.NewEncodeError(e.modelID,
				fmt.Errorf("pipeline returned %d vectors for %d texts", len(result.Embeddings), len(batch)))
		}

		for _, vec32 := range result.Embeddings {
			vec := make([]float64, len(vec32))
			for i, v := range vec32 {
				vec[i] = float64(v)
			}
			vectors = append(vectors, vec)
		}
	}

	if opts.Normalize {
		embedding.NormalizeAll(vectors)
	}
	return vectors, nil
}

var _ embedding.Engine = (*LocalEngine)(nil)
