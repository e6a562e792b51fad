package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func writeModelFiles(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tokenizer.json"), []byte(`{}`), 0o644))
}

func TestLocalLoader_DiskModelPath_FullIdentifier(t *testing.T) {
	modelDir := t.TempDir()
	writeModelFiles(t, filepath.Join(modelDir, "sentence-transformers", "all-MiniLM-L6-v2"))

	loader := NewLocalLoader(modelDir)
	got, err := loader.diskModelPath("sentence-transformers/all-MiniLM-L6-v2")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(modelDir, "sentence-transformers", "all-MiniLM-L6-v2"), got)
}

func TestLocalLoader_DiskModelPath_FlatFallback(t *testing.T) {
	modelDir := t.TempDir()
	writeModelFiles(t, filepath.Join(modelDir, "all-MiniLM-L6-v2"))

	loader := NewLocalLoader(modelDir)
	got, err := loader.diskModelPath("sentence-transformers/all-MiniLM-L6-v2")
	require.NoError(t, err)
	require.Equal(t, filepath.Join(modelDir, "all-MiniLM-L6-v2"), got)
}

func TestLocalLoader_DiskModelPath_MissingTokenizer(t *testing.T) {
	modelDir := t.TempDir()
	// Directory exists but has no tokenizer.json, so it is not a usable model.
	require.NoError(t, os.MkdirAll(filepath.Join(modelDir, "incomplete-model"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(modelDir, "incomplete-model", "config.json"), []byte(`{}`), 0o644))

	loader := NewLocalLoader(modelDir)
	_, err := loader.diskModelPath("incomplete-model")
	require.Error(t, err)
}

func TestLocalLoader_Available(t *testing.T) {
	modelDir := t.TempDir()
	loader := NewLocalLoader(modelDir)

	if !hasEmbeddedModel {
		require.False(t, loader.Available("my-model"))
	}

	writeModelFiles(t, filepath.Join(modelDir, "my-model"))
	require.True(t, loader.Available("my-model"))
}

func TestLocalLoader_LoadMissingModel(t *testing.T) {
	if hasEmbeddedModel {
		t.Skip("skipping: embedded model satisfies any load")
	}

	loader := NewLocalLoader(t.TempDir())
	_, err := loader.Load(context.Background(), "absent-model")
	require.Error(t, err)
	require.Contains(t, err.Error(), "model files not found")
}

func TestLocalLoader_LoadCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	loader := NewLocalLoader(t.TempDir())
	_, err := loader.Load(ctx, "any-model")
	require.Error(t, err)
}

func TestExtractEmbeddedModel(t *testing.T) {
	fakeFS := fstest.MapFS{
		"models/test-model/tokenizer.json":  {Data: []byte(`{"test": true}`)},
		"models/test-model/config.json":     {Data: []byte(`{"hidden_size": 384}`)},
		"models/test-model/onnx/model.onnx": {Data: []byte("fake-onnx-data")},
	}

	targetDir := t.TempDir()
	modelPath, err := extractEmbeddedModel(fakeFS, targetDir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(targetDir, "test-model"), modelPath)

	data, err := os.ReadFile(filepath.Join(modelPath, "tokenizer.json"))
	require.NoError(t, err)
	require.Contains(t, string(data), `"test": true`)

	data, err = os.ReadFile(filepath.Join(modelPath, "onnx", "model.onnx"))
	require.NoError(t, err)
	require.Equal(t, "fake-onnx-data", string(data))

	// Second extraction skips: files already present.
	modelPath2, err := extractEmbeddedModel(fakeFS, targetDir)
	require.NoError(t, err)
	require.Equal(t, modelPath, modelPath2)
}

func TestExtractEmbeddedModel_NoModelDir(t *testing.T) {
	emptyFS := fstest.MapFS{
		"models/.gitkeep": {Data: []byte("")},
	}

	_, err := extractEmbeddedModel(emptyFS, t.TempDir())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no model directory found")
}
