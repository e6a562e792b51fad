package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedware/vectord/domain/embedding"
	"github.com/embedware/vectord/internal/config"
	"github.com/embedware/vectord/internal/tracing"
)

// fakeEngine returns constant vectors and records the options it was given.
type fakeEngine struct {
	modelID  string
	dim      int
	delay    time.Duration
	err      error
	lastOpts embedding.EncodeOptions
}

func (e *fakeEngine) Encode(ctx context.Context, texts []string, opts embedding.EncodeOptions) ([][]float64, error) {
	e.lastOpts = opts
	if e.delay > 0 {
		select {
		case <-time.After(e.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if e.err != nil {
		return nil, e.err
	}
	vectors := make([][]float64, len(texts))
	for i := range vectors {
		vectors[i] = make([]float64, e.dim)
		vectors[i][0] = 1
	}
	return vectors, nil
}

func (e *fakeEngine) ModelID() string { return e.modelID }

func (e *fakeEngine) Dim() int { return e.dim }

// fakeResolver returns a fixed engine and counts resolutions.
type fakeResolver struct {
	engine   *fakeEngine
	err      error
	resolves int
}

func (r *fakeResolver) Resolve(_ context.Context, modelID string) (embedding.Engine, error) {
	r.resolves++
	if r.err != nil {
		return nil, r.err
	}
	return r.engine, nil
}

func (r *fakeResolver) DefaultModel() string { return r.engine.modelID }

// contentEngine derives each vector from the text itself, so equal
// inputs produce equal outputs.
type contentEngine struct {
	dim int
}

func (e *contentEngine) Encode(_ context.Context, texts []string, _ embedding.EncodeOptions) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		v := make([]float64, e.dim)
		for j, r := range text {
			v[j%e.dim] += float64(r)
		}
		vectors[i] = v
	}
	return vectors, nil
}

func (e *contentEngine) ModelID() string { return "content-model" }

func (e *contentEngine) Dim() int { return e.dim }

type engineResolver struct {
	engine embedding.Engine
}

func (r engineResolver) Resolve(_ context.Context, _ string) (embedding.Engine, error) {
	return r.engine, nil
}

func (r engineResolver) DefaultModel() string { return r.engine.ModelID() }

func newTestService(t *testing.T, cfg config.LimitsConfig, resolver Resolver) *Embedding {
	t.Helper()
	return NewEmbedding(cfg, resolver, tracing.NewNoop(), nil)
}

func TestEmbed_Response(t *testing.T) {
	resolver := &fakeResolver{engine: &fakeEngine{modelID: "all-MiniLM-L6-v2", dim: 384}}
	svc := newTestService(t, config.NewLimitsConfig(), resolver)

	resp, err := svc.Embed(context.Background(), embedding.NewRequest([]string{"Hello, world!", "How are you?"}))
	require.NoError(t, err)

	assert.Equal(t, "all-MiniLM-L6-v2", resp.Model())
	assert.Equal(t, 384, resp.Dim())
	require.Len(t, resp.Embeddings(), 2)
	assert.Len(t, resp.Embeddings()[0], 384)
	assert.Equal(t, 2, resp.Usage().Texts())
	assert.Equal(t, 25, resp.Usage().Chars())
	assert.GreaterOrEqual(t, resp.Usage().Ms(), int64(0))
	assert.Equal(t, 1, resolver.resolves)
}

func TestEmbed_RepeatedTextsGetIdenticalVectors(t *testing.T) {
	svc := newTestService(t, config.NewLimitsConfig(), engineResolver{engine: &contentEngine{dim: 8}})

	resp, err := svc.Embed(context.Background(), embedding.NewRequest([]string{"same", "other", "same"}))
	require.NoError(t, err)
	require.Len(t, resp.Embeddings(), 3)

	vectors := resp.Embeddings()
	assert.Equal(t, vectors[0], vectors[2])
	assert.NotEqual(t, vectors[0], vectors[1])
}

func TestEmbed_EmptyBatchRejectedBeforeResolution(t *testing.T) {
	resolver := &fakeResolver{engine: &fakeEngine{modelID: "m", dim: 4}}
	svc := newTestService(t, config.NewLimitsConfig(), resolver)

	_, err := svc.Embed(context.Background(), embedding.NewRequest(nil))

	require.ErrorIs(t, err, embedding.ErrValidation)
	var verr *embedding.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, embedding.CodeEmptyBatch, verr.Code())
	assert.Equal(t, 0, resolver.resolves, "validation must run before any model is touched")
}

func TestEmbed_BatchTooLarge(t *testing.T) {
	resolver := &fakeResolver{engine: &fakeEngine{modelID: "m", dim: 4}}
	svc := newTestService(t, config.NewLimitsConfig().WithBatchMaxTexts(2), resolver)

	_, err := svc.Embed(context.Background(), embedding.NewRequest([]string{"a", "b", "c"}))

	var verr *embedding.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, embedding.CodeBatchTooLarge, verr.Code())
	assert.Equal(t, 0, resolver.resolves)
}

func TestEmbed_ModelOverrideDisabled(t *testing.T) {
	resolver := &fakeResolver{engine: &fakeEngine{modelID: "default-model", dim: 4}}
	svc := newTestService(t, config.NewLimitsConfig(), resolver)

	_, err := svc.Embed(context.Background(), embedding.NewRequest(
		[]string{"a"},
		embedding.WithModel("other-model"),
	))

	var verr *embedding.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, embedding.CodeModelOverrideDisabled, verr.Code())
}

func TestEmbed_ModelOverrideAllowed(t *testing.T) {
	resolver := &fakeResolver{engine: &fakeEngine{modelID: "other-model", dim: 8}}
	svc := newTestService(t, config.NewLimitsConfig().WithAllowModelOverride(true), resolver)

	resp, err := svc.Embed(context.Background(), embedding.NewRequest(
		[]string{"a"},
		embedding.WithModel("other-model"),
	))
	require.NoError(t, err)
	assert.Equal(t, "other-model", resp.Model())
}

func TestEmbed_DefaultsApplied(t *testing.T) {
	engine := &fakeEngine{modelID: "m", dim: 4}
	resolver := &fakeResolver{engine: engine}
	svc := newTestService(t, config.NewLimitsConfig().
		WithNormalizeDefault(true).
		WithTruncateDefault(false), resolver)

	_, err := svc.Embed(context.Background(), embedding.NewRequest([]string{"a"}))
	require.NoError(t, err)

	assert.True(t, engine.lastOpts.Normalize)
	assert.False(t, engine.lastOpts.Truncate)
}

func TestEmbed_RequestOverridesDefaults(t *testing.T) {
	engine := &fakeEngine{modelID: "m", dim: 4}
	resolver := &fakeResolver{engine: engine}
	svc := newTestService(t, config.NewLimitsConfig().WithNormalizeDefault(true), resolver)

	_, err := svc.Embed(context.Background(), embedding.NewRequest(
		[]string{"a"},
		embedding.WithNormalize(false),
		embedding.WithTruncate(false),
	))
	require.NoError(t, err)

	assert.False(t, engine.lastOpts.Normalize)
	assert.False(t, engine.lastOpts.Truncate)
}

func TestEmbed_Timeout(t *testing.T) {
	engine := &fakeEngine{modelID: "slow-model", dim: 4, delay: 500 * time.Millisecond}
	resolver := &fakeResolver{engine: engine}
	svc := newTestService(t, config.NewLimitsConfig().WithRequestTimeout(20*time.Millisecond), resolver)

	start := time.Now()
	_, err := svc.Embed(context.Background(), embedding.NewRequest([]string{"a"}))
	elapsed := time.Since(start)

	require.ErrorIs(t, err, embedding.ErrTimeout)
	assert.Less(t, elapsed, 400*time.Millisecond, "timeout must fire before the engine finishes")
}

func TestEmbed_ResolveErrorPropagates(t *testing.T) {
	loadErr := embedding.NewLoadError("m", "model files missing", nil)
	resolver := &fakeResolver{engine: &fakeEngine{modelID: "m", dim: 4}, err: loadErr}
	svc := newTestService(t, config.NewLimitsConfig(), resolver)

	_, err := svc.Embed(context.Background(), embedding.NewRequest([]string{"a"}))

	require.ErrorIs(t, err, embedding.ErrModelLoad)
}

func TestEmbed_EncodeErrorPropagates(t *testing.T) {
	engine := &fakeEngine{modelID: "m", dim: 4, err: embedding.NewEncodeError("m", errors.New("session failure"))}
	resolver := &fakeResolver{engine: engine}
	svc := newTestService(t, config.NewLimitsConfig(), resolver)

	_, err := svc.Embed(context.Background(), embedding.NewRequest([]string{"a"}))

	require.ErrorIs(t, err, embedding.ErrEncode)
}

func TestEmbed_CancelledContext(t *testing.T) {
	engine := &fakeEngine{modelID: "m", dim: 4, delay: time.Second}
	resolver := &fakeResolver{engine: engine}
	svc := newTestService(t, config.NewLimitsConfig(), resolver)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Embed(ctx, embedding.NewRequest([]string{"a"}))

	require.ErrorIs(t, err, context.Canceled)
}
