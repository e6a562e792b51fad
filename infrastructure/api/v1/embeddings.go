package v1

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	vectord "github.com/embedware/vectord"
	"github.com/embedware/vectord/domain/embedding"
	"github.com/embedware/vectord/infrastructure/api/middleware"
	"github.com/embedware/vectord/infrastructure/api/v1/dto"
)

// EmbeddingsRouter handles embedding API endpoints.
type EmbeddingsRouter struct {
	client *vectord.Client
	logger *slog.Logger
}

// NewEmbeddingsRouter creates a new EmbeddingsRouter.
func NewEmbeddingsRouter(client *vectord.Client) *EmbeddingsRouter {
	return &EmbeddingsRouter{
		client: client,
		logger: client.Logger(),
	}
}

// Routes returns the chi router for embedding endpoints.
func (r *EmbeddingsRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Embed)

	return router
}

// Embed handles POST /v1/embeddings.
//
//	@Summary		Encode a batch of texts
//	@Description	Encode up to the configured batch limit of texts into fixed-dimension vectors
//	@Tags			embeddings
//	@Accept			json
//	@Produce		json
//	@Param			body	body		dto.EmbedRequest	true	"Embedding request"
//	@Success		200		{object}	dto.EmbedResponse
//	@Failure		400		{object}	dto.ErrorResponse
//	@Failure		500		{object}	dto.ErrorResponse
//	@Failure		504		{object}	dto.ErrorResponse
//	@Router			/v1/embeddings [post]
func (r *EmbeddingsRouter) Embed(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()

	var body dto.EmbedRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		middleware.WriteInvalidRequest(w, "request body is not valid JSON")
		return
	}

	result, err := r.client.Embeddings.Embed(ctx, buildEmbedRequest(body))
	if err != nil {
		middleware.WriteError(w, req, err, r.logger)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, buildEmbedResponse(result))
}

func buildEmbedRequest(body dto.EmbedRequest) embedding.Request {
	var opts []embedding.RequestOption
	if body.Model != "" {
		opts = append(opts, embedding.WithModel(body.Model))
	}
	if body.Normalize != nil {
		opts = append(opts, embedding.WithNormalize(*body.Normalize))
	}
	if body.Truncate != nil {
		opts = append(opts, embedding.WithTruncate(*body.Truncate))
	}
	if len(body.Metadata) > 0 {
		opts = append(opts, embedding.WithRequestMetadata(body.Metadata))
	}

	return embedding.NewRequest(body.Texts, opts...)
}

func buildEmbedResponse(result embedding.Response) dto.EmbedResponse {
	usage := result.Usage()

	return dto.EmbedResponse{
		Model:      result.Model(),
		Dim:        result.Dim(),
		Embeddings: result.Embeddings(),
		Usage: dto.UsageSchema{
			Texts: usage.Texts(),
			Chars: usage.Chars(),
			MS:    usage.Ms(),
		},
	}
}
