// Package embedding converts text into fixed-dimension vectors through an
// external gateway. The search engine only consumes the Gateway contract;
// providers are interchangeable.
package embedding

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ErrUnavailable is returned when the embedding gateway cannot produce a
// vector. Hybrid search recovers from it locally; pure semantic search
// surfaces it.
var ErrUnavailable = errors.New("embedding gateway unavailable")

// Gateway generates vector embeddings from text.
type Gateway interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// OpenAIGateway implements Gateway against the OpenAI embeddings API.
type OpenAIGateway struct {
	client    openai.Client
	model     string
	dimension int
}

// NewOpenAIGateway creates an OpenAI-backed gateway.
func NewOpenAIGateway(apiKey, model string) *OpenAIGateway {
	dimension := 1536
	if model == "text-embedding-3-large" {
		dimension = 3072
	}

	return &OpenAIGateway{
		client:    openai.NewClient(option.WithAPIKey(apiKey)),
		model:     model,
		dimension: dimension,
	}
}

// Dimension returns the vector length this gateway produces.
func (g *OpenAIGateway) Dimension() int {
	return g.dimension
}

// Embed generates an embedding for the given text.
func (g *OpenAIGateway) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := g.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: []string{text},
		},
		Model: openai.EmbeddingModel(g.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", errors.Join(ErrUnavailable, err))
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed text: empty response: %w", ErrUnavailable)
	}

	raw := resp.Data[0].Embedding
	vector := make([]float32, len(raw))
	for i, v := range raw {
		vector[i] = float32(v)
	}
	return vector, nil
}
