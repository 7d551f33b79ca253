package llm

import (
	"context"
	"fmt"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient embeds through the OpenAI embeddings API or any server that
// speaks it.
type OpenAIClient struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" && baseURL == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
	}, nil
}

// CreateEmbedding implements embeddings.EmbedderClient.
func (c *OpenAIClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := c.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: c.model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		out[i] = d.Embedding
	}
	return out, nil
}
