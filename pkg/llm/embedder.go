package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/xhad/docspace/internal/types"
	"github.com/xhad/docspace/pkg/vecmath"
)

// EmbedderConfig represents the configuration for the embedding gateway.
type EmbedderConfig struct {
	Provider  string
	BaseURL   string
	Model     string
	APIKey    string
	Timeout   time.Duration
	BatchSize int
	// Dimensions, when set, is enforced on every returned vector.
	Dimensions int
}

// Embedder is the embedding gateway. It hands texts to a provider client
// through langchaingo's batching embedder and returns unit-length vectors.
// Every failure is reported as a *types.GatewayError.
type Embedder struct {
	config   EmbedderConfig
	embedder embeddings.Embedder
}

var _ types.Embedder = (*Embedder)(nil)

// NewEmbedderWithConfig builds the provider client named by config.Provider
// and wraps it in a gateway.
func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	config = withDefaults(config)

	client, err := NewClient(config)
	if err != nil {
		return nil, err
	}
	return NewEmbedderWithClient(config, client)
}

// NewEmbedderWithClient wraps an existing provider client.
func NewEmbedderWithClient(config EmbedderConfig, client embeddings.EmbedderClient) (*Embedder, error) {
	config = withDefaults(config)

	emb, err := embeddings.NewEmbedder(client,
		embeddings.WithBatchSize(config.BatchSize),
		embeddings.WithStripNewLines(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return &Embedder{config: config, embedder: emb}, nil
}

func withDefaults(config EmbedderConfig) EmbedderConfig {
	if config.Provider == "" {
		config.Provider = ProviderSidecar
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 512
	}
	return config
}

// Config returns the effective configuration.
func (e *Embedder) Config() EmbedderConfig { return e.config }

// Embed returns the unit-length embedding of a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	vec, err := e.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, types.NewGatewayError("embed", err)
	}
	if err := e.check(0, vec); err != nil {
		return nil, types.NewGatewayError("embed", err)
	}
	vecmath.Normalize(vec)
	return vec, nil
}

// EmbedBatch returns one unit-length embedding per text, in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	vecs, err := e.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, types.NewGatewayError("embed batch", err)
	}
	if len(vecs) != len(texts) {
		return nil, types.NewGatewayError("embed batch",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(vecs)))
	}
	for i, v := range vecs {
		if err := e.check(i, v); err != nil {
			return nil, types.NewGatewayError("embed batch", err)
		}
		vecmath.Normalize(v)
	}
	return vecs, nil
}

var errEmptyEmbedding = errors.New("empty embedding")

func (e *Embedder) check(i int, v []float32) error {
	if len(v) == 0 {
		return fmt.Errorf("embedding %d: %w", i, errEmptyEmbedding)
	}
	if e.config.Dimensions > 0 && len(v) != e.config.Dimensions {
		return fmt.Errorf("embedding %d has dimension %d, want %d", i, len(v), e.config.Dimensions)
	}
	return nil
}
