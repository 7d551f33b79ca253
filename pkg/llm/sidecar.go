package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultSidecarURL = "http://localhost:8001"

// SidecarClient talks to the sentence-transformers service: POST /embed
// takes {"text"} and returns {"embedding"}, POST /embed_batch takes
// {"texts"} and returns {"embeddings"}.
type SidecarClient struct {
	baseURL string
	http    *http.Client
}

func NewSidecarClient(baseURL string, timeout time.Duration) *SidecarClient {
	if baseURL == "" {
		baseURL = DefaultSidecarURL
	}
	return &SidecarClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type embedBatchRequest struct {
	Texts []string `json:"texts"`
}

type embedBatchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// CreateEmbedding implements embeddings.EmbedderClient. A single text goes
// to /embed, anything else to /embed_batch.
func (c *SidecarClient) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 1 {
		var resp embedResponse
		if err := c.post(ctx, "/embed", embedRequest{Text: texts[0]}, &resp); err != nil {
			return nil, err
		}
		if resp.Embedding == nil {
			return nil, fmt.Errorf("no embedding returned")
		}
		return [][]float32{resp.Embedding}, nil
	}

	var resp embedBatchResponse
	if err := c.post(ctx, "/embed_batch", embedBatchRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if resp.Embeddings == nil {
		return nil, fmt.Errorf("no embeddings returned")
	}
	return resp.Embeddings, nil
}

func (c *SidecarClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}
