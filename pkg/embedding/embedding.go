// Package embedding talks to the sentence embedding sidecar.
//
// The sidecar serves a sentence-transformers model over HTTP and
// returns 384 dimension vectors. Recipes and ingredients are embedded
// through it for semantic search and ingredient matching.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrEmptyInput = errors.New("nothing to embed")

type Embedder interface {
	// Embed returns the embedding of a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one embedding per text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type Config struct {
	BaseUrl string        `yaml:"baseUrl"`
	ApiKey  string        `yaml:"apiKey"`
	Timeout time.Duration `yaml:"timeout"`
}

func (c *Config) UnmarshalYAML(node *yaml.Node) error {
	raw := struct {
		BaseUrl string `yaml:"baseUrl"`
		ApiKey  string `yaml:"apiKey"`
		Timeout string `yaml:"timeout"`
	}{}
	if err := node.Decode(&raw); err != nil {
		return err
	}

	c.BaseUrl = raw.BaseUrl
	c.ApiKey = raw.ApiKey
	if raw.Timeout != "" {
		d, err := time.ParseDuration(raw.Timeout)
		if err != nil {
			return err
		}
		c.Timeout = d
	}
	return nil
}

type client struct {
	baseUrl    string
	apiKey     string
	httpClient *http.Client
}

func New(conf Config) Embedder {
	timeout := conf.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &client{
		baseUrl:    conf.BaseUrl,
		apiKey:     conf.ApiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type embedRequest struct {
	Text      string `json:"text"`
	Normalize bool   `json:"normalize"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type embedBatchRequest struct {
	Texts     []string `json:"texts"`
	Normalize bool     `json:"normalize"`
}

type embedBatchResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	parsed := new(embedResponse)
	if err := c.post(ctx, "/embed", embedRequest{Text: text, Normalize: true}, parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embedding) == 0 {
		return nil, errors.New("embedding sidecar returned no vector")
	}
	return parsed.Embedding, nil
}

func (c *client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	parsed := new(embedBatchResponse)
	if err := c.post(ctx, "/embed/batch", embedBatchRequest{Texts: texts, Normalize: true}, parsed); err != nil {
		return nil, err
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, fmt.Errorf(
			"embedding sidecar returned %d vectors for %d texts",
			len(parsed.Embeddings), len(texts),
		)
	}
	return parsed.Embeddings, nil
}

func (c *client) post(ctx context.Context, path string, payload any, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseUrl+path, bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf(
			"embedding sidecar responded %d: %s", resp.StatusCode, string(payload),
		)
	}

	return json.NewDecoder(resp.Body).Decode(result)
}
