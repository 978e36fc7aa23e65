package embedding_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/utils/try"
)

type seen struct {
	path    string
	apiKey  string
	payload map[string]any
}

func sidecar(t *testing.T, record *seen, respond any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		record.path = r.URL.Path
		record.apiKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&record.payload); err != nil {
			t.Errorf("malformed request body: %+v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(respond); err != nil {
			t.Errorf("response error: %+v", err)
		}
	}))
}

func TestEmbed(t *testing.T) {
	t.Run("a single text goes to /embed with normalization on", func(t *testing.T) {
		record := seen{}
		server := sidecar(t, &record, map[string]any{"embedding": []float32{0.25, -0.5}})
		defer server.Close()

		testee := embedding.New(embedding.Config{BaseUrl: server.URL, ApiKey: "sesame"})
		vec := try.To(testee.Embed(context.Background(), "tomate")).OrFatal(t)

		if len(vec) != 2 || vec[0] != 0.25 || vec[1] != -0.5 {
			t.Errorf("unexpected vector: %+v", vec)
		}
		if record.path != "/embed" {
			t.Errorf("unexpected path: %s", record.path)
		}
		if record.apiKey != "sesame" {
			t.Errorf("unexpected api key: %s", record.apiKey)
		}
		if record.payload["text"] != "tomate" || record.payload["normalize"] != true {
			t.Errorf("unexpected payload: %+v", record.payload)
		}
	})

	t.Run("empty text is refused without a roundtrip", func(t *testing.T) {
		testee := embedding.New(embedding.Config{BaseUrl: "http://sidecar.invalid"})
		if _, err := testee.Embed(context.Background(), ""); !errors.Is(err, embedding.ErrEmptyInput) {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}

func TestEmbedBatch(t *testing.T) {
	t.Run("texts go to /embed/batch and vectors come back in order", func(t *testing.T) {
		record := seen{}
		server := sidecar(t, &record, map[string]any{
			"embeddings": [][]float32{{1}, {2}},
		})
		defer server.Close()

		testee := embedding.New(embedding.Config{BaseUrl: server.URL})
		vecs := try.To(testee.EmbedBatch(context.Background(), []string{"sel", "poivre"})).OrFatal(t)

		if len(vecs) != 2 || vecs[0][0] != 1 || vecs[1][0] != 2 {
			t.Errorf("unexpected vectors: %+v", vecs)
		}
		if record.path != "/embed/batch" {
			t.Errorf("unexpected path: %s", record.path)
		}
		if record.payload["normalize"] != true {
			t.Errorf("unexpected payload: %+v", record.payload)
		}
	})

	t.Run("a vector count mismatch is an error", func(t *testing.T) {
		record := seen{}
		server := sidecar(t, &record, map[string]any{
			"embeddings": [][]float32{{1}},
		})
		defer server.Close()

		testee := embedding.New(embedding.Config{BaseUrl: server.URL})
		if _, err := testee.EmbedBatch(context.Background(), []string{"sel", "poivre"}); err == nil {
			t.Error("an error is expected")
		}
	})

	t.Run("no texts is refused without a roundtrip", func(t *testing.T) {
		testee := embedding.New(embedding.Config{BaseUrl: "http://sidecar.invalid"})
		if _, err := testee.EmbedBatch(context.Background(), nil); !errors.Is(err, embedding.ErrEmptyInput) {
			t.Errorf("unexpected error: %+v", err)
		}
	})

	t.Run("a sidecar failure is an error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model is loading", http.StatusServiceUnavailable)
		}))
		defer server.Close()

		testee := embedding.New(embedding.Config{BaseUrl: server.URL})
		if _, err := testee.EmbedBatch(context.Background(), []string{"sel"}); err == nil {
			t.Error("an error is expected")
		}
	})
}
