package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

func TestHashEmbedder_Deterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	ctx := context.Background()

	texts := []string{"A ligação covalente compartilha elétrons.", "Ácidos liberam íons H+ em água."}
	batched, err := e.Embed(ctx, texts)
	if err != nil {
		t.Fatal(err)
	}
	if len(batched) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(batched))
	}

	for i, text := range texts {
		single, err := e.Embed(ctx, []string{text})
		if err != nil {
			t.Fatal(err)
		}
		if len(single[0]) != 64 {
			t.Fatalf("expected dimension 64, got %d", len(single[0]))
		}
		for j := range single[0] {
			if single[0][j] != batched[i][j] {
				t.Fatalf("text %d: single and batched embeddings differ at %d", i, j)
			}
		}
	}
}

func TestHashEmbedder_Similarity(t *testing.T) {
	e := NewHashEmbedder(256)
	vecs, err := e.Embed(context.Background(), []string{
		"ligação covalente elétrons compartilhados",
		"elétrons compartilhados na ligação covalente",
		"tabela periódica metais alcalinos",
	})
	if err != nil {
		t.Fatal(err)
	}

	near := squaredL2(vecs[0], vecs[1])
	far := squaredL2(vecs[0], vecs[2])
	if near >= far {
		t.Errorf("expected shared vocabulary to be closer: near=%f far=%f", near, far)
	}
}

func TestHashEmbedder_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHashEmbedder(8).Embed(ctx, []string{"x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// fakeServer answers /embeddings with vectors [len(text), 1, ...] sized dim,
// listing the data items in reverse order.
func fakeServer(t *testing.T, dim int, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embeddingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		calls.Add(1)

		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		data := make([]item, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			vec := make([]float64, dim)
			vec[0] = float64(len(req.Input[i]))
			for j := 1; j < dim; j++ {
				vec[j] = 1
			}
			data = append(data, item{Object: "embedding", Index: i, Embedding: vec})
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  req.Model,
			"usage":  map[string]int{"prompt_tokens": 1, "total_tokens": 1},
		})
	}))
}

func TestOpenAIEmbedder_BatchesInOrder(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, 3, &calls)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(Config{
		BaseURL:   srv.URL + "/v1",
		Model:     "test-model",
		Dimension: 3,
		BatchSize: 2,
		Workers:   3,
	})
	if err != nil {
		t.Fatal(err)
	}

	texts := []string{"a", "bb", "ccc", "dddd", "eeeee"}
	vecs, err := e.Embed(context.Background(), texts)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := calls.Load(); n != 3 {
		t.Errorf("expected 3 sub-batch requests, got %d", n)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d vectors, got %d", len(texts), len(vecs))
	}
	for i, text := range texts {
		if int(vecs[i][0]) != len(text) {
			t.Errorf("vector %d belongs to another text: %v", i, vecs[i])
		}
	}
	if e.ModelName() != "test-model" || e.Dimension() != 3 {
		t.Errorf("unexpected model info %s/%d", e.ModelName(), e.Dimension())
	}
}

func TestOpenAIEmbedder_DimensionMismatch(t *testing.T) {
	var calls atomic.Int32
	srv := fakeServer(t, 2, &calls)
	defer srv.Close()

	e, err := NewOpenAIEmbedder(Config{BaseURL: srv.URL + "/v1", Model: "m", Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.Embed(context.Background(), []string{"texto"})
	if !errors.Is(err, domain.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestOpenAIEmbedder_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	e, err := NewOpenAIEmbedder(Config{BaseURL: url + "/v1", Model: "m", Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.Embed(context.Background(), []string{"texto"}); err == nil {
		t.Error("expected error for unreachable backend")
	}
}

func TestOpenAIEmbedder_EmptyInput(t *testing.T) {
	e, err := NewOpenAIEmbedder(Config{Model: "m", Dimension: 3})
	if err != nil {
		t.Fatal(err)
	}
	vecs, err := e.Embed(context.Background(), nil)
	if err != nil || vecs != nil {
		t.Errorf("expected no work for empty input, got %v, %v", vecs, err)
	}
}

func TestNewOpenAIEmbedder_InvalidConfig(t *testing.T) {
	if _, err := NewOpenAIEmbedder(Config{Dimension: 3}); err == nil {
		t.Error("expected error without model")
	}
	if _, err := NewOpenAIEmbedder(Config{Model: "m"}); err == nil {
		t.Error("expected error without dimension")
	}
}

func squaredL2(a, b []float32) float32 {
	var d float32
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}
