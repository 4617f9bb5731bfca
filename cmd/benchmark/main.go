package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ricksonbnd/QuimIAca/config"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/embedding"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/store"
	"github.com/ricksonbnd/QuimIAca/internal/port"
)

// exhaustive probes every inverted list.
const exhaustive = math.MaxInt32

func main() {
	rootDir := flag.String("dir", ".", "Root directory holding dados/")
	query := flag.String("q", "", "Query to test")
	queriesFile := flag.String("queries", "", "File with one query per line")
	topK := flag.Int("k", 5, "Number of results")
	probes := flag.String("nprobe", "1,2,4,8,16", "Comma-separated nprobe values to compare")
	flag.Parse()

	queries, err := loadQueries(*query, *queriesFile)
	if err != nil || len(queries) == 0 {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\" [-queries file] [-nprobe 1,4,8]")
		fmt.Println("\nReports, for each nprobe, recall@k against an exhaustive scan and mean search latency.")
		os.Exit(1)
	}
	nprobes, err := parseProbes(*probes)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -nprobe: %v\n", err)
		os.Exit(1)
	}

	root, _ := filepath.Abs(*rootDir)
	_ = godotenv.Load(filepath.Join(root, ".env"))
	cfg, err := config.LoadFromDir(root)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg = cfg.Resolve(root)

	embedder, err := setupEmbedder(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedder init failed: %v\n", err)
		os.Exit(1)
	}

	vectors, err := embedder.Embed(context.Background(), queries)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}

	exact := openStore(cfg, embedder, exhaustive)
	fmt.Println("IVF RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Chunks indexed: %d\n", exact.Count())
	fmt.Printf("Index state:    %s\n", exact.State())
	fmt.Printf("Model:          %s (%d dims)\n", embedder.ModelName(), embedder.Dimension())
	fmt.Printf("Queries:        %d, k=%d\n\n", len(queries), *topK)

	truth := make([]map[int]struct{}, len(vectors))
	for i, v := range vectors {
		hits, err := exact.Search(v, *topK)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
			os.Exit(1)
		}
		truth[i] = make(map[int]struct{}, len(hits))
		for _, h := range hits {
			truth[i][h.VectorID] = struct{}{}
		}
	}
	exact.Close()

	fmt.Printf("%-8s %-10s %s\n", "nprobe", "recall@k", "mean latency")
	fmt.Println(strings.Repeat("-", 70))
	for _, np := range nprobes {
		st := openStore(cfg, embedder, np)
		found, total := 0, 0
		var elapsed time.Duration
		for i, v := range vectors {
			start := time.Now()
			hits, err := st.Search(v, *topK)
			elapsed += time.Since(start)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
				os.Exit(1)
			}
			for _, h := range hits {
				if _, ok := truth[i][h.VectorID]; ok {
					found++
				}
			}
			total += len(truth[i])
		}
		st.Close()

		recall := 1.0
		if total > 0 {
			recall = float64(found) / float64(total)
		}
		fmt.Printf("%-8d %-10.3f %s\n", np, recall, elapsed/time.Duration(len(vectors)))
	}
}

func loadQueries(q, path string) ([]string, error) {
	var out []string
	if strings.TrimSpace(q) != "" {
		out = append(out, q)
	}
	if path == "" {
		return out, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, sc.Err()
}

func parseProbes(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("bad value %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func openStore(cfg *config.Config, embedder port.Embedder, nprobe int) *store.Store {
	st, err := store.Open(store.Options{
		IndexPath:    cfg.Paths.Index,
		MetadataPath: cfg.Paths.Metadata,
		StatusPath:   cfg.Paths.Status,
		Dimension:    embedder.Dimension(),
		Model:        embedder.ModelName(),
		NProbe:       nprobe,
		ReadOnly:     true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}
	if st.Count() == 0 {
		fmt.Fprintln(os.Stderr, "No chunks indexed - run 'quimiaca ingest' first")
		os.Exit(1)
	}
	return st
}

func setupEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "openai", "":
		return embedding.NewOpenAIEmbedder(embedding.Config{
			BaseURL:   cfg.Embedding.BaseURL,
			APIKey:    os.Getenv(cfg.Embedding.APIKeyEnv),
			Model:     cfg.Embedding.Model,
			Dimension: cfg.Embedding.Dimension,
			BatchSize: cfg.Embedding.BatchSize,
			Workers:   cfg.Embedding.Workers,
		})
	case "hash":
		return embedding.NewHashEmbedder(cfg.Embedding.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Embedding.Provider)
	}
}
