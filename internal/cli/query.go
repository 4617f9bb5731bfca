package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
)

var (
	queryText string
	queryTopK int
	queryJSON bool
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Search indexed lessons",
	Long: `Search for the passages closest to a question, ordered by ascending distance.

Examples:
  quimiaca query -q "tabela periódica"
  quimiaca query -q "estequiometria" -k 10 --json`,
	RunE: runQuery,
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().StringVarP(&queryText, "query", "q", "", "search query (required)")
	queryCmd.Flags().IntVarP(&queryTopK, "top-k", "k", 0, "number of results (default from config)")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output as JSON")
	queryCmd.MarkFlagRequired("query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}
	st, err := openStore(cfg, embedder, true)
	if err != nil {
		return err
	}
	defer st.Close()

	topK := cfg.Retrieve.TopK
	if queryTopK > 0 {
		topK = queryTopK
	}

	hits, err := buildRetriever(cfg, st, embedder).Query(cmd.Context(), queryText, topK)
	if errors.Is(err, domain.ErrIndexNotReady) {
		return fmt.Errorf("no index found. Run 'quimiaca ingest' first")
	}
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if queryJSON {
		output, _ := json.MarshalIndent(hits, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(hits) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	fmt.Printf("Found %d results for: %s\n\n", len(hits), queryText)
	for _, h := range hits {
		fmt.Printf("--- [%d] %s #%d (distance: %.4f) ---\n", h.Rank, h.Source, h.Ordinal, h.Distance)
		fmt.Println(truncate(h.Text, 500))
		fmt.Println()
	}
	return nil
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
