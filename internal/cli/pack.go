package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

var (
	packQuery  string
	packBudget int
	packOutput string
	packTopK   int
)

var packCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack retrieved passages into a token budget",
	Long: `Retrieve passages for a question and pack those that fit the token budget,
merging adjacent chunks of the same lesson. The result is the context the
tutor would hand to the completion model.

Examples:
  quimiaca pack -q "como balancear equações"
  quimiaca pack -q "ácidos e bases" -b 800 -o contexto.json`,
	RunE: runPack,
}

func init() {
	rootCmd.AddCommand(packCmd)
	packCmd.Flags().StringVarP(&packQuery, "query", "q", "", "search query (required)")
	packCmd.Flags().IntVarP(&packBudget, "budget", "b", 0, "token budget (default from config)")
	packCmd.Flags().StringVarP(&packOutput, "output", "o", "", "output file (default: stdout)")
	packCmd.Flags().IntVarP(&packTopK, "top-k", "k", 0, "candidate pool size (default from config)")
	packCmd.MarkFlagRequired("query")
}

func runPack(cmd *cobra.Command, args []string) error {
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

	topK := cfg.Completion.TopK
	if packTopK > 0 {
		topK = packTopK
	}
	budget := cfg.Completion.ContextTokens
	if packBudget > 0 {
		budget = packBudget
	}

	hits, err := buildRetriever(cfg, st, embedder).Query(cmd.Context(), packQuery, topK)
	if errors.Is(err, domain.ErrIndexNotReady) {
		return fmt.Errorf("no index found. Run 'quimiaca ingest' first")
	}
	if err != nil {
		return fmt.Errorf("retrieval failed: %w", err)
	}

	packed := usecase.NewPackUseCase(buildCounter(cfg)).Pack(packQuery, hits, budget)

	output, err := json.MarshalIndent(packed, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}

	if packOutput != "" {
		if err := os.WriteFile(packOutput, output, 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Context packed to: %s\n", packOutput)
		fmt.Printf("  Passages: %d\n", len(packed.Passages))
		fmt.Printf("  Tokens:   %d / %d\n", packed.UsedTokens, packed.BudgetTokens)
	} else {
		fmt.Println(string(output))
	}
	return nil
}
