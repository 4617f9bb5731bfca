package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/internal/adapter/history"
)

var (
	historyExport string
	historyLimit  int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List or export recorded tutoring turns",
	Long: `Show the question/answer turns recorded by ask and chat, oldest first.

Examples:
  quimiaca history
  quimiaca history -n 5
  quimiaca history --export interacoes.json`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyExport, "export", "", "write the whole log as JSON to this file")
	historyCmd.Flags().IntVarP(&historyLimit, "last", "n", 0, "only show the last n turns")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	h, err := history.Open(cfg.Paths.History)
	if err != nil {
		return err
	}
	defer h.Close()

	if historyExport != "" {
		n, err := h.Export(historyExport)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		fmt.Printf("Exported %d interaction(s) to %s\n", n, historyExport)
		return nil
	}

	items, err := h.List()
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("No interactions recorded.")
		return nil
	}
	if historyLimit > 0 && historyLimit < len(items) {
		items = items[len(items)-historyLimit:]
	}
	for _, it := range items {
		fmt.Printf("--- %s [%s] ---\n", it.CreatedAt.Local().Format("2006-01-02 15:04"), it.Personality)
		fmt.Printf("P: %s\n", it.Question)
		fmt.Printf("R: %s\n\n", truncate(it.Answer, 500))
	}
	return nil
}
