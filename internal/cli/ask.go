package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

var (
	askQuestion    string
	askPersonality string
	askShowContext bool
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask the tutor one question",
	Long: `Retrieve passages for the question, render the personality prompt and ask
the completion model. The turn is recorded in the history log.

Examples:
  quimiaca ask -q "o que é eletronegatividade?"
  quimiaca ask -q "explique oxirredução" --personality professor`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuestion, "query", "q", "", "question (required)")
	askCmd.Flags().StringVarP(&askPersonality, "personality", "p", "", "personality template (default from config)")
	askCmd.Flags().BoolVar(&askShowContext, "show-context", false, "print the passages used")
	askCmd.MarkFlagRequired("query")
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	app, err := buildTutor(cfg, true)
	if err != nil {
		return err
	}
	defer app.Close()

	personality := cfg.Completion.Personality
	if askPersonality != "" {
		personality = askPersonality
	}
	session := usecase.NewSession(personality)

	answer, err := app.tutor.Ask(cmd.Context(), session, askQuestion)
	if errors.Is(err, domain.ErrIndexNotReady) {
		return fmt.Errorf("no index found. Run 'quimiaca ingest' first")
	}
	if err != nil {
		return err
	}

	if askShowContext {
		for _, p := range answer.Context.Passages {
			fmt.Printf("--- %s %v ---\n%s\n\n", p.Source, p.Ordinals, truncate(p.Text, 500))
		}
	}
	fmt.Println(answer.Text)
	return nil
}
