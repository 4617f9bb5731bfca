package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/internal/adapter/persona"
	"github.com/ricksonbnd/QuimIAca/internal/domain"
	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

var (
	promptCtx         string
	promptQuery       string
	promptPersonality string
	promptList        bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Render a personality prompt from packed context",
	Long: `Render the prompt the tutor would send, from a context file written by
'quimiaca pack -o'. Useful to try personalities without a completion backend.

Examples:
  quimiaca prompt --ctx contexto.json
  quimiaca prompt --ctx contexto.json --personality professor -q "e o pH?"
  quimiaca prompt --list`,
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVar(&promptCtx, "ctx", "", "path to packed context JSON file")
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "override the question stored in the context")
	promptCmd.Flags().StringVarP(&promptPersonality, "personality", "p", "", "personality template (default from config)")
	promptCmd.Flags().BoolVar(&promptList, "list", false, "list available personalities")
}

func runPrompt(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	loader := persona.NewLoader(cfg.Paths.Personalities)

	if promptList {
		names, err := loader.Available()
		if err != nil {
			return fmt.Errorf("failed to list personalities: %w", err)
		}
		for _, n := range names {
			fmt.Println(n)
		}
		return nil
	}
	if promptCtx == "" {
		return fmt.Errorf("must specify either --ctx or --list")
	}

	ctxData, err := os.ReadFile(promptCtx)
	if err != nil {
		return fmt.Errorf("failed to read context file: %w", err)
	}
	var packed domain.PackedContext
	if err := json.Unmarshal(ctxData, &packed); err != nil {
		return fmt.Errorf("failed to parse context file: %w", err)
	}

	question := packed.Question
	if promptQuery != "" {
		question = promptQuery
	}
	name := cfg.Completion.Personality
	if promptPersonality != "" {
		name = promptPersonality
	}

	template, err := loader.Load(name)
	if err != nil {
		return err
	}
	fmt.Println(persona.Render(template, persona.FormatContext(usecase.Texts(packed)), question))
	return nil
}
