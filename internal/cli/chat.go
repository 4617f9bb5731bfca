package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/internal/tui"
	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

var chatPersonality string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive tutoring session",
	Long: `Open a terminal chat bound to one session. Every turn is recorded in the
history log.

Examples:
  quimiaca chat
  quimiaca chat --personality professor`,
	Args: cobra.NoArgs,
	RunE: runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatPersonality, "personality", "p", "", "personality template (default from config)")
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	personality := cfg.Completion.Personality
	if chatPersonality != "" {
		personality = chatPersonality
	}

	app, err := buildTutor(cfg, true)
	if err != nil {
		return err
	}
	defer app.Close()

	// Fail before the screen takes over the terminal.
	if _, err := app.tutor.BuildPrompt(personality, "", nil); err != nil {
		return err
	}

	session := usecase.NewSession(personality)
	p := tea.NewProgram(tui.New(cmd.Context(), app.tutor, session), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("chat failed: %w", err)
	}
	fmt.Printf("Session %s: %d question(s).\n", session.ID, len(session.Interactions))
	return nil
}
