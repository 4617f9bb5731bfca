package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/config"
	"github.com/ricksonbnd/QuimIAca/internal/logger"
)

var (
	cfgFile string
	cfg     *config.Config
	rootDir string
	verbose bool
	log     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "quimiaca",
	Short: "QuimIAca - chemistry tutor grounded on your lesson material",
	Long: `QuimIAca indexes lesson PDFs and text files into a local vector index
and answers student questions with passages retrieved from that material.

Example usage:
  quimiaca ingest                          # Index new files in dados/aulas_originais
  quimiaca query -q "ligação covalente"    # Show the closest passages
  quimiaca ask -q "o que é um mol?"        # Ask the tutor once
  quimiaca chat                            # Interactive session`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}
		rootDir, err = filepath.Abs(rootDir)
		if err != nil {
			return fmt.Errorf("invalid root directory: %w", err)
		}

		// A missing .env is normal.
		_ = godotenv.Load(filepath.Join(rootDir, ".env"))

		var loaded *config.Config
		if cfgFile != "" {
			loaded, err = config.Load(cfgFile)
		} else {
			loaded, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded.Resolve(rootDir)

		level := cfg.Logging.Level
		if verbose {
			level = "debug"
		}
		log = logger.New(os.Stderr, level)
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./quimiaca.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "root directory holding dados/ (default is current directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}

func GetLogger() *slog.Logger {
	if log == nil {
		return logger.Discard()
	}
	return log
}
