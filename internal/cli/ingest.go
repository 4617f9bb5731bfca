package cli

import (
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/ricksonbnd/QuimIAca/internal/adapter/fs"
	"github.com/ricksonbnd/QuimIAca/internal/adapter/store"
	"github.com/ricksonbnd/QuimIAca/internal/usecase"
)

var (
	ingestReset bool
	ingestWatch bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Index new lesson files",
	Long: `Index every PDF or text file in the source folder that is not indexed yet.
Known files are skipped, so running ingest twice adds nothing the second time.

Examples:
  quimiaca ingest            # Index new files once
  quimiaca ingest --watch    # Keep indexing files as they are dropped in
  quimiaca ingest --reset    # Wipe the index and the source folder`,
	Args: cobra.NoArgs,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "delete the index, metadata and source files (keeps the sentinel)")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep running and ingest files as they appear")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if ingestReset && ingestWatch {
		return fmt.Errorf("cannot specify both --reset and --watch")
	}
	if err := cfg.EnsureDirs(); err != nil {
		return fmt.Errorf("failed to create data directories: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return err
	}

	// Reset never loads the index, so it also clears one that no longer opens.
	if ingestReset {
		opts := storeOptions(cfg, embedder, false)
		res, err := usecase.ResetAll(ctx, func() error { return store.Remove(opts) },
			cfg.Paths.Sources, cfg.Paths.Sentinel, GetLogger())
		if err != nil {
			return fmt.Errorf("reset failed: %w", err)
		}
		fmt.Printf("Index cleared. Removed %d source file(s).\n", res.SourcesRemoved)
		return nil
	}

	st, err := openStore(cfg, embedder, false)
	if err != nil {
		return err
	}
	defer st.Close()

	uc, err := buildIngest(cfg, st, embedder)
	if err != nil {
		return err
	}

	if ingestWatch {
		w := fs.NewWatcher(cfg.Paths.Sources, buildLister(cfg), fs.DefaultDebounce, GetLogger())
		fmt.Printf("Watching %s (Ctrl+C to stop)...\n", cfg.Paths.Sources)
		err := uc.Watch(ctx, w, func(res *usecase.IngestResult) {
			if !res.NoOp {
				printIngestResult(res)
			}
		})
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch failed: %w", err)
		}
		return nil
	}

	fmt.Printf("Scanning %s...\n", cfg.Paths.Sources)
	uc.Progress = newProgress("Extracting")

	res, err := uc.Ingest(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	printIngestResult(res)
	fmt.Printf("\nIndex stored at: %s\n", cfg.Paths.Index)
	return nil
}

// newProgress returns a progress callback that lazily creates a bar once
// the total is known.
func newProgress(label string) func(done, total int, name string) {
	var (
		bar       *progressbar.ProgressBar
		mu        sync.Mutex
		startTime time.Time
	)
	return func(done, total int, name string) {
		mu.Lock()
		defer mu.Unlock()

		if bar == nil {
			startTime = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]"+label+"[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		bar.Set(done)

		if done > 0 && done < total {
			elapsed := time.Since(startTime)
			rate := float64(done) / elapsed.Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]%s[reset] %s ETA: %s", label, name, formatDuration(eta)))
			}
		}
	}
}

func printIngestResult(res *usecase.IngestResult) {
	if res.NoOp {
		fmt.Println("\nNothing new to index.")
	} else {
		fmt.Printf("\nIngestion complete:\n")
	}
	fmt.Printf("  Files indexed:  %d\n", res.FilesIndexed)
	fmt.Printf("  Files known:    %d (already indexed)\n", res.FilesKnown)
	fmt.Printf("  Files skipped:  %d\n", res.FilesSkipped)
	fmt.Printf("  Chunks added:   %d\n", res.ChunksAdded)
	fmt.Printf("  Total chunks:   %d\n", res.TotalChunks)
	fmt.Printf("  Index state:    %s\n", res.State)
	if res.Retrained {
		fmt.Println("  Index retrained on the full corpus.")
	}

	if len(res.Skipped) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, s := range res.Skipped {
			fmt.Printf("  - %s: %s\n", s.Name, s.Reason)
		}
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
