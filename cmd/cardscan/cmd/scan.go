package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/frame"
	"github.com/MeKo-Tech/cardscan/internal/pipeline"
)

// scanCmd replays images as a live frame sequence through a scan session.
var scanCmd = &cobra.Command{
	Use:   "scan [image or directory ...]",
	Short: "Scan a frame sequence for payment cards",
	Long: `Replay image files or directories as a camera frame sequence and scan it
for payment cards. Frames arriving while a card is being read are dropped,
exactly like a live camera feed. Results are printed as JSON lines.

Examples:
  cardscan scan ./frames
  cardscan scan ./frames --fps 15 --watch
  cardscan scan card1.jpg card2.jpg --confirm --holder-name`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return err
		}
		overlays, _ := cmd.Flags().GetBool("overlays")
		confirm, _ := cmd.Flags().GetBool("confirm")
		showStats, _ := cmd.Flags().GetBool("stats")

		src, err := frame.NewDirSource(frame.DirOptions{FPS: cfg.Source.FPS, Watch: cfg.Source.Watch}, args...)
		if err != nil {
			if errors.Is(err, frame.ErrNoSource) {
				slog.Error("Capture source unavailable", "error", err)
			}
			return err
		}
		defer func() { _ = src.Close() }()

		presenter := newJSONLinesPresenter(cmd.OutOrStdout(), overlays)
		if confirm {
			presenter.withConfirm(cmd.InOrStdin(), cmd.ErrOrStderr())
		}

		scanner, err := pipeline.NewBuilder().
			WithConfig(cfg.ToPipelineConfig()).
			WithPresenter(presenter).
			WithLogger(slog.Default()).
			Build()
		if err != nil {
			return fmt.Errorf("failed to build scan pipeline: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		slog.Info("Starting scan", "source", src.ID(), "fps", cfg.Source.FPS, "watch", cfg.Source.Watch)
		runErr := scanner.Run(ctx, src)
		if errors.Is(runErr, context.Canceled) {
			runErr = nil
		}
		if err := scanner.Close(); err != nil {
			slog.Warn("Failed to close scanner", "error", err)
		}
		if showStats {
			presenter.writeStats(scanner.Stats())
		}
		return runErr
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	addPipelineFlags(scanCmd)
	scanCmd.Flags().Float64("fps", 30, "replay rate in frames per second (0 = as fast as possible)")
	scanCmd.Flags().Bool("watch", false, "keep watching directories for new frames")
	scanCmd.Flags().Bool("confirm", false, "wait for Enter after each result before scanning on")
	scanCmd.Flags().Bool("overlays", false, "also print overlay show/clear events")
	scanCmd.Flags().Bool("stats", false, "print session statistics when the sequence ends")
}
