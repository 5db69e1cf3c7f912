package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"soundpills/internal/config"
	"soundpills/internal/logging"
	"soundpills/internal/session"
	"soundpills/internal/spawn"
	"soundpills/internal/tui"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var headless bool
	var duration time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start a listening session",
		Long: "Start a listening session. On a terminal the canvas is drawn full screen;\n" +
			"with --headless (or when stdout is not a terminal) spawns are logged and a\n" +
			"summary is printed when the session ends.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if duration < 0 {
				return fmt.Errorf("--duration must not be negative")
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if headless || !isTerminal(cmd.OutOrStdout()) {
				return runHeadless(runCtx, cfg, duration, cmd.OutOrStdout())
			}
			return runInteractive(runCtx, cfg)
		},
	}

	cmd.Flags().BoolVar(&headless, "headless", false, "Run without the terminal canvas")
	cmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 runs until interrupted)")
	return cmd
}

func runHeadless(ctx context.Context, cfg *config.Config, duration time.Duration, out io.Writer) error {
	logger, err := logging.NewFromConfig(cfg, true)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	s, err := session.New(cfg, session.WithLogger(logger))
	if err != nil {
		return err
	}
	stats, err := session.RunHeadless(ctx, s, duration)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, renderFields(statsFields(stats)))
	return nil
}

func runInteractive(ctx context.Context, cfg *config.Config) error {
	logger, err := logging.NewFromConfig(cfg, false)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	status := &tui.StatusLine{}
	logger = logging.TeeLogger(logger, status.Handler())

	canvas := &spawn.ResizableCanvas{}
	s, err := session.New(cfg, session.WithLogger(logger), session.WithCanvas(canvas))
	if err != nil {
		return err
	}
	return tui.Run(ctx, s, tui.Options{
		Frame:        cfg.FrameInterval(),
		Canvas:       canvas,
		Status:       status,
		PointerSpawn: cfg.Spawn.PointerSpawn,
	})
}

func statsFields(stats session.Stats) [][2]string {
	audioState := string(stats.AudioState)
	if stats.AudioErr != nil {
		audioState += " (" + stats.AudioErr.Error() + ")"
	}
	contentState := fmt.Sprintf("%s, %d item(s)", stats.Title, stats.Items)
	if stats.ContentErr != nil {
		contentState = "unavailable (" + stats.ContentErr.Error() + ")"
	}
	return [][2]string{
		{"Session", stats.ID},
		{"Started", formatTimestamp(stats.StartedAt)},
		{"Elapsed", stats.Elapsed.Round(time.Millisecond).String()},
		{"Spawned", strconv.FormatInt(stats.Spawned, 10)},
		{"Live at exit", strconv.Itoa(stats.Live)},
		{"Audio", audioState},
		{"Content", contentState},
	}
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
