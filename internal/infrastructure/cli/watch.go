package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/specguard/internal/infrastructure/watch"
)

var (
	watchIDs      string
	watchDebounce time.Duration

	// watchOnce stops after the initial scan.
	watchOnce bool
)

var watchCmd = &cobra.Command{
	Use:   "watch [path]",
	Short: "Re-scan the project whenever files change",
	Long: `Watch runs a scan, then re-runs it after every batch of filesystem changes.
Changes are collected for the debounce window so a burst of saves triggers a
single scan. Stop with Ctrl+C.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ws, err := loadWorkspace(cmd, projectRoot(args))
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		req := ws.scanRequest(watchIDs)

		ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var mu sync.Mutex
		rescan := func() error {
			mu.Lock()
			defer mu.Unlock()
			report, err := ws.compliance.Scan(ctx, req)
			if err != nil {
				return err
			}
			renderReport(out, report)
			return nil
		}

		if err := rescan(); err != nil {
			return MapError(err)
		}
		if watchOnce {
			return nil
		}

		w, err := watch.NewFSWatcher(ws.root, watch.Options{
			Debounce: watchDebounce,
			Exclude:  ws.cfg.Exclude,
			Logger:   ws.logger,
		}, func(events []watch.ChangeEvent) {
			printChanges(out, events)
			if err := rescan(); err != nil && !errors.Is(err, context.Canceled) {
				fmt.Fprintln(out, errorStyle.Render("scan failed:")+" "+err.Error())
			}
		})
		if err != nil {
			return MapError(err)
		}

		fmt.Fprintln(out, hintStyle.Render(fmt.Sprintf("watching %s (Ctrl+C to stop)", w.Root())))
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	},
}

func printChanges(w io.Writer, events []watch.ChangeEvent) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%d changes at %s", len(events), time.Now().Format("15:04:05"))))
	for _, e := range events {
		fmt.Fprintf(w, "  %-6s %s\n", e.ChangeType, e.Path)
	}
	fmt.Fprintln(w)
}

func init() {
	addRuleFlags(watchCmd, &watchIDs)
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "quiet period before re-scanning")
	watchCmd.Flags().StringSlice("exclude", nil, "additional directory names to skip")
	RootCmd.AddCommand(watchCmd)
}
