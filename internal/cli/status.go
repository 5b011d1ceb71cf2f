package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/forgeworks/testforge/internal/config"
	apperrors "github.com/forgeworks/testforge/internal/errors"
	"github.com/forgeworks/testforge/internal/history"
	"github.com/forgeworks/testforge/internal/state"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [key]",
		Short: "Show recorded pipeline runs",
		Long: `Show recorded pipeline runs.

Without arguments, lists the durable state of every known run plus the
recent run history. With a key, shows that run's gate-by-gate detail.`,
		Args: cobra.MaximumNArgs(1),
		RunE: showStatus,
	}
	cmd.Flags().IntP("limit", "n", 10, "Number of history entries to show")
	return cmd
}

func showStatus(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fail(apperrors.WrapWithMessage(err, apperrors.Configuration, "loading configuration"))
	}
	store := state.NewStore(cfg.StateDir)

	if len(args) == 1 {
		return showRunDetail(store, args[0])
	}

	keys, err := store.ListKeys()
	if err != nil {
		return fail(apperrors.Wrap(err, apperrors.Runtime))
	}
	if len(keys) == 0 {
		return fail(apperrors.NoPipelineRuns())
	}

	fmt.Println("Pipeline runs:")
	for _, key := range keys {
		ps, err := store.LoadPipelineState(key)
		if err != nil {
			fmt.Printf("  %-40s (unreadable: %v)\n", key, err)
			continue
		}
		fmt.Printf("  %-40s %-12s gates done %d  updated %s\n",
			key, statusLabel(ps.Status), len(ps.CompletedGates),
			ps.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	printHistory(cfg.StateDir, limit)
	return nil
}

func showRunDetail(store *state.Store, key string) error {
	ps, err := store.LoadPipelineState(key)
	if err != nil {
		if os.IsNotExist(err) {
			return fail(apperrors.RunNotFound(key))
		}
		return fail(apperrors.Wrap(err, apperrors.Runtime))
	}

	fmt.Printf("%s  %s\n", key, statusLabel(ps.Status))
	fmt.Printf("  request %s  url %s\n", ps.Metadata.RequestID, ps.Metadata.URL)
	fmt.Printf("  current gate %d  completed %v\n", ps.CurrentGate, ps.CompletedGates)

	for gate := 0; gate <= 5; gate++ {
		res, err := store.LoadGateResult(key, gate)
		if err != nil {
			continue
		}
		fmt.Printf("  gate %d %-18s %-8s score %3d  recorded %s\n",
			res.Gate, res.Worker, res.Status, res.Validation.Score,
			res.RecordedAt.Format("15:04:05"))
		for _, issue := range res.Validation.Issues {
			fmt.Printf("      - %s\n", issue)
		}
	}

	if log, err := store.LoadHealingLog(key); err == nil && len(log.Attempts) > 0 {
		fmt.Printf("  healing attempts:\n")
		for _, a := range log.Attempts {
			fmt.Printf("    #%d %-8s signature %.12s  at %s\n",
				a.Attempt, a.Outcome, a.Signature, a.At.Format("15:04:05"))
		}
	}
	return nil
}

func printHistory(stateDir string, limit int) {
	log, err := history.Load(stateDir)
	if err != nil || len(log.Entries) == 0 {
		return
	}
	entries := log.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	fmt.Println("\nRecent runs:")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Printf("  %-32s %-40s %-9s gates %d  %s\n",
			e.ID, e.Key, e.Status, e.GatesCompleted, e.Duration)
	}
}

func statusLabel(s state.Status) string {
	switch s {
	case state.StatusSuccess:
		return color.GreenString(string(s))
	case state.StatusPartial:
		return color.YellowString(string(s))
	case state.StatusFailed:
		return color.RedString(string(s))
	default:
		return string(s)
	}
}
