package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forgeworks/testforge/internal/config"
	apperrors "github.com/forgeworks/testforge/internal/errors"
	"github.com/forgeworks/testforge/internal/history"
	"github.com/forgeworks/testforge/internal/state"
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean [key]",
		Short: "Remove durable pipeline state",
		Long: `Remove durable pipeline state.

With a key, removes that run's records. With --all, removes every run and
clears the run history. Prompts before destructive operations unless --yes
is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: cleanState,
	}
	cmd.Flags().Bool("all", false, "Remove state for every run")
	cmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func cleanState(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fail(apperrors.WrapWithMessage(err, apperrors.Configuration, "loading configuration"))
	}
	store := state.NewStore(cfg.StateDir)

	all, _ := cmd.Flags().GetBool("all")
	yes, _ := cmd.Flags().GetBool("yes")

	switch {
	case all && len(args) > 0:
		return fail(apperrors.InvalidFlagCombination("--all with a key", "pick one"))
	case all:
		keys, err := store.ListKeys()
		if err != nil {
			return fail(apperrors.Wrap(err, apperrors.Runtime))
		}
		if len(keys) == 0 {
			fmt.Println("Nothing to clean.")
			return nil
		}
		if !yes && !confirm(fmt.Sprintf("Remove state for %d run(s) and clear history?", len(keys))) {
			fmt.Println("Aborted.")
			return nil
		}
		for _, key := range keys {
			if err := store.Delete(key); err != nil {
				return fail(apperrors.Wrap(err, apperrors.Runtime))
			}
		}
		if err := history.Clear(cfg.StateDir); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to clear run history: %v\n", err)
		}
		fmt.Printf("Removed state for %d run(s).\n", len(keys))
		return nil
	case len(args) == 1:
		key := args[0]
		if _, err := store.LoadPipelineState(key); err != nil {
			if os.IsNotExist(err) {
				return fail(apperrors.RunNotFound(key))
			}
			return fail(apperrors.Wrap(err, apperrors.Runtime))
		}
		if !yes && !confirm(fmt.Sprintf("Remove state for %q?", key)) {
			fmt.Println("Aborted.")
			return nil
		}
		if err := store.Delete(key); err != nil {
			return fail(apperrors.Wrap(err, apperrors.Runtime))
		}
		fmt.Printf("Removed state for %s.\n", key)
		return nil
	default:
		return fail(apperrors.NewArgumentErrorWithUsage(
			"nothing to clean", "testforge clean <key> | testforge clean --all"))
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}
