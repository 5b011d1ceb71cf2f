package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/forgeworks/testforge/internal/config"
	apperrors "github.com/forgeworks/testforge/internal/errors"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the testforge configuration",
	}
	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	return cmd
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the global config file with defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.GlobalPath()
			if err != nil {
				return fail(apperrors.Wrap(err, apperrors.Runtime))
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := config.WriteDefault(path, force); err != nil {
				return fail(apperrors.Wrap(err, apperrors.Configuration,
					"pass --force to overwrite the existing file"))
			}
			fmt.Printf("Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing config file")
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			cfg, err := config.Load(configPath)
			if err != nil {
				return fail(apperrors.WrapWithMessage(err, apperrors.Configuration, "loading configuration"))
			}
			data, err := json.MarshalIndent(cfg, "", "  ")
			if err != nil {
				return fail(apperrors.Wrap(err, apperrors.Runtime))
			}
			fmt.Println(string(data))
			return nil
		},
	}
}
