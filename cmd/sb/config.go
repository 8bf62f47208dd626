// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"

	"github.com/slicebuild/sb/internal/config"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `sb config` command tree.
func newConfigCommand(app *App, rf *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sb configuration",
		Long: `Manage sb configuration.

Configuration is stored in:
  - Linux: ~/.config/sb/config.cue
  - macOS: ~/Library/Application Support/sb/config.cue
  - Windows: %APPDATA%\sb\config.cue

Every field can be overridden with an SB_ environment variable, for
example SB_SLICES_ROOT or SB_FETCH_REPO.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.showConfig(cmd.Context(), rf); err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, exists, err := config.FilePath(config.LoadOptions{ConfigFilePath: rf.configPath})
			if err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			fmt.Fprintln(app.stdout, path)
			if !exists {
				fmt.Fprintln(app.stderr, SubtitleStyle.Render("(file does not exist, defaults are in use)"))
			}
			return nil
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.Save(config.DefaultConfig(), config.LoadOptions{ConfigFilePath: rf.configPath}, force)
			if err != nil {
				return app.fail(cmd, err, rf.verbose)
			}
			fmt.Fprintf(app.stdout, "%s Created %s\n", successIcon, path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing configuration file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "validate [file]",
		Short: "Check a configuration file against the schema",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rf.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, _, err = config.FilePath(config.LoadOptions{}); err != nil {
					return app.fail(cmd, err, rf.verbose)
				}
			}
			if err := config.ValidateFile(path); err != nil {
				return app.fail(cmd, fmt.Errorf("%w: %w", config.ErrInvalidConfig, err), rf.verbose)
			}
			fmt.Fprintf(app.stdout, "%s %s is valid\n", successIcon, path)
			return nil
		},
	})

	return cfgCmd
}

func (app *App) showConfig(ctx context.Context, rf *rootFlagValues) error {
	cfg, err := app.loadConfig(ctx, rf)
	if err != nil {
		return err
	}
	source := cfg.Source
	if source == "" {
		source = "defaults"
	}
	fmt.Fprintln(app.stdout, SubtitleStyle.Render("// source: "+source))
	fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
	return nil
}
