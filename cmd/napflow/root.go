package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hammamikhairi/napflow/internal/display"
	"github.com/hammamikhairi/napflow/internal/domain"
)

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "napflow",
		Short:         "Power-nap timer with XP, levels and streaks",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), &flags)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "napflow.yaml", "path to the YAML config file")
	pf.StringVar(&flags.logFile, "log-file", "", "file to write logs to (use \"stderr\" to log to console)")
	pf.StringVar(&flags.store, "store", "", "storage backend: memory|file|sqlite|postgres")
	pf.StringVar(&flags.identity, "identity", "", "profile identity to use")
	pf.BoolVar(&flags.verbose, "verbose", false, "enable verbose/debug logging")
	pf.BoolVar(&flags.quiet, "quiet", false, "disable all logging")
	pf.BoolVar(&flags.noSound, "no-sound", false, "do not play the alarm tone")

	root.AddCommand(
		newRunCmd(&flags),
		newPresetsCmd(&flags),
		newStatsCmd(&flags),
		newHistoryCmd(&flags),
		newRenameCmd(&flags),
		newResetCmd(&flags),
		newConfigCmd(&flags),
	)
	return root
}

func newRunCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Start the interactive nap timer (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInteractive(cmd.Context(), flags)
		},
	}
}

func newPresetsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "List the built-in nap lengths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := setup(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			selected, err := e.cfg.NapConfig()
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), display.RenderPresets(selected))
			return nil
		},
	}
}

func newStatsCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show level progress and this week's naps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)
			e, err := setup(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			eng, err := e.offlineEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			p, err := eng.Load(ctx)
			if err != nil {
				return err
			}
			today := domain.DateOf(time.Now())
			week, err := eng.Weekly(ctx, today)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), display.RenderStats(p, eng.Progress(), week, today))
			return nil
		},
	}
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent naps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if days < 1 {
				return fmt.Errorf("--days must be at least 1, got %d", days)
			}
			ctx := commandContext(cmd)
			e, err := setup(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			eng, err := e.offlineEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			today := domain.DateOf(time.Now())
			records, err := eng.History(ctx, domain.DateRange{From: today.AddDays(1 - days), To: today})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), display.RenderHistory(records))
			return nil
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "how many days back to list")
	return cmd
}

func newRenameCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <name>",
		Short: "Set your display name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			e, err := setup(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			eng, err := e.offlineEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			if _, err := eng.Load(ctx); err != nil {
				return err
			}
			if err := eng.Rename(ctx, args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "name set to %s\n", eng.Profile().Name)
			return nil
		},
	}
}

func newResetCmd(flags *globalFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete your profile and nap history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to delete all data without --yes")
			}
			ctx := commandContext(cmd)
			e, err := setup(flags)
			if err != nil {
				return err
			}
			defer e.Close()

			eng, err := e.offlineEngine()
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.Reset(ctx); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "all data for %q deleted\n", e.cfg.Identity)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting all data")
	return cmd
}

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the config file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to --config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := flags.configPath
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if err := cfg.Save(path); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	cmd.AddCommand(initCmd)
	return cmd
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
