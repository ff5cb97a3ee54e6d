package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"syscall"

	"github.com/fatih/color"
	"github.com/harrisonrobin/schooltasks/pkg/auth"
	"github.com/harrisonrobin/schooltasks/pkg/config"
	"github.com/harrisonrobin/schooltasks/pkg/integration"
	"github.com/harrisonrobin/schooltasks/pkg/logging"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	configPath string
	logFile    string
	verbose    bool
	skip       []string
)

var (
	okPrefix   = color.New(color.FgGreen).Sprint("✔")
	failPrefix = color.New(color.FgRed).Sprint("⨯")
	skipPrefix = color.New(color.FgYellow).Sprint("-")
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", failPrefix, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "schooltasks",
		Short:         "Mirror Canvas and Google Classroom assignments into Notion databases",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSync,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/schooltasks/config.json)")
	root.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this rotating file instead of stderr")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log HTTP traffic and other debug output")
	root.Flags().StringSliceVar(&skip, "skip", nil, "integrations to skip for this run")

	run := &cobra.Command{
		Use:   "run",
		Short: "Sync every enabled integration (the default)",
		RunE:  runSync,
	}
	run.Flags().StringSliceVar(&skip, "skip", nil, "integrations to skip for this run")

	root.AddCommand(run, newAuthCmd(), newConfigCmd())
	return root
}

func loadStore() (*config.Store, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, errors.Wrap(err, "could not find path to configuration file")
		}
	}
	return config.Load(path)
}

func runSync(cmd *cobra.Command, _ []string) error {
	closer := logging.Setup(logging.Options{File: logFile, Verbose: verbose})
	defer closer.Close()

	store, err := loadStore()
	if err != nil {
		return err
	}
	pipeline, err := integration.NewPipeline(store)
	if err != nil {
		return err
	}

	runner := &integration.Runner{Store: store, Pipeline: pipeline, Logger: slog.Default()}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		if _, ok := <-sigs; ok {
			slog.Warn("interrupted, finishing running integrations")
			runner.Stop()
		}
	}()

	var selected []integration.Integration
	for _, in := range integration.All() {
		if !slices.Contains(skip, in.Name()) {
			selected = append(selected, in)
		}
	}

	results := runner.Run(context.Background(), selected)
	return printSummary(cmd, results)
}

func printSummary(cmd *cobra.Command, results []integration.Result) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		switch {
		case r.Skipped:
			fmt.Fprintf(out, "%s %s: skipped\n", skipPrefix, r.Integration)
		case r.Err != nil:
			failed++
			fmt.Fprintf(out, "%s %s: %v\n", failPrefix, r.Integration, r.Err)
		default:
			s := r.Summary
			fmt.Fprintf(out, "%s %s: %d created, %d updated, %d skipped, %d failed\n",
				okPrefix, r.Integration, s.Created, s.Patched, s.Skipped, s.Failed())
			for _, pe := range s.PatchErrors {
				fmt.Fprintf(out, "    %s %v\n", failPrefix, pe)
			}
		}
	}
	if failed > 0 {
		return errors.Errorf("%d integration(s) failed", failed)
	}
	return nil
}

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Authorize Google Classroom access, replacing any cached token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			closer := logging.Setup(logging.Options{File: logFile, Verbose: verbose})
			defer closer.Close()

			store, err := loadStore()
			if err != nil {
				return err
			}
			files, err := integration.ClassroomFiles(store)
			if err != nil {
				return err
			}
			if err := auth.Reauthorize(cmd.Context(), files, auth.ClassroomScopes); err != nil {
				return errors.Wrap(err, "authentication failed")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Authentication successful, token saved to %s\n", okPrefix, files.Token)
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Write the configuration template and print its path",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := loadStore()
			if err != nil {
				return err
			}
			if err := store.Template(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.Path())
			return nil
		},
	}
}
