// Package cmd implements the CLI commands for iotlab-launch.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tamahiro5/iotlab-edge/internal/launcher"
	"github.com/tamahiro5/iotlab-edge/pkg/logger"
)

var (
	clientPath string
	dryRun     bool
	logLevel   string

	rootCmd = &cobra.Command{
		Use:   "iotlab-launch [registry]",
		Short: "Launch the device client with environment-derived settings",
		Long: "iotlab-launch resolves project, region, registry, device and key\n" +
			"settings from the environment, then spawns the device client with\n" +
			"the full flag set it expects and mirrors its exit status.",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLaunch,
	}
)

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Flags().
		StringVar(&clientPath, "client", launcher.DefaultClientPath, "device client binary to spawn")
	rootCmd.Flags().
		BoolVar(&dryRun, "dry-run", false, "print the resolved command line without spawning")
	rootCmd.PersistentFlags().
		StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCommand())
}

func runLaunch(_ *cobra.Command, args []string) error {
	clog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(logLevel),
	})

	params, err := launcher.NewResolver().Resolve(args)
	if err != nil {
		return err
	}

	if dryRun {
		fmt.Println(launcher.CommandLine(clientPath, params))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clog.Info("launching device client",
		"client", clientPath,
		"project_id", params.ProjectID,
		"cloud_region", params.Region,
		"registry_id", params.Registry,
		"device_id", params.DeviceID,
	)

	l := launcher.New(clientPath,
		launcher.WithLogger(logger.New(os.Stderr, logLevel, "text")),
	)

	return l.Run(ctx, params)
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.WarnLevel
	}
}
