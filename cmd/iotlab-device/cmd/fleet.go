package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tamahiro5/iotlab-edge/internal/config"
	"github.com/tamahiro5/iotlab-edge/internal/fleet"
	"github.com/tamahiro5/iotlab-edge/pkg/logger"
)

func fleetCommand() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "fleet",
		Short: "Run a set of simulated devices from a fleet config",
		Long: "Run one bridge session per device listed in a fleet YAML file,\n" +
			"with staggered connects and per-device key and interval settings.",
		Example: `  iotlab-device fleet --config fleet.yaml`,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return fmt.Errorf("loading fleet config: %w", err)
			}

			slogger := logger.New(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return fleet.New(cfg, fleet.WithLogger(slogger)).Run(ctx)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "fleet.yaml", "fleet config file path")

	return cmd
}
