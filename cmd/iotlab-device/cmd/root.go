// Package cmd implements the CLI commands for iotlab-device.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tamahiro5/iotlab-edge/internal/auth"
	"github.com/tamahiro5/iotlab-edge/internal/device"
	"github.com/tamahiro5/iotlab-edge/internal/journal"
	"github.com/tamahiro5/iotlab-edge/internal/status"
	"github.com/tamahiro5/iotlab-edge/internal/telemetry"
	"github.com/tamahiro5/iotlab-edge/pkg/logger"
	domain "github.com/tamahiro5/iotlab-edge/pkg/types"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile     string
	projectID   string
	cloudRegion string
	registryID  string
	deviceID    string
	keyFile     string
	messageType string
	algorithm   string
	caCerts     string
	numMessages int
	bridgeHost  string
	bridgePort  int

	moduleLabel     string
	publishInterval time.Duration
	stateInterval   time.Duration
	insecure        bool

	rootCmd = &cobra.Command{
		Use:   "iotlab-device",
		Short: "Simulated device client for the IoT lab MQTT bridge",
		Long: "iotlab-device connects to the MQTT bridge as a registry device,\n" +
			"publishes simulated telemetry and state, and reacts to config\n" +
			"updates and commands pushed from the cloud side.",
		SilenceUsage: true,
		RunE:         runDevice,
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
	cobra.OnInitialize(initConfig)

	// Wrapper contract flags. The names mirror what iotlab-launch passes,
	// so keep the underscores.
	rootCmd.Flags().
		StringVar(&projectID, "project_id", os.Getenv("GOOGLE_CLOUD_PROJECT"), "cloud project id")
	rootCmd.Flags().
		StringVar(&cloudRegion, "cloud_region", "us-central1", "cloud region")
	rootCmd.Flags().
		StringVar(&registryID, "registry_id", "", "device registry id")
	rootCmd.Flags().
		StringVar(&deviceID, "device_id", "", "device id within the registry")
	rootCmd.Flags().
		StringVar(&keyFile, "key_file", "", "path to the device private key")
	rootCmd.Flags().
		StringVar(&messageType, "message_type", "event", "publish as telemetry event or state (event, state)")
	rootCmd.Flags().
		StringVar(&algorithm, "algorithm", "", "JWT signing algorithm (RS256, ES256)")
	rootCmd.Flags().
		StringVar(&caCerts, "ca_certs", "", "CA bundle for the bridge connection (default: system roots)")
	rootCmd.Flags().
		IntVar(&numMessages, "num_messages", 0, "messages to publish before exiting (0 = run until interrupted)")
	rootCmd.Flags().
		StringVar(&bridgeHost, "mqtt_bridge_hostname", device.DefaultBridgeHost, "MQTT bridge hostname")
	rootCmd.Flags().
		IntVar(&bridgePort, "mqtt_bridge_port", device.DefaultBridgePort, "MQTT bridge port")

	cobra.CheckErr(rootCmd.MarkFlagRequired("registry_id"))
	cobra.CheckErr(rootCmd.MarkFlagRequired("device_id"))
	cobra.CheckErr(rootCmd.MarkFlagRequired("key_file"))
	cobra.CheckErr(rootCmd.MarkFlagRequired("algorithm"))

	rootCmd.Flags().
		StringVar(&moduleLabel, "module", "", "module label stamped into telemetry (default: HOST env, then device id)")
	rootCmd.Flags().
		DurationVar(&publishInterval, "publish-interval", 0, "delay between publishes (default 5s for events, 10s for state)")
	rootCmd.Flags().
		DurationVar(&stateInterval, "state-interval", device.DefaultStateInterval, "delay between state reports")
	rootCmd.Flags().
		BoolVar(&insecure, "insecure", false, "connect without TLS (local broker testing only)")

	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "config file (default $HOME/.iotlab.yaml)")
	rootCmd.PersistentFlags().
		String("status-addr", "", "address for the status HTTP server (empty disables it)")
	rootCmd.PersistentFlags().
		String("journal", "", "path to the publish journal database (empty disables it)")
	rootCmd.PersistentFlags().
		String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().
		String("log-format", "text", "log format (text, json)")

	cobra.CheckErr(viper.BindPFlag("status-addr", rootCmd.PersistentFlags().Lookup("status-addr")))
	cobra.CheckErr(viper.BindPFlag("journal", rootCmd.PersistentFlags().Lookup("journal")))
	cobra.CheckErr(viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log-format", rootCmd.PersistentFlags().Lookup("log-format")))

	rootCmd.AddCommand(schemaCommand())
	rootCmd.AddCommand(journalCommand())
	rootCmd.AddCommand(fleetCommand())
	rootCmd.AddCommand(statusCommand())
	rootCmd.AddCommand(versionCommand())
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".iotlab")
	}

	viper.SetEnvPrefix("IOTLAB")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runDevice(_ *cobra.Command, _ []string) error {
	clog := log.NewWithOptions(os.Stderr, log.Options{
		Level: parseLogLevel(viper.GetString("log-level")),
	})

	if projectID == "" {
		return fmt.Errorf("project_id is required (flag or GOOGLE_CLOUD_PROJECT)")
	}

	mt, err := domain.ParseMessageType(messageType)
	if err != nil {
		return err
	}
	alg, err := domain.ParseAlgorithm(algorithm)
	if err != nil {
		return err
	}

	module := moduleLabel
	if module == "" {
		module = os.Getenv("HOST")
	}
	if module == "" {
		module = deviceID
	}

	slogger := logger.New(os.Stderr,
		viper.GetString("log-level"),
		viper.GetString("log-format"),
	)

	tokens, err := auth.NewJWTSource(projectID, keyFile, alg)
	if err != nil {
		return fmt.Errorf("building token source: %w", err)
	}

	sim := telemetry.NewSimulator(deviceID, module)

	opts := []device.ClientOption{
		device.WithLogger(slogger),
	}

	if path := viper.GetString("journal"); path != "" {
		store, err := journal.Open(path)
		if err != nil {
			return fmt.Errorf("opening journal: %w", err)
		}
		defer store.Close()
		opts = append(opts, device.WithJournal(store))
	}

	client, err := device.New(
		device.Config{
			ProjectID:       projectID,
			Region:          cloudRegion,
			Registry:        registryID,
			DeviceID:        deviceID,
			Module:          module,
			BridgeHost:      bridgeHost,
			BridgePort:      bridgePort,
			CACerts:         caCerts,
			DisableTLS:      insecure,
			MessageType:     mt,
			NumMessages:     numMessages,
			PublishInterval: publishInterval,
			StateInterval:   stateInterval,
		},
		tokens, sim, opts...,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr := viper.GetString("status-addr"); addr != "" {
		srv := status.NewServer(addr, client, slogger)

		go func() {
			if err := srv.Start(); err != nil {
				clog.Error("status server error", "error", err)
			}
		}()

		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				clog.Error("status server shutdown failed", "error", err)
			}
		}()
	}

	clog.Info("starting device client",
		"device_id", deviceID,
		"registry_id", registryID,
		"bridge", fmt.Sprintf("%s:%d", bridgeHost, bridgePort),
	)

	if err := client.Run(ctx); err != nil {
		return err
	}

	clog.Info("device client stopped")
	return nil
}

func parseLogLevel(level string) log.Level {
	switch level {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
