package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamahiro5/iotlab-edge/internal/device"
	"github.com/tamahiro5/iotlab-edge/internal/status"
)

func statusCommand() *cobra.Command {
	var (
		server  string
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the status of a running device",
		Long: "Query the status endpoint of a device started with --status-addr\n" +
			"and print its connection state and publish counters.",
		Example: `  # Device started with: iotlab-device ... --status-addr :8150
  iotlab-device status

  iotlab-device status --server http://edge-01.lab:8150 --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := status.NewClient(server).Device(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOut {
				return outputJSON(snap)
			}
			return printSnapshot(snap)
		},
	}
	cmd.Flags().StringVar(&server, "server", "http://localhost:8150", "status server URL")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "output as JSON")

	return cmd
}

func printSnapshot(snap *device.Snapshot) error {
	connected := "no"
	if snap.Connected {
		connected = "yes"
	}

	tw := newTabWriter(os.Stdout)
	tw.writef("DEVICE\t%s\n", snap.DeviceID)
	tw.writef("REGISTRY\t%s\n", snap.Registry)
	tw.writef("REGION\t%s\n", snap.Region)
	tw.writef("PROJECT\t%s\n", snap.ProjectID)
	tw.writef("CONNECTED\t%s\n", connected)
	tw.writef("UPTIME\t%s\n", time.Since(snap.StartedAt).Round(time.Second))
	tw.writef("EVENTS\t%d\n", snap.EventsPublished)
	tw.writef("STATES\t%d\n", snap.StatesPublished)
	tw.writef("FAILURES\t%d\n", snap.PublishFailures)
	tw.writef("TEMPERATURE\t%.2f\n", snap.Temperature)
	if !snap.LastPublishAt.IsZero() {
		tw.writef("LAST PUBLISH\t%s\n", snap.LastPublishAt.Local().Format(time.RFC3339))
	}
	if !snap.TokenValidUntil.IsZero() {
		tw.writef("TOKEN VALID\t%s\n", snap.TokenValidUntil.Local().Format(time.RFC3339))
	}
	return tw.finish()
}
