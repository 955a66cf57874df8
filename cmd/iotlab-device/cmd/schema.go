package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamahiro5/iotlab-edge/internal/telemetry"
)

func schemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the telemetry column schema",
		Long: "Print the name:TYPE column list for the telemetry documents this\n" +
			"client publishes, for wiring up downstream table definitions.",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Println(telemetry.Schema)
		},
	}
}
