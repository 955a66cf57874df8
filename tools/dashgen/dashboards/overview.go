// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/tamahiro5/iotlab-edge/tools/dashgen/panels"
)

// BuildOverview constructs the IoT Lab Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("IoT Lab Overview").
		Uid("iotlab-overview").
		Tags([]string{"iotlab", "iotlab-edge"}).
		Refresh("30s").
		Time("now-6h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.ConnectedStat()).
		WithPanel(panels.UptimeStat()))

	// Row 2: Bridge.
	b.WithRow(dashboard.NewRowBuilder("Bridge").
		WithPanel(panels.ConnectionChurn()).
		WithPanel(panels.DisconnectRate()).
		WithPanel(panels.TokenRefreshRate()))

	// Row 3: Publishing.
	b.WithRow(dashboard.NewRowBuilder("Publishing").
		WithPanel(panels.PublishRate()).
		WithPanel(panels.PublishFailures()).
		WithPanel(panels.AckLatencyPercentiles()))

	// Row 4: Inbound.
	b.WithRow(dashboard.NewRowBuilder("Inbound").
		WithPanel(panels.ConfigUpdatesRate()).
		WithPanel(panels.CommandsRate()))

	// Row 5: Journal.
	b.WithRow(dashboard.NewRowBuilder("Journal").
		WithPanel(panels.JournalAppendRate()).
		WithPanel(panels.JournalFailures()))

	// Row 6: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
