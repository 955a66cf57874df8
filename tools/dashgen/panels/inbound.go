package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ConfigUpdatesRate returns a timeseries panel showing config deliveries
// over the past hour.
func ConfigUpdatesRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Config Updates (1h)").
		Description("Device config messages received over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`increase(iotlab_config_updates_total{job="iotlab-device"}[1h])`,
			"updates", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// CommandsRate returns a timeseries panel showing received commands per
// minute.
func CommandsRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Commands / min").
		Description("Rate of commands received per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`iotlab:commands:rate5m * 60`, "commands/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
