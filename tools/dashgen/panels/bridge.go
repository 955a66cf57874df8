package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ConnectionChurn returns a timeseries panel showing bridge connects over
// the past hour. A flat line at 1 is a healthy long-lived session.
func ConnectionChurn() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Connects (1h)").
		Description("Bridge connections established over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`increase(iotlab_mqtt_connects_total{job="iotlab-device"}[1h])`,
			"connects", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// DisconnectRate returns a timeseries panel showing lost bridge connections
// per minute.
func DisconnectRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Disconnects / min").
		Description("Rate of lost bridge connections per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`iotlab:connection_lost:rate5m * 60`, "lost/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// TokenRefreshRate returns a timeseries panel showing JWT re-mints over the
// past hour.
func TokenRefreshRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("JWT Refreshes (1h)").
		Description("Connection tokens minted over the last hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`increase(iotlab_token_refreshes_total{job="iotlab-device"}[1h])`,
			"refreshes", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
