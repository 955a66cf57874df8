package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// PublishRate returns a timeseries panel showing publishes per second split
// by message type.
func PublishRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Publish Rate").
		Description("Messages published per second by type").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`sum(rate(iotlab_publishes_total{job="iotlab-device"}[5m])) by (type)`,
			"{{type}}", "A",
		)).
		Unit("ops").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// PublishFailures returns a timeseries panel showing failed publishes per
// minute.
func PublishFailures() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Failures / min").
		Description("Rate of failed publishes per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`iotlab:publish_failures:rate5m * 60`, "failures/min", "A")).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenYellowRed(0.1, 1)).
		ColorScheme(ColorSchemeThresholds()).
		DrawStyle(common.GraphDrawStyleLine)
}

// AckLatencyPercentiles returns a timeseries panel showing p50, p95, and p99
// publish acknowledgement latencies.
func AckLatencyPercentiles() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Ack Latency Percentiles").
		Description("Publish-to-acknowledgement duration percentiles").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			`histogram_quantile(0.50, sum(rate(iotlab_publish_duration_seconds_bucket{job="iotlab-device"}[5m])) by (le))`,
			"p50",
			"A",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.95, sum(rate(iotlab_publish_duration_seconds_bucket{job="iotlab-device"}[5m])) by (le))`,
			"p95",
			"B",
		)).
		WithTarget(PromQuery(
			`histogram_quantile(0.99, sum(rate(iotlab_publish_duration_seconds_bucket{job="iotlab-device"}[5m])) by (le))`,
			"p99",
			"C",
		)).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("mean", "max")).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
