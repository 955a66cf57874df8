package panels

import (
	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// JournalAppendRate returns a timeseries panel showing journal appends per
// minute.
func JournalAppendRate() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Appends / min").
		Description("Rate of journal records written per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(
			`rate(iotlab_journal_appends_total{job="iotlab-device"}[5m]) * 60`,
			"appends/min", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// JournalFailures returns a stat panel showing journal write failures in the
// past 24 hours.
func JournalFailures() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Write Failures (24h)").
		Description("Journal appends that failed in the last 24 hours").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(`increase(iotlab_journal_errors_total{job="iotlab-device"}[24h])`, "", "A")).
		Thresholds(ThresholdsGreenYellowRed(1, 3)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeArea)
}
