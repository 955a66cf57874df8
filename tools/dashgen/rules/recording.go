package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "iotlab-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "iotlab-recording",
					Rules: []Rule{
						{
							Record: "iotlab:http_requests:rate5m",
							Expr:   `sum(rate(iotlab_http_requests_total[5m]))`,
						},
						{
							Record: "iotlab:http_errors:rate5m",
							Expr:   `sum(rate(iotlab_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "iotlab:publishes:rate5m",
							Expr:   `sum(rate(iotlab_publishes_total[5m]))`,
						},
						{
							Record: "iotlab:publish_failures:rate5m",
							Expr:   `sum(rate(iotlab_publish_failures_total[5m]))`,
						},
						{
							Record: "iotlab:commands:rate5m",
							Expr:   `rate(iotlab_commands_total[5m])`,
						},
						{
							Record: "iotlab:connection_lost:rate5m",
							Expr:   `rate(iotlab_mqtt_connection_lost_total[5m])`,
						},
					},
				},
			},
		},
	}
}
