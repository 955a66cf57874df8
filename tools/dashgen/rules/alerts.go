package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// iotlab-edge operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "iotlab-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "iotlab-alerts",
					Rules: []Rule{
						{
							Alert: "IotlabDown",
							Expr:  `absent(up{job="iotlab-device"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "IoT Lab device client is down",
								"description": "The iotlab-device job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "IotlabReadinessDown",
							Expr:  `iotlab_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "IoT Lab readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "IotlabBridgeDisconnected",
							Expr:  `iotlab_mqtt_connected == 0`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Device client has lost its MQTT bridge connection",
								"description": "The client has been disconnected from the MQTT bridge for more than 5 minutes.",
							},
						},
						{
							Alert: "IotlabPublishStalled",
							Expr:  `iotlab:publishes:rate5m == 0`,
							For:   "10m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Telemetry publishing has stalled",
								"description": "No events or state messages have been published for more than 10 minutes.",
							},
						},
						{
							Alert: "IotlabHighPublishFailureRate",
							Expr:  `iotlab:publish_failures:rate5m / (iotlab:publishes:rate5m + iotlab:publish_failures:rate5m) > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High publish failure rate on the MQTT bridge",
								"description": "More than 5% of publish attempts are failing over the last 5 minutes.",
							},
						},
						{
							Alert: "IotlabHighErrorRate",
							Expr:  `iotlab:http_errors:rate5m / iotlab:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on the status server",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "IotlabJournalErrors",
							Expr:  `increase(iotlab_journal_errors_total[5m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Journal write failures detected",
								"description": "One or more journal appends have failed. Published messages are not being recorded.",
							},
						},
						{
							Alert: "IotlabReconnectChurn",
							Expr:  `increase(iotlab_mqtt_connects_total[15m]) > 10`,
							For:   "15m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Device client is reconnecting repeatedly",
								"description": "More than 10 bridge connects in 15 minutes. The connection or credentials may be unstable.",
							},
						},
					},
				},
			},
		},
	}
}
