// Package validate checks generated dashboards and Prometheus rules for
// parseable PromQL and known metric references.
package validate

import (
	"fmt"
	"strings"

	"github.com/grafana/grafana-foundation-sdk/go/cog/variants"
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"
	"github.com/grafana/grafana-foundation-sdk/go/prometheus"
	"github.com/prometheus/prometheus/promql/parser"

	"github.com/tamahiro5/iotlab-edge/tools/dashgen/rules"
)

// Result collects validation findings. Errors fail generation, warnings do
// not.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether validation passed.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

// Merge appends another result's findings.
func (r *Result) Merge(other Result) {
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Dashboard validates every Prometheus target in the dashboard: expressions
// must parse as PromQL and every referenced metric must be in known.
func Dashboard(dash dashboard.Dashboard, known map[string]bool) Result {
	var res Result
	for _, p := range dash.Panels {
		if p.Panel != nil {
			checkPanel(&res, *p.Panel, known)
		}
		if p.RowPanel != nil {
			for _, inner := range p.RowPanel.Panels {
				checkPanel(&res, inner, known)
			}
		}
	}
	return res
}

// Rules validates the expressions of recording and alert rule groups.
func Rules(groups []rules.RuleGroup, known map[string]bool) Result {
	var res Result
	for _, g := range groups {
		for _, rule := range g.Rules {
			name := rule.Record
			if name == "" {
				name = rule.Alert
			}
			checkExpr(&res, fmt.Sprintf("rule %q", name), rule.Expr, known)
		}
	}
	return res
}

func checkPanel(res *Result, p dashboard.Panel, known map[string]bool) {
	title := "untitled"
	if p.Title != nil && *p.Title != "" {
		title = *p.Title
	}
	if len(p.Targets) == 0 {
		res.warnf("panel %q has no query targets", title)
		return
	}
	for i, target := range p.Targets {
		expr, ok := promExpr(target)
		if !ok {
			res.warnf("panel %q target %d is not a Prometheus query", title, i)
			continue
		}
		checkExpr(res, fmt.Sprintf("panel %q", title), expr, known)
	}
}

func promExpr(target variants.Dataquery) (string, bool) {
	switch q := target.(type) {
	case prometheus.Dataquery:
		return q.Expr, true
	case *prometheus.Dataquery:
		return q.Expr, true
	}
	return "", false
}

func checkExpr(res *Result, where, expr string, known map[string]bool) {
	parsed, err := parser.ParseExpr(expr)
	if err != nil {
		res.errorf("%s: invalid PromQL %q: %v", where, expr, err)
		return
	}
	parser.Inspect(parsed, func(node parser.Node, _ []parser.Node) error {
		vs, ok := node.(*parser.VectorSelector)
		if !ok || vs.Name == "" {
			return nil
		}
		if !metricKnown(vs.Name, known) {
			res.errorf("%s: references unknown metric %q", where, vs.Name)
		}
		return nil
	})
}

// metricKnown accepts histogram series (_bucket, _sum, _count) when the base
// histogram name is known.
func metricKnown(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range []string{"_bucket", "_sum", "_count"} {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}
