package tree

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("github.com/mj1618/remote-ui-mcp/internal/tree")

var (
	scanNodes, _ = meter.Int64Histogram("remote_ui.scan.nodes",
		metric.WithDescription("Nodes captured per successful scan."),
		metric.WithUnit("{node}"))
	truncatedSubtrees, _ = meter.Int64Counter("remote_ui.scan.truncated_subtrees",
		metric.WithDescription("Subtrees cut off at the depth limit."),
		metric.WithUnit("{subtree}"))
)
