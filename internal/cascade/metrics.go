package cascade

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rowsRekeyed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stagepass",
		Subsystem: "cascade",
		Name:      "rows_rekeyed_total",
		Help:      "Rows whose app_id was rewritten, per table.",
	}, []string{"table"})

	tableFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stagepass",
		Subsystem: "cascade",
		Name:      "table_failures_total",
		Help:      "Table updates that errored during a cascade run, per table.",
	}, []string{"table"})
)
