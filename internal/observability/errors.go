package observability

import "github.com/MicheleGuerra/SOK-Oran-Security/internal/types"

const (
	ErrCodeTracingInit  types.ErrorCode = "OBSERVABILITY_TRACING_INIT_FAILED"
	ErrCodeShutdown     types.ErrorCode = "OBSERVABILITY_SHUTDOWN_FAILED"
	ErrCodeMetricsWrite types.ErrorCode = "OBSERVABILITY_METRICS_WRITE_FAILED"
)
