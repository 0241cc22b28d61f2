package pipeline

import "github.com/MicheleGuerra/SOK-Oran-Security/internal/types"

const (
	ErrCodeInvalidMode types.ErrorCode = "PIPELINE_INVALID_MODE"
	ErrCodeRunNotFound types.ErrorCode = "PIPELINE_RUN_NOT_FOUND"
	ErrCodeNoClient    types.ErrorCode = "PIPELINE_NO_CLIENT"
)
