package merge

import "github.com/MicheleGuerra/SOK-Oran-Security/internal/types"

const (
	ErrCodeRunNotFound     types.ErrorCode = "MERGE_RUN_NOT_FOUND"
	ErrCodeMasterFailed    types.ErrorCode = "MERGE_MASTER_FAILED"
	ErrCodeManifestInvalid types.ErrorCode = "MERGE_MANIFEST_INVALID"
)
