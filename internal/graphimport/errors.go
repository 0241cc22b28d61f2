package graphimport

import "github.com/MicheleGuerra/SOK-Oran-Security/internal/types"

const (
	ErrCodeDatasetMissing types.ErrorCode = "IMPORT_DATASET_MISSING"
	ErrCodeDatasetInvalid types.ErrorCode = "IMPORT_DATASET_INVALID"
	ErrCodeDuplicateNode  types.ErrorCode = "IMPORT_DUPLICATE_NODE"
	ErrCodeUnresolved     types.ErrorCode = "IMPORT_UNRESOLVED"
	ErrCodeMappingInvalid types.ErrorCode = "IMPORT_MAPPING_INVALID"
	ErrCodeQueryFailed    types.ErrorCode = "IMPORT_QUERY_FAILED"
	ErrCodeNoClient       types.ErrorCode = "IMPORT_NO_CLIENT"
)
