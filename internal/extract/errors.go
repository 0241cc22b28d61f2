package extract

import "github.com/MicheleGuerra/SOK-Oran-Security/internal/types"

const (
	ErrCodeRunDirFailed  types.ErrorCode = "EXTRACT_RUN_DIR_FAILED"
	ErrCodeWriteFailed   types.ErrorCode = "EXTRACT_WRITE_FAILED"
	ErrCodeNoDocuments   types.ErrorCode = "EXTRACT_NO_DOCUMENTS"
	ErrCodeLLMExhausted  types.ErrorCode = "EXTRACT_LLM_EXHAUSTED"
	ErrCodeInvalidOption types.ErrorCode = "EXTRACT_INVALID_OPTION"
)
