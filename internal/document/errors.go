package document

import "github.com/MicheleGuerra/SOK-Oran-Security/internal/types"

const (
	ErrCodeOpenFailed types.ErrorCode = "PDF_OPEN_FAILED"
	ErrCodeReadFailed types.ErrorCode = "PDF_READ_FAILED"
	ErrCodeNoText     types.ErrorCode = "PDF_NO_TEXT"
)
