package apperrors

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrImportInProgress = errors.New("import pass already in progress")
)
