package parse

import "errors"

var (
	ErrNotFound = errors.New("parse result not found")
)

const (
	ErrorCodeValidation       = "VALIDATION_ERROR"
	ErrorCodeLLMTimeout       = "LLM_TIMEOUT"
	ErrorCodeLLMInvalidOutput = "LLM_INVALID_OUTPUT"
	ErrorCodeStorage          = "STORAGE_ERROR"
	ErrorCodeInternal         = "INTERNAL_ERROR"
)
