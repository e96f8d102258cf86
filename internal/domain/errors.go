package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAssetNotFound      = errors.New("asset not found")
	ErrAssetFileMissing   = errors.New("asset file missing")
	ErrProjectNotFound    = errors.New("project not found")
	ErrValidation         = errors.New("validation failed")
	ErrRefLimitExceeded   = errors.New("reference limit exceeded")
	ErrUnknownRef         = errors.New("unknown asset id in json")
	ErrDuplicateTaskID    = errors.New("duplicate task id")
	ErrMissingCredentials = errors.New("missing credentials")
	ErrEmptyPrompt        = errors.New("empty prompt")
	ErrProviderFailure    = errors.New("provider failure")
	ErrGenerationTimeout  = errors.New("generation timed out")
)

// ErrorCode maps an error chain onto the stable code reported to API clients.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAssetNotFound):
		return "asset_not_found"
	case errors.Is(err, ErrAssetFileMissing):
		return "asset_file_missing"
	case errors.Is(err, ErrProjectNotFound):
		return "project_not_found"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrRefLimitExceeded), errors.Is(err, ErrUnknownRef),
		errors.Is(err, ErrDuplicateTaskID), errors.Is(err, ErrValidation):
		return "validation_failed"
	case errors.Is(err, ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, ErrEmptyPrompt):
		return "empty_prompt"
	case errors.Is(err, ErrGenerationTimeout):
		return "generation_timeout"
	case errors.Is(err, ErrProviderFailure):
		return "generation_failed"
	default:
		return "internal"
	}
}
