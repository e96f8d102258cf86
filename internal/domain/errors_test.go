package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{fmt.Errorf("lookup: %w", ErrAssetNotFound), "asset_not_found"},
		{fmt.Errorf("resolve: %w", ErrAssetFileMissing), "asset_file_missing"},
		{ErrProjectNotFound, "project_not_found"},
		{fmt.Errorf("archive: %w", ErrNotFound), "not_found"},
		{fmt.Errorf("task t1: %w", ErrDuplicateTaskID), "validation_failed"},
		{fmt.Errorf("task t1: %w", ErrRefLimitExceeded), "validation_failed"},
		{fmt.Errorf("task t1: %w", ErrUnknownRef), "validation_failed"},
		{ErrMissingCredentials, "missing_credentials"},
		{ErrEmptyPrompt, "empty_prompt"},
		{fmt.Errorf("veo: %w", ErrGenerationTimeout), "generation_timeout"},
		{fmt.Errorf("kie: %w", ErrProviderFailure), "generation_failed"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Fatalf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
