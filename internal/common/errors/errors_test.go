package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeDatabaseConnectionFailed, 3},
		{ErrCodeQueryTimeout, 2},
		{ErrCodeInvalidInput, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	stdErr := NewDatabaseConnectionFailedError(fmt.Errorf("dial tcp: connection refused"))
	bpmn := ConvertToBPMNError(stdErr)

	assert.Equal(t, "DATABASE_CONNECTION_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.True(t, bpmn.Retryable)

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "DATABASE_CONNECTION_FAILED", vars["errorCode"])
	assert.Equal(t, "dial tcp: connection refused", vars["errorDetails"])
	assert.Equal(t, "DATABASE_CONNECTION_FAILED", vars["originalErrorCode"])
}

func TestConvertToBPMNError_NonRetryableZeroesRetries(t *testing.T) {
	stdErr := NewQueryTimeoutError("check_job_status")
	stdErr.Retryable = false

	assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)
}

func TestNormalize(t *testing.T) {
	stdErr := NewInvalidInputError("question is empty")
	wrapped := fmt.Errorf("answer-question: %w", stdErr)
	assert.Same(t, stdErr, Normalize(wrapped))

	plain := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseConnectionFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidInput))
	assert.Equal(t, "INTERNAL", GetErrorCategory(ErrCodeInternal))
}
