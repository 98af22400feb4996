package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcilerError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
		},
		{
			name:       "input error",
			category:   CategoryInput,
			code:       CodeNotAList,
			message:    "not a list",
			cause:      nil,
			expectCode: 3,
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      errors.New("threshold out of range"),
			expectCode: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *ReconcilerError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			assert.Equal(t, tt.category, err.Category)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.expectCode, err.GetExitCode())
			assert.Equal(t, tt.message, err.Error())
			if tt.cause != nil {
				assert.Equal(t, tt.cause, err.Unwrap())
			}
			assert.NotEmpty(t, err.StackTrace, "a stack trace should be captured")
		})
	}
}

func TestReconcilerErrorWithContext(t *testing.T) {
	err := New(CategoryFile, CodeFileNotFound, "test error").
		WithContext("file", "/path/to/alle.json").
		WithContext("line", 42).
		WithSuggestion("check file path")

	assert.Equal(t, "/path/to/alle.json", err.Context["file"])
	assert.Equal(t, 42, err.Context["line"])
	assert.Equal(t, "test error (suggestion: check file path)", err.Error())
}

func TestInputError(t *testing.T) {
	t.Run("argument is not a list", func(t *testing.T) {
		err := InputError(CodeNotAList, "ledgerA", -1, "oops")

		assert.Equal(t, CategoryInput, err.Category)
		assert.Contains(t, err.Message, "ledgerA")
		assert.Contains(t, err.Message, "string")
		assert.Equal(t, "ledgerA", err.Context["argument"])
		assert.NotContains(t, err.Context, "index", "whole-argument errors carry no index")
		assert.Equal(t, 3, err.GetExitCode())
	})

	t.Run("element is not a record", func(t *testing.T) {
		err := InputError(CodeInvalidRecord, "transactions", 4, 12.5)

		assert.Equal(t, CodeInvalidRecord, err.Code)
		assert.Equal(t, 4, err.Context["index"])
		assert.Equal(t, "float64", err.Context["got_type"])
	})
}

func TestIsInputError(t *testing.T) {
	input := InputError(CodeNotAList, "ledgerB", -1, map[string]interface{}{})
	wrapped := fmt.Errorf("reconcile: %w", input)

	assert.True(t, IsInputError(input))
	assert.True(t, IsInputError(wrapped), "wrapped input errors are detected")
	assert.False(t, IsInputError(New(CategoryFile, CodeFileNotFound, "missing")))
	assert.False(t, IsInputError(errors.New("plain")))
	assert.False(t, IsInputError(nil))
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("FileError", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := FileError(CodeFilePermission, "/data/pos.json", cause)

		assert.Equal(t, CategoryFile, err.Category)
		assert.Equal(t, "/data/pos.json", err.Context["file_path"])
		assert.Equal(t, cause, err.Cause)
	})

	t.Run("FileError without cause", func(t *testing.T) {
		err := FileError(CodeInvalidFormat, "aspire.json", nil)

		assert.Nil(t, err.Cause)
		assert.NotEmpty(t, err.Suggestion)
	})

	t.Run("ConfigurationError", func(t *testing.T) {
		err := ConfigurationError(CodeInvalidConfig, "threshold", 1.5, nil)

		assert.Equal(t, CategoryConfiguration, err.Category)
		assert.Equal(t, "threshold", err.Context["setting"])
		assert.Equal(t, 1.5, err.Context["value"])
	})

	t.Run("InternalError", func(t *testing.T) {
		err := InternalError(CodeUnexpectedError, "report encoding", errors.New("boom"))

		assert.Equal(t, 5, err.GetExitCode())
		assert.Equal(t, "report encoding", err.Context["operation"])
	})
}

func TestIsReconcilerError(t *testing.T) {
	assert.True(t, IsReconcilerError(New(CategoryFile, CodeFileNotFound, "test")))
	assert.False(t, IsReconcilerError(errors.New("generic error")))
	assert.False(t, IsReconcilerError(nil))
}

func TestAsReconcilerError(t *testing.T) {
	reconcilerErr := New(CategoryFile, CodeFileNotFound, "test")

	extracted, ok := AsReconcilerError(fmt.Errorf("outer: %w", reconcilerErr))
	require.True(t, ok, "should extract a ReconcilerError from a chain")
	assert.Same(t, reconcilerErr, extracted)

	_, ok = AsReconcilerError(errors.New("generic error"))
	assert.False(t, ok)

	_, ok = AsReconcilerError(nil)
	assert.False(t, ok)
}

func TestWrapIfNeeded(t *testing.T) {
	reconcilerErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	assert.Same(t, reconcilerErr, WrapIfNeeded(reconcilerErr, CategoryInternal, CodeUnexpectedError, "wrapped"))

	wrapped := WrapIfNeeded(genericErr, CategoryInternal, CodeUnexpectedError, "wrapped")
	require.NotNil(t, wrapped)
	assert.Equal(t, genericErr, wrapped.Cause)
	assert.Equal(t, CategoryInternal, wrapped.Category)

	assert.Nil(t, WrapIfNeeded(nil, CategoryInternal, CodeUnexpectedError, "wrapped"))
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		category     ErrorCategory
		expectedCode int
	}{
		{CategoryFile, 2},
		{CategoryInput, 3},
		{CategoryConfiguration, 4},
		{CategoryInternal, 5},
		{ErrorCategory("other"), 1},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := New(tt.category, "test_code", "test message")
			assert.Equal(t, tt.expectedCode, err.GetExitCode())
		})
	}
}
