package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	err := New(ErrCodeInvalidInput, "no matching source files")
	require.NotNil(t, err)
	assert.Equal(t, ErrCodeInvalidInput, err.Code)
	assert.Equal(t, CategoryInput, err.Category)
	assert.True(t, err.Setup, "invalid input is a setup error")
	assert.False(t, err.Timestamp.IsZero())

	conv := New(ErrCodeConversionFailed, "engine crashed")
	assert.Equal(t, CategoryConversion, conv.Category)
	assert.False(t, conv.Setup, "conversion failures are attempt failures")
}

func TestGetCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code     ErrorCode
		expected ErrorCategory
	}{
		{ErrCodeInvalidInput, CategoryInput},
		{ErrCodeUnsupportedCapability, CategoryCapability},
		{ErrCodeOutputExists, CategoryOutput},
		{ErrCodeOutputTooLarge, CategoryOutput},
		{ErrCodeConversionFailed, CategoryConversion},
		{ErrCodeExternalTool, CategoryConversion},
		{ErrCodeInvalidConfig, CategoryConfiguration},
		{ErrCodeOperationCanceled, CategoryOperation},
		{ErrCodeInternalError, CategoryInternal},
		{ErrorCode("SOMETHING_ELSE"), CategoryInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, GetCategory(tt.code), "code %s", tt.code)
	}
}

func TestErrorFormatting(t *testing.T) {
	t.Parallel()

	err := New(ErrCodeOutputExists, "destination exists").
		WithComponent("convert").
		WithOperation("run")
	assert.Equal(t, "[convert:run] OUTPUT_EXISTS: destination exists", err.Error())

	bare := New(ErrCodeOutputExists, "destination exists")
	assert.Equal(t, "OUTPUT_EXISTS: destination exists", bare.Error())
}

func TestErrorIsAndUnwrap(t *testing.T) {
	t.Parallel()

	cause := stderrors.New("disk full")
	err := New(ErrCodeConversionFailed, "write failed").WithCause(cause)

	assert.True(t, stderrors.Is(err, New(ErrCodeConversionFailed, "anything")))
	assert.False(t, stderrors.Is(err, New(ErrCodeOutputExists, "anything")))
	assert.True(t, stderrors.Is(err, cause))
}

func TestCodeOf(t *testing.T) {
	t.Parallel()

	inner := New(ErrCodeExternalTool, "ogr2ogr exited 1")
	wrapped := fmt.Errorf("cell duckdb/fgb: %w", inner)

	assert.Equal(t, ErrCodeExternalTool, CodeOf(wrapped))
	assert.Equal(t, ErrCodeInternalError, CodeOf(stderrors.New("plain")))
	assert.Equal(t, ErrCodeInternalError, CodeOf(nil))
}

func TestIsSetup(t *testing.T) {
	t.Parallel()

	assert.True(t, IsSetup(New(ErrCodeUnsupportedCapability, "split not supported")))
	assert.False(t, IsSetup(New(ErrCodeExternalTool, "exit 1")))
	assert.False(t, IsSetup(stderrors.New("plain")))

	wrapped := fmt.Errorf("context: %w", New(ErrCodeInvalidInput, "missing"))
	assert.True(t, IsSetup(wrapped))
}

func TestWithContext(t *testing.T) {
	t.Parallel()

	err := New(ErrCodeUnsupportedCapability, "backend cannot split").
		WithContext("process", "ogr").
		WithContext("format", "fgb")

	assert.Equal(t, "ogr", err.Context["process"])
	assert.Contains(t, err.String(), "UNSUPPORTED_CAPABILITY")
	assert.Contains(t, err.String(), "Context=")
}
