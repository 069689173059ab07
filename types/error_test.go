package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrStageFailure, "stage failed").
		WithCause(root).
		WithTask("train_topics", 2)

	if GetErrorCode(err) != ErrStageFailure {
		t.Fatalf("expected code %s, got %s", ErrStageFailure, GetErrorCode(err))
	}
	if !IsStageFailure(err) {
		t.Fatalf("expected stage failure")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	assert.Contains(t, err.Error(), "tasks[2] (train_topics)")
}

func TestError_ConfigurationCodesAreDistinguishable(t *testing.T) {
	t.Parallel()

	missing := NewMissingFieldError("train_topics", "space")
	mismatch := NewTypeMismatchError("train_topics", "options.topics", "integer", "string")

	assert.True(t, IsConfigurationError(missing))
	assert.True(t, IsConfigurationError(mismatch))
	assert.True(t, IsErrorCode(missing, ErrMissingField))
	assert.True(t, IsErrorCode(mismatch, ErrTypeMismatch))
	assert.False(t, IsErrorCode(mismatch, ErrMissingField))
	assert.False(t, IsResourceError(missing))

	assert.Contains(t, missing.Error(), "train_topics")
	assert.Contains(t, missing.Error(), `"space"`)
}

func TestAsError_ThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := NewResourceError("create workspace", errors.New("permission denied")).WithLine(0)
	wrapped := fmt.Errorf("run: %w", inner)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrResource, e.Code)
	assert.True(t, IsResourceError(wrapped))

	_, ok = AsError(errors.New("plain"))
	assert.False(t, ok)
	assert.Equal(t, ErrorCode(""), GetErrorCode(nil))
}

func TestError_LineInMessage(t *testing.T) {
	t.Parallel()

	err := NewInvalidValueError("infer_topics", "from.files", "must not be empty").
		WithLine(7)
	err.TaskIndex = 0
	assert.Equal(t, `[CONFIG_INVALID_VALUE] tasks[0] (infer_topics): field "from.files": must not be empty (line 7)`, err.Error())
}

func TestAdvisory_String(t *testing.T) {
	t.Parallel()

	a := Advisory{Source: "file_convert", Field: "options.stopwords", Message: "using engine default"}
	assert.Equal(t, "file_convert: options.stopwords: using engine default", a.String())
	assert.Equal(t, "executor: done", Advisory{Source: "executor", Message: "done"}.String())
}
