package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NotFound("analysis abc")
	wrapped := Wrapf(base, "loading %s", "abc")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.Equal(t, "loading abc: analysis abc not found", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), "running")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, Wrap(nil, "ignored"))
	assert.Nil(t, Wrapf(nil, "ignored %d", 1))
}

func TestWithCode(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := WithCode(CodeDatabaseError, cause)
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.ErrorIs(t, err, cause)

	recoded := WithCode(CodeConfigInvalid, ConfigInvalid("bad url"))
	assert.Equal(t, CodeConfigInvalid, GetCode(recoded))
	assert.Nil(t, WithCode(CodeDatabaseError, nil))
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("cli: %w", AnalysisError("promotions.csv", fmt.Errorf("no rows")))
	require.True(t, IsAppError(err))
	assert.Equal(t, CodeAnalysisError, GetCode(err))
	assert.Contains(t, err.Error(), "analysis of promotions.csv failed: no rows")

	v := ValidationError("bad --level", fmt.Errorf("must be in (0,1)"))
	assert.Equal(t, CodeValidationError, GetCode(v))
	assert.Equal(t, "bad --level: must be in (0,1)", v.Error())

	assert.False(t, IsAppError(fmt.Errorf("plain")))
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain")))
}
