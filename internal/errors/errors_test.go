package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidInput("bad edge count")
	wrapped := Wrap(base, "replicate request rejected")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "replicate request rejected: bad edge count", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapForeignError(t *testing.T) {
	cause := stderrors.New("connection refused")
	wrapped := Wrapf(cause, "saving run %s", "abc")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeQueueTimeout, stderrors.New("no replicate within 5s"))
	assert.Equal(t, CodeQueueTimeout, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
}
