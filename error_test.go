package critical_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fwojciec/critical"
	"github.com/stretchr/testify/assert"
)

func TestErrorf(t *testing.T) {
	t.Parallel()

	err := critical.Errorf(critical.ENOTFOUND, "stylesheet %q not found", "main.css")

	assert.Equal(t, critical.ENOTFOUND, critical.ErrorCode(err))
	assert.Equal(t, "stylesheet \"main.css\" not found", critical.ErrorMessage(err))
}

func TestErrorCode_Wrapped(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("process: %w", critical.Errorf(critical.EPARSE, "bad css"))

	assert.Equal(t, critical.EPARSE, critical.ErrorCode(err))
	assert.Equal(t, "bad css", critical.ErrorMessage(err))
}

func TestErrorCode_PlainError(t *testing.T) {
	t.Parallel()

	err := errors.New("boom")

	assert.Equal(t, critical.EINTERNAL, critical.ErrorCode(err))
	assert.Equal(t, "Internal error.", critical.ErrorMessage(err))
}

func TestErrorCode_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, critical.ErrorCode(nil))
}

func TestErrorMessage_NilError(t *testing.T) {
	t.Parallel()

	assert.Empty(t, critical.ErrorMessage(nil))
}
