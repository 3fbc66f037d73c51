package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrappedError(t *testing.T) {
	err := fmt.Errorf("checkout: %w", InsufficientStock("Insufficient stock for product '%s'", "Moby-Dick"))

	assert.Equal(t, KindInsufficientStock, KindOf(err))
	assert.True(t, Is(err, KindInsufficientStock))
	assert.Equal(t, "Insufficient stock for product 'Moby-Dick'", Message(err))
}

func TestForeignErrorsAreInternal(t *testing.T) {
	err := errors.New("connection reset")

	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, "Internal server error", Message(err))
	assert.False(t, Is(nil, KindInternal))
}

func TestInternalKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Internal(cause, "Failed to save order")

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Failed to save order", Message(err))
	assert.Contains(t, err.Error(), "disk full")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindNotFound:          http.StatusNotFound,
		KindInvalidArgument:   http.StatusBadRequest,
		KindInsufficientStock: http.StatusBadRequest,
		KindInvalidState:      http.StatusBadRequest,
		KindUnauthenticated:   http.StatusUnauthorized,
		KindForbidden:         http.StatusForbidden,
		KindConflict:          http.StatusConflict,
		KindInternal:          http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.HTTPStatus(), kind.String())
	}
}
