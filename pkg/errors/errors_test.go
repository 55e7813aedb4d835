package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneKeepsIdentityForIs(t *testing.T) {
	err := Clone(ErrOverCapacity, "remaining capacity is -1h0m0s")
	assert.True(t, errors.Is(err, ErrOverCapacity))
	assert.False(t, errors.Is(err, ErrEmptyWindow))
	assert.Equal(t, "remaining capacity is -1h0m0s", err.Message)
	assert.Equal(t, http.StatusUnprocessableEntity, err.Status)
}

func TestFromErrorWrapsUnknown(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Nil(t, FromError(nil))
}

func TestUnavailableWrapsCause(t *testing.T) {
	cause := fmt.Errorf("dial tcp: refused")
	err := Unavailable(cause, "")
	assert.True(t, errors.Is(err, ErrSourceUnavailable))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, FromError(fmt.Errorf("ctx: %w", err)).Status)
}
