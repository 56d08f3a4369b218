package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("missing fields"), http.StatusBadRequest},
		{Conflict("Username is already taken."), http.StatusBadRequest},
		{Auth("unauthenticated"), http.StatusUnauthorized},
		{NotFound("Character not found."), http.StatusNotFound},
		{Upstream("AI service unavailable", errors.New("boom")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", NotFound("x")), http.StatusNotFound},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Status(tc.err), tc.err.Error())
	}
}

func TestIsMatchesKind(t *testing.T) {
	err := fmt.Errorf("lookup: %w", NotFound("Character not found."))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrValidation)
}

func TestPublicMessageHidesCause(t *testing.T) {
	err := Upstream("AI service unavailable", errors.New("401 invalid api key sk-123"))
	assert.Equal(t, "AI service unavailable", PublicMessage(err))
	assert.Equal(t, "internal server error", PublicMessage(errors.New("db exploded")))
	assert.Equal(t, "upstream_error", From(err).Code())
}
