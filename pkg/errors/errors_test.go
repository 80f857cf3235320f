package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewNotFound("appointment", nil), http.StatusNotFound},
		{NewValidation("bad input"), http.StatusBadRequest},
		{NewInvalidRange("start must be before end"), http.StatusBadRequest},
		{NewConflict(nil), http.StatusConflict},
		{NewInvalidTransition("completed", "cancelled"), http.StatusConflict},
		{NewAlreadyCancelled(), http.StatusConflict},
		{NewPlanAlreadyComplete(), http.StatusConflict},
		{NewHasCompletedSessions(2), http.StatusConflict},
		{NewIntegrityFault("counter overflow"), http.StatusInternalServerError},
		{NewOperationFailed(errors.New("boom")), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("create failed: %w", NewConflict(nil))
	assert.Equal(t, ErrConflict, Code(err))
	assert.Equal(t, ErrorCode(0), Code(errors.New("plain")))
	assert.Equal(t, ErrorCode(0), Code(nil))
}

func TestIsMatchesOnCode(t *testing.T) {
	assert.ErrorIs(t, NewAlreadyCancelled(), NewAlreadyCancelled())
	assert.NotErrorIs(t, NewAlreadyCancelled(), NewPlanAlreadyComplete())
}

func TestMessages(t *testing.T) {
	assert.EqualError(t, NewInvalidTransition("completed", "cancelled"),
		"invalid transition from completed to cancelled")
	assert.EqualError(t, NewNotFound("patient", nil), "patient not found")

	err := NewHasCompletedSessions(3)
	assert.Contains(t, err.Error(), "3 completed session(s)")
	assert.Equal(t, map[string]int{"completed_sessions": 3}, err.Details)
}
