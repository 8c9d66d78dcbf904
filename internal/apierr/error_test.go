package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors_Flags(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      *Error
		network  bool
		timeout  bool
		canceled bool
		status   int
	}{
		{"network", Network(cause), true, false, false, 0},
		{"timeout", Timedout(cause), false, true, false, 0},
		{"canceled", Aborted(cause), false, false, true, 0},
		{"status", FromStatus(503, "unavailable", nil), false, false, false, 503},
		{"unknown", Unknown(cause), false, false, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.network, tt.err.NetworkError)
			assert.Equal(t, tt.timeout, tt.err.Timeout)
			assert.Equal(t, tt.canceled, tt.err.Canceled)
			assert.Equal(t, tt.status, tt.err.Status)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestError_AtMostOneRootCauseFlag(t *testing.T) {
	cause := errors.New("boom")
	for _, e := range []*Error{Network(cause), Timedout(cause), Aborted(cause), FromStatus(500, "x", nil), Unknown(cause)} {
		set := 0
		for _, f := range []bool{e.NetworkError, e.Timeout, e.Canceled} {
			if f {
				set++
			}
		}
		assert.LessOrEqual(t, set, 1)
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Network(cause)
	assert.True(t, errors.Is(err, cause))
}

func TestRetriable(t *testing.T) {
	assert.True(t, Retriable(Network(nil)))
	assert.True(t, Retriable(Timedout(nil)))
	assert.False(t, Retriable(Aborted(nil)))
	assert.False(t, Retriable(FromStatus(500, "x", nil)))
	assert.False(t, Retriable(errors.New("plain")))

	// wrapped normalized errors are still recognized
	wrapped := fmt.Errorf("submit: %w", Network(nil))
	assert.True(t, Retriable(wrapped))
}

func TestStatusOf(t *testing.T) {
	require.Equal(t, 404, StatusOf(FromStatus(404, "not found", nil)))
	require.Equal(t, 0, StatusOf(Network(nil)))
	require.Equal(t, 0, StatusOf(errors.New("plain")))
}
