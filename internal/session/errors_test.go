package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlreadyPausedCarriesReason(t *testing.T) {
	err := AlreadyPaused("assert")
	var already *AlreadyPausedError
	assert.True(t, errors.As(err, &already))
	assert.Equal(t, "assert", already.Reason)
	assert.Contains(t, err.Error(), "assert")
}

func TestNotPausedIsStableSentinel(t *testing.T) {
	assert.ErrorIs(t, ErrNotPaused, ErrNotPaused)
}
