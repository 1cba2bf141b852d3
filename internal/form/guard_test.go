package form

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"electoral-app/internal/common"
)

func TestGuard_RejectsConcurrentSubmission(t *testing.T) {
	g := NewGuard("emergency")
	require.NoError(t, g.TryAcquire())
	assert.True(t, g.Busy())

	err := g.TryAcquire()
	require.Error(t, err)
	assert.True(t, common.IsErrorCode(err, common.ErrBusy))

	g.Release()
	assert.False(t, g.Busy())
	assert.NoError(t, g.TryAcquire())
}

func TestGuard_RunReleasesOnFailure(t *testing.T) {
	g := NewGuard("auth")
	boom := errors.New("boom")

	err := g.Run(func() error {
		assert.True(t, g.Busy())
		nested := g.Run(func() error { return nil })
		assert.True(t, common.IsErrorCode(nested, common.ErrBusy))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, g.Busy(), "guard must be released after a failed submission")
	assert.Equal(t, "auth", g.Name())
}
