package vault

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycle_HappyPath(t *testing.T) {
	lc, err := newLifecycle("dataview")
	require.NoError(t, err)
	defer lc.Stop()

	assert.Equal(t, PhaseIdle, lc.Phase())
	assert.Equal(t, PhaseReading, lc.Begin())
	for _, want := range []Phase{
		PhaseResolving, PhasePreparing, PhaseFetchingManifest,
		PhaseRetrieving, PhaseRecording, PhaseInstalled,
	} {
		assert.Equal(t, want, lc.Advance())
	}

	assert.Len(t, lc.History(), 7)
	assert.NoError(t, lc.Err())
}

func TestLifecycle_Failure(t *testing.T) {
	lc, err := newLifecycle("dataview")
	require.NoError(t, err)
	defer lc.Stop()

	lc.Begin()
	lc.Advance()
	lc.Advance()

	cause := errors.New("disk full")
	assert.Equal(t, PhaseFailed, lc.Fail(cause))
	assert.Equal(t, PhasePreparing, lc.FailedPhase())
	assert.Equal(t, cause, lc.Err())

	assert.Equal(t, PhaseFailed, lc.Advance(), "failed is terminal")
}
