package model

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

func TestStateManager_Lifecycle(t *testing.T) {
	s := NewStateManager("SVM")
	assert.False(t, s.IsTrained())
	assert.Zero(t, s.VarCount())

	err := s.RequireTrained("Predict")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidState))
	assert.Contains(t, err.Error(), "SVM")

	s.SetTrained(3, 12)
	assert.True(t, s.IsTrained())
	assert.Equal(t, 3, s.VarCount())
	assert.NoError(t, s.RequireTrained("Predict"))

	s.Reset()
	assert.False(t, s.IsTrained())
	assert.Zero(t, s.VarCount())
}

func TestStateManager_RequireVarCount(t *testing.T) {
	s := NewStateManager("SVM")
	assert.True(t, errors.Is(s.RequireVarCount("Predict", 3), errors.ErrInvalidState))

	s.SetTrained(3, 10)
	assert.NoError(t, s.RequireVarCount("Predict", 3))
	err := s.RequireVarCount("Predict", 2)
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestStateManager_SnapshotRestore(t *testing.T) {
	s := NewStateManager("SVM")
	s.SetTrained(4, 20)
	snap := s.GetState()

	s.Reset()
	s.SetState(snap)
	assert.Equal(t, ModelState{Trained: true, VarCount: 4, NSamples: 20}, s.GetState())
}

func TestStateManager_Concurrent(t *testing.T) {
	s := NewStateManager("SVM")
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			s.SetTrained(n, n)
		}(i + 1)
		go func() {
			defer wg.Done()
			_ = s.IsTrained()
			_ = s.VarCount()
		}()
	}
	wg.Wait()
	assert.True(t, s.IsTrained())
}

func TestFlagHas(t *testing.T) {
	f := FlagRawOutput | FlagReplaceModel
	assert.True(t, f.Has(FlagRawOutput))
	assert.True(t, f.Has(FlagReplaceModel))
	assert.False(t, Flag(0).Has(FlagRawOutput))
}
