// Package model provides state management shared by svmkit models.
package model

import (
	"sync"

	"github.com/YuminosukeSato/svmkit/pkg/errors"
)

// StateManager manages the trained state of a model in a thread-safe manner.
// It replaces the BaseEstimator embedding pattern with composition.
type StateManager struct {
	mu sync.RWMutex

	modelName string
	trained   bool
	varCount  int
	nSamples  int
}

// NewStateManager creates an untrained StateManager. modelName is used in
// NotFittedError messages.
func NewStateManager(modelName string) *StateManager {
	return &StateManager{modelName: modelName}
}

// IsTrained returns whether the model has been trained.
func (s *StateManager) IsTrained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trained
}

// SetTrained marks the model as trained on data with the given shape.
func (s *StateManager) SetTrained(varCount, nSamples int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = true
	s.varCount = varCount
	s.nSamples = nSamples
}

// Reset returns to the untrained state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = false
	s.varCount = 0
	s.nSamples = 0
}

// VarCount は最後に成功した学習の特徴量数を返します。未学習の場合は 0 です。
func (s *StateManager) VarCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.trained {
		return 0
	}
	return s.varCount
}

// RequireTrained returns a NotFittedError (kind ErrInvalidState) if the model
// has not been trained. method names the caller in the message.
func (s *StateManager) RequireTrained(method string) error {
	if !s.IsTrained() {
		return errors.NewNotFittedError(s.modelName, method)
	}
	return nil
}

// RequireVarCount checks a feature count against the trained dimensionality.
func (s *StateManager) RequireVarCount(method string, got int) error {
	if err := s.RequireTrained(method); err != nil {
		return err
	}
	if want := s.VarCount(); got != want {
		return errors.NewDimensionError(method, want, got, 1)
	}
	return nil
}

// ModelState は StateManager のスナップショットです。
type ModelState struct {
	Trained  bool `json:"trained"`
	VarCount int  `json:"var_count,omitempty"`
	NSamples int  `json:"n_samples,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ModelState{Trained: s.trained, VarCount: s.varCount, NSamples: s.nSamples}
}

// SetState restores a snapshot taken with GetState.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = state.Trained
	s.varCount = state.VarCount
	s.nSamples = state.NSamples
}
