// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package statemachine holds transition tables for records whose state lives
// in a store. The table does not own a current state; callers ask it which
// transitions are legal and which source states a compare-and-set may match.
package statemachine

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrInvalidTransition is returned by Check for a transition not in the table.
var ErrInvalidTransition = errors.New("invalid transition")

// StateMachine is a concurrency-safe transition table over states of type T.
type StateMachine[T comparable] struct {
	mu          sync.RWMutex
	transitions map[T][]T
	order       []T
}

// New creates an empty table.
func New[T comparable]() *StateMachine[T] {
	return &StateMachine[T]{transitions: make(map[T][]T)}
}

// Allow registers from -> to for each target. It returns the table for chaining.
func (sm *StateMachine[T]) Allow(from T, to ...T) *StateMachine[T] {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.remember(from)
	for _, t := range to {
		sm.remember(t)
		if !slices.Contains(sm.transitions[from], t) {
			sm.transitions[from] = append(sm.transitions[from], t)
		}
	}
	return sm
}

func (sm *StateMachine[T]) remember(s T) {
	if !slices.Contains(sm.order, s) {
		sm.order = append(sm.order, s)
	}
}

// CanTransition reports whether from -> to is allowed.
func (sm *StateMachine[T]) CanTransition(from, to T) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Contains(sm.transitions[from], to)
}

// Check returns ErrInvalidTransition when from -> to is not allowed.
func (sm *StateMachine[T]) Check(from, to T) error {
	if sm.CanTransition(from, to) {
		return nil
	}
	return fmt.Errorf("%w: %v → %v", ErrInvalidTransition, from, to)
}

// Sources returns every state that may move to `to`, in registration order.
// It is the expected-status set for a guarded UPDATE.
func (sm *StateMachine[T]) Sources(to T) []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	var out []T
	for _, from := range sm.order {
		if slices.Contains(sm.transitions[from], to) {
			out = append(out, from)
		}
	}
	return out
}

// Next returns the states reachable from `from`.
func (sm *StateMachine[T]) Next(from T) []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.transitions[from])
}

// States returns all known states in registration order.
func (sm *StateMachine[T]) States() []T {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return slices.Clone(sm.order)
}
