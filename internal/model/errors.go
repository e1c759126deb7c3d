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

package model

import (
	"errors"

	"github.com/go-arcade/vigia/pkg/statemachine"
)

var (
	// ErrNotFound means the claimed name has no exact match in the directory.
	ErrNotFound = errors.New("player not found")
	// ErrProfileGone means a previously resolved player can no longer be found.
	ErrProfileGone = errors.New("player profile gone")
	// ErrInconclusive covers transport failures, timeouts and malformed replies.
	// It must never be treated as a negative answer.
	ErrInconclusive = errors.New("directory lookup inconclusive")
	// ErrAuthorizationDenied is returned when an actor lacks the rights for an
	// operation: the bot against the chat platform, or a reviewer below tier.
	ErrAuthorizationDenied = errors.New("authorization denied")
	// ErrConfigIncomplete means the community has not been set up.
	ErrConfigIncomplete = errors.New("community configuration incomplete")

	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyVerified   = errors.New("member already verified")
	ErrRequestNotFound   = errors.New("verification request not found")
	ErrNotAffiliated     = errors.New("player is not in the target guild or alliance")
	ErrMemberGone        = errors.New("member is no longer in the community")
	ErrInvalidTransition = statemachine.ErrInvalidTransition
)
