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

package albion

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-arcade/vigia/internal/model"
)

// Category classifies a failed directory call.
type Category string

const (
	CategoryNotFound    Category = "not_found"
	CategoryGone        Category = "gone"
	CategoryTimeout     Category = "timeout"
	CategoryOutage      Category = "outage"
	CategoryRateLimited Category = "rate_limited"
	CategoryBadData     Category = "bad_data"
)

// DirectoryError is returned by every Client method. It unwraps to
// model.ErrNotFound for CategoryNotFound, model.ErrProfileGone for
// CategoryGone and model.ErrInconclusive for all other categories, plus the
// underlying cause.
//
// Only a search without an exact name match is CategoryNotFound. A 404 on a
// player id the search just listed is CategoryGone: the directory is lagging,
// not authoritative.
type DirectoryError struct {
	Category   Category
	Op         string
	Status     int
	Err        error
	retryAfter time.Duration
}

func (e *DirectoryError) Error() string {
	msg := fmt.Sprintf("albion %s: %s", e.Op, e.Category)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DirectoryError) Unwrap() []error {
	sentinel := model.ErrInconclusive
	switch e.Category {
	case CategoryNotFound:
		sentinel = model.ErrNotFound
	case CategoryGone:
		sentinel = model.ErrProfileGone
	}
	if e.Err == nil {
		return []error{sentinel}
	}
	return []error{sentinel, e.Err}
}

// RetryAfter is the upstream-requested wait of a rate-limited reply.
func (e *DirectoryError) RetryAfter() time.Duration {
	return e.retryAfter
}

// Temporary reports whether the call is worth repeating.
func (e *DirectoryError) Temporary() bool {
	switch e.Category {
	case CategoryTimeout, CategoryOutage, CategoryRateLimited:
		return true
	default:
		return false
	}
}

func isTemporary(err error) bool {
	var de *DirectoryError
	return errors.As(err, &de) && de.Temporary()
}
