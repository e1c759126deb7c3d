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

// Package duration parses human durations with calendar-ish units on top of
// the time.ParseDuration syntax: "7d", "1w2d", "1M", "36h".
package duration

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

const (
	Day   = 24 * time.Hour
	Week  = 7 * Day
	Month = 30 * Day
	Year  = 365 * Day
)

var (
	ErrInvalidFormat = errors.New("invalid duration format")

	termRegex  = regexp.MustCompile(`(\d+)([smhdwMy])`)
	shapeRegex = regexp.MustCompile(`^(\d+[smhdwMy])+$`)

	units = map[string]time.Duration{
		"s": time.Second,
		"m": time.Minute,
		"h": time.Hour,
		"d": Day,
		"w": Week,
		"M": Month,
		"y": Year,
	}
)

// Parse accepts a sequence of <int><unit> terms with units s m h d w M y,
// or anything time.ParseDuration accepts ("1.5h", "250ms").
func Parse(s string) (time.Duration, error) {
	if s == "" {
		return 0, ErrInvalidFormat
	}
	if !shapeRegex.MatchString(s) {
		d, err := time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		return d, nil
	}

	var total time.Duration
	for _, term := range termRegex.FindAllStringSubmatch(s, -1) {
		n, err := strconv.ParseInt(term[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s", ErrInvalidFormat, s)
		}
		step := time.Duration(n) * units[term[2]]
		if n != 0 && step/time.Duration(n) != units[term[2]] {
			return 0, fmt.Errorf("%w: %s overflows", ErrInvalidFormat, s)
		}
		total += step
	}
	return total, nil
}

// DecodeHook lets mapstructure (and so viper) decode strings such as "7d"
// into time.Duration fields. Numbers are taken as nanoseconds.
func DecodeHook() mapstructure.DecodeHookFuncType {
	durationType := reflect.TypeOf(time.Duration(0))
	return func(from, to reflect.Type, data any) (any, error) {
		if to != durationType || from.Kind() != reflect.String {
			return data, nil
		}
		return Parse(data.(string))
	}
}
