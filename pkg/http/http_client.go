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

package http

import (
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
)

const (
	// DETAIL is the fiber Locals key a handler stores its payload under.
	DETAIL = "detail"
	// RequestIDKey is the fiber Locals key carrying the request id.
	RequestIDKey = "request_id"
	// ClaimsKey is the fiber Locals key carrying the parsed bearer claims.
	ClaimsKey = "claims"
)

// ClientConfig describes an outbound REST collaborator.
type ClientConfig struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// NewClient returns a resty client with sonic as the JSON codec and no
// built-in retries; callers own their retry policy.
func NewClient(conf ClientConfig) *resty.Client {
	client := resty.New().
		SetBaseURL(conf.BaseURL).
		SetTimeout(conf.Timeout).
		SetRetryCount(0).
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetHeader("Accept", "application/json")
	if conf.UserAgent != "" {
		client.SetHeader("User-Agent", conf.UserAgent)
	}
	for k, v := range conf.Headers {
		client.SetHeader(k, v)
	}
	return client
}
