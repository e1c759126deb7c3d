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

import "net/http"

var (
	Failed                        = failed(http.StatusInternalServerError, 500, "Request failed")
	InternalError                 = failed(http.StatusInternalServerError, 5000, "Internal error, please contact the administrator")
	RequestParameterParsingFailed = failed(http.StatusBadRequest, 5001, "Request parameter parsing failed")

	// Unauthorized 401
	Unauthorized         = failed(http.StatusUnauthorized, 4401, "Unauthorized")
	AuthorizationEmpty   = failed(http.StatusUnauthorized, 4404, "Authorization is empty")
	InvalidToken         = failed(http.StatusUnauthorized, 4405, "Invalid token")
	TokenExpired         = failed(http.StatusUnauthorized, 4407, "Token is expired")
	TokenFormatIncorrect = failed(http.StatusUnauthorized, 4408, "Token format is incorrect")

	// BadRequest 400
	BadRequest = failed(http.StatusBadRequest, 4000, "Bad request")
	NotFound   = failed(http.StatusNotFound, 4004, "Not found")

	// Forbidden 403
	Forbidden        = failed(http.StatusForbidden, 4030, "Forbidden")
	PermissionDenied = failed(http.StatusForbidden, 4031, "Permission denied")
	PrivilegeDenied  = failed(http.StatusBadGateway, 4032, "The bot lacks permission for this action; staff have been notified")

	ShuttingDown = failed(http.StatusServiceUnavailable, 5030, "Server is shutting down")

	// verification
	PlayerNotFound     = failed(http.StatusNotFound, 4101, "No player with exactly that name was found")
	ConfigIncomplete   = failed(http.StatusConflict, 4102, "This community has not finished setup")
	NotAffiliated      = failed(http.StatusConflict, 4103, "The player is not in the target guild or alliance")
	AlreadyVerified    = failed(http.StatusConflict, 4104, "Already verified")
	RequestNotFound    = failed(http.StatusNotFound, 4105, "Verification request not found")
	ProofNotSatisfied  = failed(http.StatusOK, 4106, "Verification still pending")
	DirectoryUnstable  = failed(http.StatusServiceUnavailable, 5031, "The game directory did not answer, try again later")
	RequestStateChange = failed(http.StatusConflict, 4107, "The request changed state, reload and retry")
	PlayerGone         = failed(http.StatusNotFound, 4108, "The claimed player can no longer be found")
)

var (
	Success = success(200, "Request Success")
)

func failed(status, code int, msg string) *Response {
	return &Response{
		Status: status,
		Code:   code,
		Msg:    msg,
	}
}

func success(code int, msg string) *Response {
	return &Response{
		Status: http.StatusOK,
		Code:   code,
		Msg:    msg,
	}
}
