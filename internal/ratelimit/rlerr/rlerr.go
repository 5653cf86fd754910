// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package rlerr defines the one caller-visible error kind the limiter
// service returns: a validation error. Store failures and algorithm-state
// corruption are handled internally (logged and swallowed / reinitialized)
// and never reach the caller as an error.
package rlerr

import "fmt"

// ValidationError reports a missing or malformed request parameter, or an
// unrecognized algorithm tag. It is always caller-visible and never counted
// against quota.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("rate limiter: invalid %s: %s", e.Field, e.Message)
}

// NewValidationError constructs a ValidationError for field with message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
