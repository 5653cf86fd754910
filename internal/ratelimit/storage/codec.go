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

package storage

import "encoding/json"

// Encode serializes any algorithm state or configuration record into the
// opaque byte form a Store persists. The wire format is unspecified to
// callers beyond "round-trips"; this package picks encoding/json.
func Encode(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Decode deserializes bytes produced by Encode back into v (a pointer).
func Decode(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
