// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import (
	"errors"
	"fmt"
)

// ErrNoNormalizedClips is returned when every sourced clip failed to normalize.
var ErrNoNormalizedClips = errors.New("no clip survived normalization")

// ErrInvalidRequest marks intake payloads that cannot be processed.
var ErrInvalidRequest = errors.New("invalid video request")

// InsufficientClipsError is returned when fewer scenes than required yielded
// a usable clip.
type InsufficientClipsError struct {
	Achieved int
	Required int
	Scenes   int
}

func (e *InsufficientClipsError) Error() string {
	return fmt.Sprintf("insufficient clips: sourced %d of %d scenes, %d required", e.Achieved, e.Scenes, e.Required)
}
