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

package query

import "strings"

const (
	// WindowWords is the width of a scene text window.
	WindowWords = 7
	// DefaultWordsPerSecond is assumed when the narration length is unknown.
	DefaultWordsPerSecond = 2.5
)

// SceneWindow returns the slice of script words spoken around the start of
// scene sceneIndex, estimating the speaking rate from the narration length.
// An empty string is returned once the estimate runs past the script.
func SceneWindow(words []string, sceneIndex int, sceneCount int, narrationSeconds float64) string {
	if len(words) == 0 || sceneCount <= 0 {
		return ""
	}
	wordsPerSecond := DefaultWordsPerSecond
	if narrationSeconds > 0 {
		wordsPerSecond = float64(len(words)) / narrationSeconds
	}
	start := int(float64(sceneIndex) * narrationSeconds / float64(sceneCount) * wordsPerSecond)
	if start < 0 || start >= len(words) {
		return ""
	}
	end := start + WindowWords
	if end > len(words) {
		end = len(words)
	}
	return strings.Join(words[start:end], " ")
}
