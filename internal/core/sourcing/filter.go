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

// Package sourcing fills the scenes of a video with stock clips, trying the
// configured providers in order for each scene.
package sourcing

import (
	"log/slog"
	"strings"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// Accept reports whether text mentions none of the banned topics. Matching is
// a case-insensitive substring test and blank entries are ignored.
func Accept(text string, banned []string) bool {
	lower := strings.ToLower(text)
	for _, topic := range banned {
		topic = strings.ToLower(strings.TrimSpace(topic))
		if len(topic) == 0 {
			continue
		}
		if strings.Contains(lower, topic) {
			slog.Warn("clip rejected by topic filter", "topic", topic)
			return false
		}
	}
	return true
}

// FilterCandidates keeps the candidates whose text passes Accept.
func FilterCandidates(candidates []*model.ClipCandidate, banned []string) []*model.ClipCandidate {
	out := make([]*model.ClipCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if Accept(c.Text, banned) {
			out = append(out, c)
		}
	}
	return out
}
