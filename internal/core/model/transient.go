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

// Package model holds the data structures that flow through an assembly run:
// the intake request, the provider-facing clip descriptors, the local clip
// files at each stage and the published artifact.
package model

import (
	"math"
	"strings"
)

// DefaultSceneCount is the number of background clips requested per video.
const DefaultSceneCount = 5

// DefaultMaxSceneCount bounds the scene_count a request may ask for.
const DefaultMaxSceneCount = 10

// VideoRequest is the immutable input of one assembly run.
type VideoRequest struct {
	NarrationAudio  string `json:"audio_url"`   // data:audio base64 URL, http(s) URL or gs:// reference.
	ScriptText      string `json:"script"`      // Narration script, used for scene text windows.
	TitleText       string `json:"video_title"` // Title of the video.
	KeywordsText    string `json:"keywords"`    // Comma separated keyword hints.
	DescriptionText string `json:"description"` // Free form description.
	PlatformLabel   string `json:"platform"`    // Target platform label, e.g. "tiktok".
	SceneCount      int    `json:"scene_count,omitempty"`
	ChannelName     string `json:"channel_name,omitempty"`
	RowNumber       int    `json:"row_number,omitempty"`
}

// GetSceneCount returns SceneCount or DefaultSceneCount when unset.
func (r *VideoRequest) GetSceneCount() int {
	if r.SceneCount <= 0 {
		return DefaultSceneCount
	}
	return r.SceneCount
}

// ScriptWords returns the lower-cased, whitespace separated script words.
func (r *VideoRequest) ScriptWords() []string {
	return strings.Fields(strings.ToLower(r.ScriptText))
}

// GenerateTask groups the per-platform videos of one intake request.
type GenerateTask struct {
	TaskID      string          `json:"task_id"`
	ChannelName string          `json:"channel_name"`
	RowNumber   int             `json:"row_number"`
	SheetID     string          `json:"sheet_id"`
	WebhookURL  string          `json:"webhook_callback_url,omitempty"`
	Videos      []*VideoRequest `json:"videos"`
}

// SearchQuery is the ordered keyword list sent to the clip providers.
type SearchQuery struct {
	Terms []string
}

func (q SearchQuery) String() string {
	return strings.Join(q.Terms, " ")
}

// Rendition is one downloadable quality variant of a remote clip.
type Rendition struct {
	URL     string
	Width   int
	Height  int
	Quality string
}

// ClipCandidate describes a remote clip returned by a provider search.
type ClipCandidate struct {
	Provider   string
	RemoteID   string
	Width      int
	Height     int
	Text       string // Description and tags, used for relevance filtering.
	Renditions []Rendition
}

// SmallestRenditionAtLeast returns the narrowest rendition whose width is at
// least minWidth. Ties keep the provider's order.
func (c *ClipCandidate) SmallestRenditionAtLeast(minWidth int) (Rendition, bool) {
	best := -1
	for i, r := range c.Renditions {
		if r.Width < minWidth || len(r.URL) == 0 {
			continue
		}
		if best < 0 || r.Width < c.Renditions[best].Width {
			best = i
		}
	}
	if best < 0 {
		return Rendition{}, false
	}
	return c.Renditions[best], true
}

// SourcedClip is a downloaded clip for one scene. DurationSeconds is the
// advisory target scene duration, not the clip's real length.
type SourcedClip struct {
	LocalFile       string
	DurationSeconds float64
	SceneIndex      int
	Provider        string
}

// NormalizedClip is a clip transcoded to the output geometry, frame rate and
// without audio. DurationSeconds is probed from the file.
type NormalizedClip struct {
	LocalFile       string
	DurationSeconds float64
	SceneIndex      int
}

// FitPlan is the ordered list of clip plays building the silent video track.
type FitPlan struct {
	Plays          []*NormalizedClip
	Passes         int
	TotalDuration  float64
	TargetDuration float64
}

// TargetSceneDuration is min(4.0, narration/sceneCount).
func TargetSceneDuration(narrationSeconds float64, sceneCount int) float64 {
	if sceneCount <= 0 {
		sceneCount = DefaultSceneCount
	}
	return math.Min(4.0, narrationSeconds/float64(sceneCount))
}

// RequiredScenes returns how many scenes must be filled for fraction of
// sceneCount, rounding up. A small epsilon absorbs float error so that 0.6*5
// requires 3 and not 4.
func RequiredScenes(fraction float64, sceneCount int) int {
	if fraction <= 0 {
		return 1
	}
	required := int(math.Ceil(fraction*float64(sceneCount) - 1e-9))
	if required < 1 {
		required = 1
	}
	if required > sceneCount {
		required = sceneCount
	}
	return required
}
