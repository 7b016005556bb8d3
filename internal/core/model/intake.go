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
	"encoding/json"
	"fmt"
	"strings"
)

// Platform labels accepted by the intake and reported by the notifier, in
// report order.
var Platforms = []string{"youtube_shorts", "tiktok", "instagram_reels", "facebook_reels"}

const (
	DefaultChannelName = "Unknown"
	DefaultSheetID     = "unknown"
)

type intakeEnvelope struct {
	ChannelName string          `json:"channel_name"`
	RowNumber   int             `json:"row_number"`
	SheetID     string          `json:"sheet_id"`
	WebhookURL  string          `json:"webhook_callback_url"`
	Videos      []*VideoRequest `json:"videos"`
}

// IntakeLimits bound what one generate task may request.
type IntakeLimits struct {
	MaxVideos int // Videos per task; unbounded when not positive.
	MaxScenes int // scene_count per video; DefaultMaxSceneCount when not positive.
}

func (l IntakeLimits) maxScenes() int {
	if l.MaxScenes <= 0 {
		return DefaultMaxSceneCount
	}
	return l.MaxScenes
}

// ParseGenerateTask decodes an intake body. Two layouts are accepted: the
// array layout with a "videos" list, and the object layout keyed by platform
// label. In the object layout the channel and row may also be given inside
// the first platform entry. The returned task has no TaskID.
func ParseGenerateTask(data []byte, limits IntakeLimits) (*GenerateTask, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: malformed json: %v", ErrInvalidRequest, err)
	}
	var env intakeEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	task := &GenerateTask{
		ChannelName: env.ChannelName,
		RowNumber:   env.RowNumber,
		SheetID:     env.SheetID,
		WebhookURL:  env.WebhookURL,
	}
	if _, ok := raw["videos"]; ok {
		task.Videos = env.Videos
	} else {
		for _, platform := range Platforms {
			entry, ok := raw[platform]
			if !ok {
				continue
			}
			var v VideoRequest
			if err := json.Unmarshal(entry, &v); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRequest, platform, err)
			}
			v.PlatformLabel = platform
			if len(task.Videos) == 0 {
				if len(task.ChannelName) == 0 {
					task.ChannelName = v.ChannelName
				}
				if task.RowNumber == 0 {
					task.RowNumber = v.RowNumber
				}
			}
			task.Videos = append(task.Videos, &v)
		}
		if len(task.Videos) == 0 {
			return nil, fmt.Errorf("%w: expected a videos list or platform entries", ErrInvalidRequest)
		}
	}

	if err := task.Validate(limits); err != nil {
		return nil, err
	}
	task.applyDefaults()
	return task, nil
}

// Validate checks the video and scene counts and that every video names a
// platform and a narration.
func (t *GenerateTask) Validate(limits IntakeLimits) error {
	if len(t.Videos) == 0 {
		return fmt.Errorf("%w: no videos", ErrInvalidRequest)
	}
	if limits.MaxVideos > 0 && len(t.Videos) > limits.MaxVideos {
		return fmt.Errorf("%w: %d videos, at most %d allowed", ErrInvalidRequest, len(t.Videos), limits.MaxVideos)
	}
	maxScenes := limits.maxScenes()
	for i, v := range t.Videos {
		if v == nil {
			return fmt.Errorf("%w: video %d is empty", ErrInvalidRequest, i)
		}
		if len(strings.TrimSpace(v.PlatformLabel)) == 0 {
			return fmt.Errorf("%w: video %d has no platform", ErrInvalidRequest, i)
		}
		if len(strings.TrimSpace(v.NarrationAudio)) == 0 {
			return fmt.Errorf("%w: video %d (%s) has no audio_url", ErrInvalidRequest, i, v.PlatformLabel)
		}
		if v.SceneCount < 0 {
			return fmt.Errorf("%w: video %d has a negative scene_count", ErrInvalidRequest, i)
		}
		if v.SceneCount > maxScenes {
			return fmt.Errorf("%w: video %d asks for %d scenes, at most %d allowed", ErrInvalidRequest, i, v.SceneCount, maxScenes)
		}
	}
	return nil
}

// applyDefaults fills the task defaults and copies the channel onto videos
// that do not carry one.
func (t *GenerateTask) applyDefaults() {
	if len(strings.TrimSpace(t.ChannelName)) == 0 {
		t.ChannelName = DefaultChannelName
	}
	if len(strings.TrimSpace(t.SheetID)) == 0 {
		t.SheetID = DefaultSheetID
	}
	for _, v := range t.Videos {
		if len(v.ChannelName) == 0 {
			v.ChannelName = t.ChannelName
		}
		v.RowNumber = t.RowNumber
	}
}
