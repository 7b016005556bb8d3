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

package model_test

import (
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	test "github.com/jaycherian/gcp-go-shorts-assembler/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenerateTaskArrayLayout(t *testing.T) {
	task, err := model.ParseGenerateTask([]byte(test.GetTestGenerateArrayPayload("gs://bucket/narration.mp3")), model.IntakeLimits{MaxVideos: 4})
	require.NoError(t, err)

	assert.Equal(t, "Travel Daily", task.ChannelName)
	assert.Equal(t, 12, task.RowNumber)
	assert.Equal(t, "sheet-abc", task.SheetID)
	require.Len(t, task.Videos, 2)
	assert.Equal(t, "youtube_shorts", task.Videos[0].PlatformLabel)
	assert.Equal(t, "tiktok", task.Videos[1].PlatformLabel)
	assert.Equal(t, "Travel Daily", task.Videos[1].ChannelName)
	assert.Equal(t, 12, task.Videos[1].RowNumber)
	assert.Equal(t, model.DefaultSceneCount, task.Videos[0].GetSceneCount())
}

func TestParseGenerateTaskObjectLayout(t *testing.T) {
	task, err := model.ParseGenerateTask([]byte(test.GetTestGenerateObjectPayload("gs://bucket/narration.mp3")), model.IntakeLimits{MaxVideos: 4})
	require.NoError(t, err)

	assert.Equal(t, "Travel Daily", task.ChannelName)
	assert.Equal(t, 7, task.RowNumber)
	assert.Equal(t, model.DefaultSheetID, task.SheetID)
	assert.Equal(t, "http://127.0.0.1:1/hook", task.WebhookURL)
	require.Len(t, task.Videos, 2)
	assert.Equal(t, "youtube_shorts", task.Videos[0].PlatformLabel)
	assert.Equal(t, "instagram_reels", task.Videos[1].PlatformLabel)
}

func TestParseGenerateTaskChannelFromFirstEntry(t *testing.T) {
	body := `{"tiktok": {"audio_url": "https://a.test/n.mp3", "channel_name": "Inner", "row_number": 3}}`
	task, err := model.ParseGenerateTask([]byte(body), model.IntakeLimits{MaxVideos: 4})
	require.NoError(t, err)
	assert.Equal(t, "Inner", task.ChannelName)
	assert.Equal(t, 3, task.RowNumber)
}

func TestParseGenerateTaskDefaults(t *testing.T) {
	body := `{"videos": [{"platform": "tiktok", "audio_url": "https://a.test/n.mp3"}]}`
	task, err := model.ParseGenerateTask([]byte(body), model.IntakeLimits{MaxVideos: 4})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultChannelName, task.ChannelName)
	assert.Equal(t, model.DefaultSheetID, task.SheetID)
	assert.Equal(t, model.DefaultChannelName, task.Videos[0].ChannelName)
}

func TestParseGenerateTaskRejects(t *testing.T) {
	cases := map[string]string{
		"malformed":      `{"videos": [`,
		"unknown layout": `{"channel_name": "x"}`,
		"empty videos":   `{"videos": []}`,
		"no platform":    `{"videos": [{"audio_url": "https://a.test/n.mp3"}]}`,
		"no audio":       `{"videos": [{"platform": "tiktok"}]}`,
		"too many": `{"videos": [
			{"platform": "a", "audio_url": "u"}, {"platform": "b", "audio_url": "u"},
			{"platform": "c", "audio_url": "u"}, {"platform": "d", "audio_url": "u"},
			{"platform": "e", "audio_url": "u"}]}`,
		"negative scenes": `{"videos": [{"platform": "tiktok", "audio_url": "u", "scene_count": -1}]}`,
		"huge scenes":     `{"videos": [{"platform": "tiktok", "audio_url": "u", "scene_count": 2000000000}]}`,
		"above default":   `{"videos": [{"platform": "tiktok", "audio_url": "u", "scene_count": 11}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := model.ParseGenerateTask([]byte(body), model.IntakeLimits{MaxVideos: 4})
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidRequest))
		})
	}
}

func TestParseGenerateTaskSceneCountBound(t *testing.T) {
	body := []byte(`{"videos": [{"platform": "tiktok", "audio_url": "u", "scene_count": 8}]}`)

	task, err := model.ParseGenerateTask(body, model.IntakeLimits{MaxVideos: 4})
	require.NoError(t, err)
	assert.Equal(t, 8, task.Videos[0].GetSceneCount())

	_, err = model.ParseGenerateTask(body, model.IntakeLimits{MaxVideos: 4, MaxScenes: 6})
	assert.ErrorIs(t, err, model.ErrInvalidRequest)

	task, err = model.ParseGenerateTask([]byte(`{"videos": [{"platform": "tiktok", "audio_url": "u", "scene_count": 10}]}`), model.IntakeLimits{})
	require.NoError(t, err)
	assert.Equal(t, model.DefaultMaxSceneCount, task.Videos[0].GetSceneCount())
}
