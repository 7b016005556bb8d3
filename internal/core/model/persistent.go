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
	"regexp"
	"time"
)

// ObjectKeyTimeLayout is the UTC timestamp layout embedded in artifact keys.
const ObjectKeyTimeLayout = "20060102_150405"

var keyTimestamp = regexp.MustCompile(`_(\d{8}_\d{6})_[0-9a-zA-Z]{8}\.mp4$`)

// ParseKeyTimestamp extracts the creation time embedded in an artifact key of
// the form <prefix>/<channel>/<platform>_<YYYYMMDD_HHMMSS>_<id>.mp4.
func ParseKeyTimestamp(key string) (time.Time, bool) {
	m := keyTimestamp.FindStringSubmatch(key)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(ObjectKeyTimeLayout, m[1], time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Artifact is a published video as seen through an object store listing.
type Artifact struct {
	ObjectKey string    `json:"object_key"`
	CreatedAt time.Time `json:"created_at"`
	SizeBytes int64     `json:"size_bytes"`
}

// PublishedVideo is the caller-facing result of one successful assembly.
type PublishedVideo struct {
	Artifact
	Platform  string `json:"platform"`
	PublicURL string `json:"video_url"`
}

// RenderRecord is the BigQuery row written for every published artifact.
type RenderRecord struct {
	TaskId           string    `json:"task_id" bigquery:"task_id"`
	Platform         string    `json:"platform" bigquery:"platform"`
	ChannelName      string    `json:"channel_name" bigquery:"channel_name"`
	ObjectKey        string    `json:"object_key" bigquery:"object_key"`
	PublicUrl        string    `json:"public_url" bigquery:"public_url"`
	NarrationSeconds float64   `json:"narration_seconds" bigquery:"narration_seconds"`
	SceneCount       int       `json:"scene_count" bigquery:"scene_count"`
	ClipsSourced     int       `json:"clips_sourced" bigquery:"clips_sourced"`
	ClipsNormalized  int       `json:"clips_normalized" bigquery:"clips_normalized"`
	Passes           int       `json:"passes" bigquery:"passes"`
	SizeBytes        int64     `json:"size_bytes" bigquery:"size_bytes"`
	CreateDate       time.Time `json:"create_date" bigquery:"create_date"`
}

// NewRenderRecord stamps a record with the current time.
func NewRenderRecord(taskId string, video *PublishedVideo) *RenderRecord {
	return &RenderRecord{
		TaskId:     taskId,
		Platform:   video.Platform,
		ObjectKey:  video.ObjectKey,
		PublicUrl:  video.PublicURL,
		SizeBytes:  video.SizeBytes,
		CreateDate: time.Now(),
	}
}
