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

// Package test provides the configuration, sample payloads and in-memory
// fakes shared by the test suites: an object store, an ffmpeg runner and an
// ffprobe replacement, so assembly runs end to end without external tools.
package test

import (
	"encoding/base64"
	"log"
	"os"
	"sync"
	"testing"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
)

// StateManager caches the test configuration.
type StateManager struct {
	mu     sync.Mutex
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS points the configuration loader at the test configuration.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig returns a copy of the cached test configuration. Missing config
// files leave the built-in defaults in place, with a test bucket and no
// provider keys.
func GetConfig() *cloud.Config {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load test configuration: %v\n", err)
		}
		if len(config.Storage.OutputBucket) == 0 {
			config.Storage.OutputBucket = "test-bucket"
		}
		state.config = config
	}
	copied := *state.config
	copied.Providers = make(map[string]cloud.Provider, len(state.config.Providers))
	for k, v := range state.config.Providers {
		copied.Providers[k] = v
	}
	return &copied
}

// Mp4Header is the start of an ISO media file with an mp42 brand, padded so
// it sniffs as video.
var Mp4Header = append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}, make([]byte, 52)...)

// Mp3Header is an ID3 tagged MP3 prefix, padded so it sniffs as audio.
var Mp3Header = append([]byte{'I', 'D', '3', 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, make([]byte, 54)...)

// NarrationDataURL returns a base64 data URL carrying Mp3Header.
func NarrationDataURL() string {
	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(Mp3Header)
}

// GetTestGenerateArrayPayload returns an intake body in the array format.
func GetTestGenerateArrayPayload(audioURL string) string {
	return `{
  "channel_name": "Travel Daily",
  "row_number": 12,
  "sheet_id": "sheet-abc",
  "videos": [
    {
      "platform": "youtube_shorts",
      "audio_url": "` + audioURL + `",
      "video_title": "Ocean Sunset",
      "keywords": "ocean, sunset, waves",
      "description": "Waves crash on the beach at sunset",
      "script": "The ocean waves roll onto the beach while the sunset paints the horizon"
    },
    {
      "platform": "tiktok",
      "audio_url": "` + audioURL + `",
      "video_title": "Ocean Sunset",
      "keywords": "ocean, sunset",
      "script": "Golden light over calm water"
    }
  ]
}`
}

// GetTestGenerateObjectPayload returns an intake body in the object format,
// keyed by platform.
func GetTestGenerateObjectPayload(audioURL string) string {
	return `{
  "channel_name": "Travel Daily",
  "row_number": 7,
  "webhook_callback_url": "http://127.0.0.1:1/hook",
  "youtube_shorts": {
    "audio_url": "` + audioURL + `",
    "video_title": "Mountain Morning",
    "keywords": "mountains, hiking",
    "script": "Morning mist rises over quiet mountains"
  },
  "instagram_reels": {
    "audio_url": "` + audioURL + `",
    "video_title": "Mountain Morning",
    "script": "Morning mist rises over quiet mountains"
  }
}`
}
