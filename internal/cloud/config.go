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

// Package cloud defines the application configuration, loaded from TOML files,
// and the clients used to talk to Google Cloud and to the stock clip providers.
//
// Structs:
//   - Storage: destination bucket, artifact prefix and public URL base.
//   - Retention: age and count limits of the artifact store.
//   - Assembly: transcode geometry, quality and timeouts.
//   - Sourcing: provider order, scene floor, scene count bound and banned topics.
//   - Provider: credentials, endpoint and pacing of one clip provider.
//   - Notify: webhook defaults.
//   - BigQueryDataSource: dataset and table of the render log.
//   - TopicSubscription: a Pub/Sub subscription feeding generate tasks.
//   - Config: the root of all of the above.
package cloud

import (
	"os"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// Provider names as used in configuration and on clip candidates.
const (
	ProviderPexels  = "pexels"
	ProviderPixabay = "pixabay"
)

// BigQueryDataSource locates the render log table.
type BigQueryDataSource struct {
	DatasetName string `toml:"dataset"`
	RenderTable string `toml:"render_table"`
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Storage configures the artifact bucket.
type Storage struct {
	OutputBucket     string `toml:"output_bucket"`
	ArtifactPrefix   string `toml:"artifact_prefix"`    // Root prefix of all artifacts, e.g. "shorts/".
	PublicBaseURL    string `toml:"public_base_url"`    // Public read URL base; defaults to storage.googleapis.com/<bucket>.
	SignedURLMinutes int    `toml:"signed_url_minutes"` // Lifetime of signed artifact URLs.
}

// Retention bounds the artifact store.
type Retention struct {
	Enabled              bool `toml:"enabled"`
	MaxAgeDays           int  `toml:"max_age_days"`
	MaxCount             int  `toml:"max_count"`
	SweepIntervalSeconds int  `toml:"sweep_interval_seconds"`
	SweepAfterPublish    bool `toml:"sweep_after_publish"`
}

// Assembly configures the transcodes. The codec parameters are fixed presets.
type Assembly struct {
	FfmpegPath              string `toml:"ffmpeg_path"`
	TempDir                 string `toml:"temp_dir"`
	FrameWidth              int    `toml:"frame_width"`
	FrameHeight             int    `toml:"frame_height"`
	FrameRate               int    `toml:"frame_rate"`
	VideoCodec              string `toml:"video_codec"`
	Preset                  string `toml:"preset"`
	Crf                     int    `toml:"crf"`
	AudioCodec              string `toml:"audio_codec"`
	AudioBitrate            string `toml:"audio_bitrate"`
	MinOutputBytes          int64  `toml:"min_output_bytes"`
	TranscodeTimeoutSeconds int    `toml:"transcode_timeout_seconds"`
	ProbeTimeoutSeconds     int    `toml:"probe_timeout_seconds"`
	NarrationTimeoutSeconds int    `toml:"narration_timeout_seconds"`
}

// TranscodeTimeout is the wall clock limit of one ffmpeg stage.
func (a Assembly) TranscodeTimeout() time.Duration {
	return seconds(a.TranscodeTimeoutSeconds, time.Hour)
}

// ProbeTimeout is the wall clock limit of one ffprobe call.
func (a Assembly) ProbeTimeout() time.Duration {
	return seconds(a.ProbeTimeoutSeconds, 10*time.Second)
}

// NarrationTimeout bounds fetching the narration audio.
func (a Assembly) NarrationTimeout() time.Duration {
	return seconds(a.NarrationTimeoutSeconds, 30*time.Second)
}

// Sourcing configures how scenes get their clips.
type Sourcing struct {
	ProviderOrder    []string `toml:"provider_order"`
	MinSceneFraction float64  `toml:"min_scene_fraction"`
	MinWidth         int      `toml:"min_width"`
	BannedTopics     []string `toml:"banned_topics"`
	MaxSceneCount    int      `toml:"max_scene_count"` // Upper bound of a request's scene_count.
}

// Provider configures one stock clip provider.
type Provider struct {
	APIKey                 string `toml:"api_key"`
	APIKeyEnv              string `toml:"api_key_env"`
	BaseURL                string `toml:"base_url"`
	PerPage                int    `toml:"per_page"`
	MaxPage                int    `toml:"max_page"`
	RequestsPerMinute      int    `toml:"requests_per_minute"`
	SearchTimeoutSeconds   int    `toml:"search_timeout_seconds"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
}

// ResolveAPIKey returns the configured key, falling back to the environment
// variable named by APIKeyEnv.
func (p Provider) ResolveAPIKey() string {
	if len(strings.TrimSpace(p.APIKey)) > 0 {
		return strings.TrimSpace(p.APIKey)
	}
	if len(p.APIKeyEnv) > 0 {
		return strings.TrimSpace(os.Getenv(p.APIKeyEnv))
	}
	return ""
}

func (p Provider) SearchTimeout() time.Duration {
	return seconds(p.SearchTimeoutSeconds, 20*time.Second)
}

func (p Provider) DownloadTimeout() time.Duration {
	return seconds(p.DownloadTimeoutSeconds, 30*time.Second)
}

// Notify configures the completion webhook.
type Notify struct {
	WebhookURL     string `toml:"webhook_url"`
	WebhookURLEnv  string `toml:"webhook_url_env"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// ResolveWebhookURL returns the configured URL or the one in WebhookURLEnv.
func (n Notify) ResolveWebhookURL() string {
	if len(n.WebhookURL) > 0 {
		return n.WebhookURL
	}
	if len(n.WebhookURLEnv) > 0 {
		return os.Getenv(n.WebhookURLEnv)
	}
	return ""
}

func (n Notify) Timeout() time.Duration {
	return seconds(n.TimeoutSeconds, 10*time.Second)
}

// Config is the root of the application configuration.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"`     // Scene sourcing and normalization workers per video.
		MaxConcurrentTasks        int    `toml:"max_concurrent_tasks"` // Generate tasks processed at once.
		MaxVideosPerTask          int    `toml:"max_videos_per_task"`
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		HttpPort                  int    `toml:"http_port"`
		TelemetryEnabled          bool   `toml:"telemetry_enabled"`
	} `toml:"application"`
	Storage            Storage                      `toml:"storage"`
	Retention          Retention                    `toml:"retention"`
	Assembly           Assembly                     `toml:"assembly"`
	Sourcing           Sourcing                     `toml:"sourcing"`
	Providers          map[string]Provider          `toml:"providers"`
	Notify             Notify                       `toml:"notify"`
	BigQueryDataSource BigQueryDataSource           `toml:"big_query_data_source"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"`
}

// providerDefaults fill the fields a [providers.<name>] section leaves unset.
var providerDefaults = map[string]Provider{
	ProviderPexels: {
		APIKeyEnv:         "PEXELS_API_KEY",
		BaseURL:           "https://api.pexels.com",
		PerPage:           25,
		MaxPage:           3,
		RequestsPerMinute: 60,
	},
	ProviderPixabay: {
		APIKeyEnv:         "PIXABAY_API_KEY",
		BaseURL:           "https://pixabay.com",
		PerPage:           25,
		MaxPage:           1,
		RequestsPerMinute: 60,
	},
}

// NewConfig returns a Config holding the defaults the TOML files override.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		Providers:          make(map[string]Provider),
	}
	for name, p := range providerDefaults {
		c.Providers[name] = p
	}
	c.Application.Name = "shorts-assembler"
	c.Application.ThreadPoolSize = 4
	c.Application.MaxConcurrentTasks = 2
	c.Application.MaxVideosPerTask = 4
	c.Application.HttpPort = 8080

	c.Storage.ArtifactPrefix = "shorts/"
	c.Storage.SignedURLMinutes = 15

	c.Retention = Retention{
		Enabled:              true,
		MaxAgeDays:           7,
		MaxCount:             200,
		SweepIntervalSeconds: 3600,
		SweepAfterPublish:    true,
	}

	c.Assembly = Assembly{
		FfmpegPath:              "ffmpeg",
		FrameWidth:              1080,
		FrameHeight:             1920,
		FrameRate:               30,
		VideoCodec:              "libx264",
		Preset:                  "fast",
		Crf:                     23,
		AudioCodec:              "aac",
		AudioBitrate:            "192k",
		MinOutputBytes:          1000,
		TranscodeTimeoutSeconds: 3600,
		ProbeTimeoutSeconds:     10,
		NarrationTimeoutSeconds: 30,
	}

	c.Sourcing = Sourcing{
		ProviderOrder:    []string{ProviderPexels, ProviderPixabay},
		MinSceneFraction: 0.6,
		MinWidth:         1280,
		BannedTopics:     []string{},
		MaxSceneCount:    model.DefaultMaxSceneCount,
	}

	c.Notify = Notify{WebhookURLEnv: "WEBHOOK_URL", TimeoutSeconds: 10}
	return c
}

// Provider returns the named provider configuration with unset fields taken
// from the built-in defaults. TOML tables replace map entries wholesale, so
// callers go through here rather than reading Providers directly.
func (c *Config) Provider(name string) Provider {
	p := c.Providers[name]
	d, ok := providerDefaults[name]
	if !ok {
		return p
	}
	if len(p.APIKeyEnv) == 0 {
		p.APIKeyEnv = d.APIKeyEnv
	}
	if len(p.BaseURL) == 0 {
		p.BaseURL = d.BaseURL
	}
	if p.PerPage <= 0 {
		p.PerPage = d.PerPage
	}
	if p.MaxPage <= 0 {
		p.MaxPage = d.MaxPage
	}
	if p.RequestsPerMinute == 0 {
		p.RequestsPerMinute = d.RequestsPerMinute
	}
	return p
}

// IntakeLimits returns the bounds applied to incoming generate tasks.
func (c *Config) IntakeLimits() model.IntakeLimits {
	return model.IntakeLimits{
		MaxVideos: c.Application.MaxVideosPerTask,
		MaxScenes: c.Sourcing.MaxSceneCount,
	}
}

// PublicBaseURL returns the configured public base or the GCS public endpoint
// of the output bucket, without a trailing slash.
func (c *Config) PublicBaseURL() string {
	base := c.Storage.PublicBaseURL
	if len(base) == 0 {
		base = "https://storage.googleapis.com/" + c.Storage.OutputBucket
	}
	return strings.TrimSuffix(base, "/")
}

func seconds(value int, fallback time.Duration) time.Duration {
	if value <= 0 {
		return fallback
	}
	return time.Duration(value) * time.Second
}
