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

package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// ProbeFunc returns ffprobe's JSON description of a file.
type ProbeFunc func(fileName string, timeout time.Duration, kwargs ffmpeg.KwArgs) (string, error)

// Prober reads media durations with ffprobe.
type Prober struct {
	probe   ProbeFunc
	timeout time.Duration
}

// NewProber returns a Prober running ffprobe with the given timeout.
func NewProber(timeout time.Duration) *Prober {
	return NewProberWith(ffmpeg.ProbeWithTimeout, timeout)
}

// NewProberWith creates a Prober over probe, which replaces ffprobe in tests.
func NewProberWith(probe ProbeFunc, timeout time.Duration) *Prober {
	return &Prober{probe: probe, timeout: timeout}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Duration returns the length of file in seconds. The container duration is
// used when present, else the longest stream.
func (p *Prober) Duration(ctx context.Context, file string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, err := p.probe(file, p.timeout, ffmpeg.KwArgs{})
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", file, err)
	}
	return ParseProbeDuration(raw)
}

// ParseProbeDuration extracts a positive duration from ffprobe JSON output.
func ParseProbeDuration(raw string) (float64, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return 0, fmt.Errorf("invalid ffprobe output: %w", err)
	}
	if d, ok := parseSeconds(out.Format.Duration); ok {
		return d, nil
	}
	longest := 0.0
	for _, s := range out.Streams {
		if d, ok := parseSeconds(s.Duration); ok && d > longest {
			longest = d
		}
	}
	if longest > 0 {
		return longest, nil
	}
	return 0, fmt.Errorf("ffprobe reported no duration")
}

func parseSeconds(v string) (float64, bool) {
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || d <= 0 {
		return 0, false
	}
	return d, true
}
