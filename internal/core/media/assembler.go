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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Assembler renders a FitPlan and a narration into the final video in two
// ffmpeg stages: concatenation of the plays into a silent track cut to the
// narration length, then muxing of that track with the narration audio.
type Assembler struct {
	runner CommandRunner
	config cloud.Assembly
}

// NewAssembler creates the final stage renderer.
//
// Inputs:
//   - runner: Executes ffmpeg; *ExecRunner in production.
//   - config: Codec presets, frame rate, temp dir and timeouts.
//
// Outputs:
//   - *Assembler: The renderer.
func NewAssembler(runner CommandRunner, config cloud.Assembly) *Assembler {
	return &Assembler{runner: runner, config: config}
}

// ConcatList renders the concat demuxer list for plays. Paths are absolute
// and single quotes are escaped for the demuxer's quoting rules.
func ConcatList(plays []*model.NormalizedClip) (string, error) {
	var b strings.Builder
	for _, p := range plays {
		abs, err := filepath.Abs(p.LocalFile)
		if err != nil {
			return "", err
		}
		fmt.Fprintf(&b, "file '%s'\n", strings.ReplaceAll(abs, "'", `'\''`))
	}
	return b.String(), nil
}

// ConcatArgs returns the arguments of the concatenation stage.
func (a *Assembler) ConcatArgs(listFile string, output string, target float64) []string {
	return ffmpeg.Input(listFile, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(output, ffmpeg.KwArgs{
			"vf":     fmt.Sprintf("fps=%d,format=yuv420p", a.config.FrameRate),
			"c:v":    a.config.VideoCodec,
			"preset": a.config.Preset,
			"crf":    a.config.Crf,
			"an":     "",
			"t":      fmt.Sprintf("%.3f", target),
		}).
		GlobalArgs(globalArgs...).
		OverWriteOutput().
		GetArgs()
}

// MuxArgs returns the arguments of the muxing stage.
func (a *Assembler) MuxArgs(silentVideo string, narration string, output string) []string {
	video := ffmpeg.Input(silentVideo).Video()
	audio := ffmpeg.Input(narration).Audio()
	return ffmpeg.Output([]*ffmpeg.Stream{video, audio}, output, ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      a.config.AudioCodec,
		"b:a":      a.config.AudioBitrate,
		"shortest": "",
	}).
		GlobalArgs(globalArgs...).
		OverWriteOutput().
		GetArgs()
}

// Render produces the final video for plan and returns its temp file. The
// concat list and the silent intermediate are removed on every path, and so
// is the final file when rendering fails.
func (a *Assembler) Render(ctx context.Context, plan *model.FitPlan, narrationFile string, target float64) (final string, err error) {
	if plan == nil || len(plan.Plays) == 0 {
		return "", fmt.Errorf("render: %w", ErrNothingToFit)
	}
	if target <= 0 {
		return "", errors.New("render: target duration must be positive")
	}

	list, err := ConcatList(plan.Plays)
	if err != nil {
		return "", err
	}
	listFile, err := a.tempFile("concat-*.txt", []byte(list))
	if err != nil {
		return "", err
	}
	defer removeQuietly(listFile)

	silent, err := a.tempFile("silent-*.mp4", nil)
	if err != nil {
		return "", err
	}
	defer removeQuietly(silent)

	final, err = a.tempFile("final-*.mp4", nil)
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			removeQuietly(final)
			final = ""
		}
	}()

	timeout := a.config.TranscodeTimeout()
	if err = runStage(ctx, a.runner, timeout, "concat", a.config.FfmpegPath, a.ConcatArgs(listFile, silent, target)); err != nil {
		return final, err
	}
	if err = checkOutput(silent, a.config.MinOutputBytes); err != nil {
		return final, err
	}
	if err = runStage(ctx, a.runner, timeout, "mux", a.config.FfmpegPath, a.MuxArgs(silent, narrationFile, final)); err != nil {
		return final, err
	}
	if err = checkOutput(final, a.config.MinOutputBytes); err != nil {
		return final, err
	}
	return final, nil
}

func (a *Assembler) tempFile(pattern string, content []byte) (string, error) {
	f, err := os.CreateTemp(a.config.TempDir, pattern)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if len(content) > 0 {
		if _, err = f.Write(content); err != nil {
			_ = f.Close()
			removeQuietly(name)
			return "", err
		}
	}
	if err = f.Close(); err != nil {
		removeQuietly(name)
		return "", err
	}
	return name, nil
}
