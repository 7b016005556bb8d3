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
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"
)

var globalArgs = []string{"-hide_banner", "-loglevel", "error"}

// Normalizer transcodes clips to the output frame: scaled to cover, center
// cropped, fixed frame rate and no audio.
type Normalizer struct {
	runner  CommandRunner
	prober  *Prober
	config  cloud.Assembly
	workers int
}

// NewNormalizer creates the clip normalizer.
//
// Inputs:
//   - runner: Executes ffmpeg; *ExecRunner in production.
//   - prober: Measures each normalized output.
//   - config: Target geometry, codec presets and timeouts.
//   - workers: Clips transcoded at once, at least one.
//
// Outputs:
//   - *Normalizer: The normalizer.
func NewNormalizer(runner CommandRunner, prober *Prober, config cloud.Assembly, workers int) *Normalizer {
	if workers <= 0 {
		workers = 1
	}
	return &Normalizer{runner: runner, prober: prober, config: config, workers: workers}
}

// VideoFilter is the scale, crop and frame rate filter of normalization.
func (n *Normalizer) VideoFilter() string {
	w, h := n.config.FrameWidth, n.config.FrameHeight
	return fmt.Sprintf("scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,fps=%d", w, h, w, h, n.config.FrameRate)
}

// Args returns the ffmpeg arguments normalizing input into output.
func (n *Normalizer) Args(input string, output string) []string {
	return ffmpeg.Input(input).
		Output(output, ffmpeg.KwArgs{
			"vf":     n.VideoFilter(),
			"c:v":    n.config.VideoCodec,
			"preset": n.config.Preset,
			"crf":    n.config.Crf,
			"an":     "",
		}).
		GlobalArgs(globalArgs...).
		OverWriteOutput().
		GetArgs()
}

// Normalize transcodes input into a new temp file and returns its path. The
// input file is removed whatever the outcome; a failed output is removed too.
func (n *Normalizer) Normalize(ctx context.Context, input string) (output string, err error) {
	defer removeQuietly(input)

	out, err := os.CreateTemp(n.config.TempDir, "normalized-*.mp4")
	if err != nil {
		return "", err
	}
	output = out.Name()
	_ = out.Close()
	defer func() {
		if err != nil {
			removeQuietly(output)
			output = ""
		}
	}()

	if err = runStage(ctx, n.runner, n.config.TranscodeTimeout(), "normalize", n.config.FfmpegPath, n.Args(input, output)); err != nil {
		return output, err
	}
	if err = checkOutput(output, n.config.MinOutputBytes); err != nil {
		return output, err
	}
	return output, nil
}

// NormalizeAll normalizes clips concurrently. Clips that fail to normalize or
// to probe are dropped with a warning; the survivors keep scene order. Only
// the loss of every clip is an error.
func (n *Normalizer) NormalizeAll(ctx context.Context, clips []*model.SourcedClip) ([]*model.NormalizedClip, error) {
	results := make([]*model.NormalizedClip, len(clips))

	var g errgroup.Group
	g.SetLimit(n.workers)
	for i, clip := range clips {
		i, clip := i, clip
		g.Go(func() error {
			output, err := n.Normalize(ctx, clip.LocalFile)
			if err != nil {
				slog.WarnContext(ctx, "clip dropped: normalization failed", "scene", clip.SceneIndex, "provider", clip.Provider, "error", err)
				return nil
			}
			duration, err := n.prober.Duration(ctx, output)
			if err != nil {
				slog.WarnContext(ctx, "clip dropped: probe failed", "scene", clip.SceneIndex, "error", err)
				removeQuietly(output)
				return nil
			}
			results[i] = &model.NormalizedClip{LocalFile: output, DurationSeconds: duration, SceneIndex: clip.SceneIndex}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*model.NormalizedClip, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return nil, model.ErrNoNormalizedClips
	}
	return out, nil
}

func checkOutput(file string, minBytes int64) error {
	info, err := os.Stat(file)
	if err != nil {
		return fmt.Errorf("missing transcode output: %w", err)
	}
	if info.Size() <= minBytes {
		return fmt.Errorf("transcode output %s too small: %d bytes", file, info.Size())
	}
	return nil
}

func removeQuietly(file string) {
	if len(file) == 0 {
		return
	}
	if err := os.Remove(file); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to remove file", "file", file, "error", err)
	}
}
