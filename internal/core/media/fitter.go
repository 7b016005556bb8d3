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
	"errors"
	"fmt"
	"math"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// ErrNothingToFit is returned when there is no clip time to fill a target.
var ErrNothingToFit = errors.New("no clip duration available to fit")

// Plan returns the clip indexes to play, in order, so that the summed
// duration reaches target. When the clips already cover the target each is
// played once; otherwise the whole list is repeated ceil(target/sum) times.
// It returns nil for empty input or a non-positive total.
func Plan(durations []float64, target float64) []int {
	if len(durations) == 0 {
		return nil
	}
	sum := 0.0
	for _, d := range durations {
		sum += d
	}
	passes := 1
	if sum < target {
		if sum <= 0 {
			return nil
		}
		passes = int(math.Ceil(target / sum))
	}
	out := make([]int, 0, passes*len(durations))
	for p := 0; p < passes; p++ {
		for i := range durations {
			out = append(out, i)
		}
	}
	return out
}

// Fit builds the FitPlan for clips and a target duration.
func Fit(clips []*model.NormalizedClip, target float64) (*model.FitPlan, error) {
	if len(clips) == 0 {
		return nil, fmt.Errorf("fit to %.2fs: %w", target, model.ErrNoNormalizedClips)
	}
	durations := make([]float64, len(clips))
	for i, c := range clips {
		durations[i] = c.DurationSeconds
	}
	order := Plan(durations, target)
	if order == nil {
		return nil, fmt.Errorf("fit %d clips to %.2fs: %w", len(clips), target, ErrNothingToFit)
	}

	plan := &model.FitPlan{
		Plays:          make([]*model.NormalizedClip, 0, len(order)),
		Passes:         len(order) / len(clips),
		TargetDuration: target,
	}
	for _, i := range order {
		plan.Plays = append(plan.Plays, clips[i])
		plan.TotalDuration += clips[i].DurationSeconds
	}
	return plan, nil
}
