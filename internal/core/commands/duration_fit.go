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

package commands

import (
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// DurationFit plans the clip plays covering the narration.
type DurationFit struct {
	cor.BaseCommand
}

func NewDurationFit(name string) *DurationFit {
	return &DurationFit{BaseCommand: *cor.NewBaseCommand(name)}
}

func (c *DurationFit) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil &&
		context.Get(ParamNormalizedClips) != nil && context.Get(ParamNarrationSeconds) != nil
}

func (c *DurationFit) Execute(context cor.Context) {
	clips := context.Get(ParamNormalizedClips).([]*model.NormalizedClip)
	target := context.Get(ParamNarrationSeconds).(float64)

	plan, err := media.Fit(clips, target)
	if err != nil {
		c.Fail(context, err)
		return
	}
	slog.InfoContext(context.GetContext(), "clips fitted", "clips", len(clips), "plays", len(plan.Plays), "passes", plan.Passes, "total", plan.TotalDuration, "target", target)
	context.Add(ParamFitPlan, plan)
	context.Add(c.GetOutputParam(), plan)
	c.Succeed(context)
}
