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
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// VideoRender concatenates the planned plays and muxes in the narration.
type VideoRender struct {
	cor.BaseCommand
	assembler *media.Assembler
}

// NewVideoRender creates the command producing the final video.
func NewVideoRender(name string, assembler *media.Assembler) *VideoRender {
	return &VideoRender{BaseCommand: *cor.NewBaseCommand(name), assembler: assembler}
}

func (c *VideoRender) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil &&
		context.Get(ParamFitPlan) != nil && context.Get(ParamNarrationFile) != nil && context.Get(ParamNarrationSeconds) != nil
}

func (c *VideoRender) Execute(context cor.Context) {
	plan := context.Get(ParamFitPlan).(*model.FitPlan)
	narration := context.Get(ParamNarrationFile).(string)
	target := context.Get(ParamNarrationSeconds).(float64)

	final, err := c.assembler.Render(context.GetContext(), plan, narration, target)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.AddTempFile(final)
	context.Add(ParamFinalFile, final)
	context.Add(c.GetOutputParam(), final)
	c.Succeed(context)
}
