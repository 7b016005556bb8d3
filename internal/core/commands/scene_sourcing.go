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
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/sourcing"
)

// SceneSourcing fills the request's scenes with stock clips.
type SceneSourcing struct {
	cor.BaseCommand
	sourcer *sourcing.Sourcer
}

// NewSceneSourcing creates the command filling the scenes with stock clips.
func NewSceneSourcing(name string, sourcer *sourcing.Sourcer) *SceneSourcing {
	return &SceneSourcing{BaseCommand: *cor.NewBaseCommand(name), sourcer: sourcer}
}

func (c *SceneSourcing) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil &&
		context.Get(ParamRequest) != nil && context.Get(ParamNarrationSeconds) != nil
}

func (c *SceneSourcing) Execute(context cor.Context) {
	req := context.Get(ParamRequest).(*model.VideoRequest)
	seconds := context.Get(ParamNarrationSeconds).(float64)

	clips, err := c.sourcer.SourceScenes(context.GetContext(), req, seconds)
	if err != nil {
		c.Fail(context, err)
		return
	}
	for _, clip := range clips {
		context.AddTempFile(clip.LocalFile)
	}
	context.Add(ParamSourcedClips, clips)
	context.Add(c.GetOutputParam(), clips)
	c.Succeed(context)
}
