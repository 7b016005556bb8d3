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

// ClipNormalize transcodes the sourced clips to the output geometry.
type ClipNormalize struct {
	cor.BaseCommand
	normalizer *media.Normalizer
}

func NewClipNormalize(name string, normalizer *media.Normalizer) *ClipNormalize {
	return &ClipNormalize{BaseCommand: *cor.NewBaseCommand(name), normalizer: normalizer}
}

func (c *ClipNormalize) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(ParamSourcedClips) != nil
}

func (c *ClipNormalize) Execute(context cor.Context) {
	sourced := context.Get(ParamSourcedClips).([]*model.SourcedClip)
	clips, err := c.normalizer.NormalizeAll(context.GetContext(), sourced)
	if err != nil {
		c.Fail(context, err)
		return
	}
	for _, clip := range clips {
		context.AddTempFile(clip.LocalFile)
	}
	context.Add(ParamNormalizedClips, clips)
	context.Add(c.GetOutputParam(), clips)
	c.Succeed(context)
}
