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
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/services"
)

// ArtifactPublish uploads the rendered video to the artifact store.
type ArtifactPublish struct {
	cor.BaseCommand
	artifacts *services.ArtifactService
}

// NewArtifactPublish creates the command uploading the final video.
func NewArtifactPublish(name string, artifacts *services.ArtifactService) *ArtifactPublish {
	return &ArtifactPublish{BaseCommand: *cor.NewBaseCommand(name), artifacts: artifacts}
}

func (c *ArtifactPublish) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil &&
		context.Get(ParamFinalFile) != nil && context.Get(ParamRequest) != nil
}

func (c *ArtifactPublish) Execute(context cor.Context) {
	final := context.Get(ParamFinalFile).(string)
	req := context.Get(ParamRequest).(*model.VideoRequest)

	video, err := c.artifacts.Publish(context.GetContext(), final, req)
	if err != nil {
		c.Fail(context, err)
		return
	}
	context.Add(ParamPublished, video)
	context.Add(c.GetOutputParam(), video)
	c.Succeed(context)
}
