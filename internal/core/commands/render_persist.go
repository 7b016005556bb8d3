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
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/services"
)

// RenderPersist writes the render record of a published video to BigQuery.
// The video is already public at this point, so a failed insert is counted
// and logged but does not fail the chain.
type RenderPersist struct {
	cor.BaseCommand
	renders *services.RenderLogService
}

// NewRenderPersist creates the command logging published videos to BigQuery.
func NewRenderPersist(name string, renders *services.RenderLogService) *RenderPersist {
	return &RenderPersist{BaseCommand: *cor.NewBaseCommand(name), renders: renders}
}

func (c *RenderPersist) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && c.renders.Enabled() && context.Get(ParamPublished) != nil
}

func (c *RenderPersist) Execute(context cor.Context) {
	video := context.Get(ParamPublished).(*model.PublishedVideo)
	record := BuildRenderRecord(context, video)

	if err := c.renders.Insert(context.GetContext(), record); err != nil {
		if c.ErrorCounter != nil {
			c.ErrorCounter.Add(context.GetContext(), 1)
		}
		slog.WarnContext(context.GetContext(), "render record not persisted", "key", video.ObjectKey, "error", err)
	} else {
		c.Succeed(context)
	}
	context.Add(c.GetOutputParam(), video)
}

// BuildRenderRecord assembles the record of video from the values the
// pipeline left in context.
func BuildRenderRecord(context cor.Context, video *model.PublishedVideo) *model.RenderRecord {
	taskId := ""
	if task, ok := context.Get(ParamTask).(*model.GenerateTask); ok {
		taskId = task.TaskID
	}
	record := model.NewRenderRecord(taskId, video)
	if req, ok := context.Get(ParamRequest).(*model.VideoRequest); ok {
		record.ChannelName = req.ChannelName
		record.SceneCount = req.GetSceneCount()
	}
	if seconds, ok := context.Get(ParamNarrationSeconds).(float64); ok {
		record.NarrationSeconds = seconds
	}
	if clips, ok := context.Get(ParamSourcedClips).([]*model.SourcedClip); ok {
		record.ClipsSourced = len(clips)
	}
	if clips, ok := context.Get(ParamNormalizedClips).([]*model.NormalizedClip); ok {
		record.ClipsNormalized = len(clips)
	}
	if plan, ok := context.Get(ParamFitPlan).(*model.FitPlan); ok {
		record.Passes = plan.Passes
	}
	return record
}
