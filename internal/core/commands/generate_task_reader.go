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

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// GenerateTaskReader parses an intake body (string or []byte under the input
// parameter) into a *model.GenerateTask and assigns it a task id.
type GenerateTaskReader struct {
	cor.BaseCommand
	limits model.IntakeLimits
}

// NewGenerateTaskReader creates the intake parser, enforcing limits.
func NewGenerateTaskReader(name string, limits model.IntakeLimits) *GenerateTaskReader {
	return &GenerateTaskReader{BaseCommand: *cor.NewBaseCommand(name), limits: limits}
}

func (c *GenerateTaskReader) Execute(context cor.Context) {
	var data []byte
	switch in := context.Get(c.GetInputParam()).(type) {
	case string:
		data = []byte(in)
	case []byte:
		data = in
	case *model.GenerateTask:
		c.accept(context, in)
		return
	default:
		c.Fail(context, model.ErrInvalidRequest)
		return
	}

	task, err := model.ParseGenerateTask(data, c.limits)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.accept(context, task)
}

func (c *GenerateTaskReader) accept(context cor.Context, task *model.GenerateTask) {
	if len(task.TaskID) == 0 {
		task.TaskID = uuid.NewString()
	}
	slog.InfoContext(context.GetContext(), "generate task accepted", "task_id", task.TaskID, "channel", task.ChannelName, "videos", len(task.Videos))
	context.Add(ParamTask, task)
	context.Add(c.GetOutputParam(), task)
	c.Succeed(context)
}
