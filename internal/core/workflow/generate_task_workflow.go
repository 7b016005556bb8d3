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

package workflow

import (
	goctx "context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/notify"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// TaskResult is the outcome of one generate task.
type TaskResult struct {
	Task      *model.GenerateTask
	Published []*model.PublishedVideo
	Failures  map[string]error // keyed by platform
}

// Err joins the per-platform failures.
func (r *TaskResult) Err() error {
	errs := make([]error, 0, len(r.Failures))
	for _, p := range model.Platforms {
		if err, ok := r.Failures[p]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	for p, err := range r.Failures {
		if !isKnownPlatform(p) {
			errs = append(errs, fmt.Errorf("%s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

func isKnownPlatform(p string) bool {
	for _, known := range model.Platforms {
		if known == p {
			return true
		}
	}
	return false
}

// GenerateTaskWorkflow runs the short video workflow for every video of a
// task, one after the other, each in its own context, then reports the
// outcome through the webhook. Its input is either an intake body or a
// *model.GenerateTask.
type GenerateTaskWorkflow struct {
	cor.BaseCommand
	components *Components
	reader     *commands.GenerateTaskReader
	video      cor.Command
}

// NewGenerateTaskWorkflow creates the workflow processing one generate task:
// it parses the intake body when needed, renders and publishes every video
// and notifies the webhook.
func NewGenerateTaskWorkflow(components *Components) *GenerateTaskWorkflow {
	return &GenerateTaskWorkflow{
		BaseCommand: *cor.NewBaseCommand("generate-task-workflow"),
		components:  components,
		reader:      commands.NewGenerateTaskReader("generate-task-reader", components.Config.IntakeLimits()),
		video:       NewShortVideoWorkflow(components),
	}
}

func (w *GenerateTaskWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil &&
		(context.Get(commands.ParamTask) != nil || context.Get(w.GetInputParam()) != nil)
}

func (w *GenerateTaskWorkflow) Execute(context cor.Context) {
	if context.Get(commands.ParamTask) == nil {
		w.reader.Execute(context)
		if context.HasErrors() {
			slog.ErrorContext(context.GetContext(), "generate task rejected", "error", context.Err())
			return
		}
	}
	task := context.Get(commands.ParamTask).(*model.GenerateTask)

	result := w.Run(context.GetContext(), task)
	context.Add(w.GetOutputParam(), result)
	if len(result.Published) == 0 {
		w.Fail(context, fmt.Errorf("task %s produced no video: %w", task.TaskID, result.Err()))
		return
	}
	w.Succeed(context)
}

// Run processes task and notifies its webhook. Failed videos do not stop the
// remaining ones.
func (w *GenerateTaskWorkflow) Run(ctx goctx.Context, task *model.GenerateTask) *TaskResult {
	ctx, span := w.Tracer.Start(ctx, "generate-task")
	defer span.End()
	span.SetAttributes(attribute.String("task_id", task.TaskID), attribute.Int("videos", len(task.Videos)))

	result := &TaskResult{Task: task, Failures: make(map[string]error)}
	for _, req := range task.Videos {
		if err := ctx.Err(); err != nil {
			result.Failures[req.PlatformLabel] = err
			continue
		}
		video, err := w.runVideo(ctx, task, req)
		if err != nil {
			slog.ErrorContext(ctx, "video failed", "task_id", task.TaskID, "platform", req.PlatformLabel, "error", err)
			result.Failures[req.PlatformLabel] = err
			continue
		}
		slog.InfoContext(ctx, "video published", "task_id", task.TaskID, "platform", req.PlatformLabel, "url", video.PublicURL)
		result.Published = append(result.Published, video)
	}

	var payload notify.Payload
	if len(result.Published) > 0 {
		payload = notify.Completed(task, result.Published)
		span.SetStatus(codes.Ok, "task completed")
	} else {
		payload = notify.Failed(task, result.Err())
		span.SetStatus(codes.Error, "no video produced")
	}
	// The webhook gets its own deadline even when ctx is already done.
	notifyCtx := goctx.WithoutCancel(ctx)
	if err := w.components.Notifier.Send(notifyCtx, task, payload); err != nil {
		slog.ErrorContext(ctx, "webhook notification failed", "task_id", task.TaskID, "error", err)
	}
	slog.InfoContext(ctx, "task finished", "task_id", task.TaskID, "published", len(result.Published), "failed", len(result.Failures))
	return result
}

func (w *GenerateTaskWorkflow) runVideo(ctx goctx.Context, task *model.GenerateTask, req *model.VideoRequest) (*model.PublishedVideo, error) {
	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.ParamTask, task)
	chainCtx.Add(commands.ParamRequest, req)
	chainCtx.Add(cor.CtxIn, req)

	w.video.Execute(chainCtx)
	if chainCtx.HasErrors() {
		return nil, chainCtx.Err()
	}
	video, ok := chainCtx.Get(commands.ParamPublished).(*model.PublishedVideo)
	if !ok {
		return nil, errors.New("video was rendered but not published")
	}
	return video, nil
}
