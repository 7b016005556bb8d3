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
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// TaskRunner runs one generate task to completion.
type TaskRunner interface {
	Run(ctx context.Context, task *model.GenerateTask) *TaskResult
}

// TaskDispatcher runs accepted tasks in the background, at most limit at a
// time. Tasks live on the dispatcher's context, not on the request that
// submitted them.
type TaskDispatcher struct {
	ctx    context.Context
	runner TaskRunner
	slots  chan struct{}
	wg     sync.WaitGroup
}

// NewTaskDispatcher creates a dispatcher running at most limit tasks at once
// on ctx. A non-positive limit means one.
func NewTaskDispatcher(ctx context.Context, runner TaskRunner, limit int) *TaskDispatcher {
	if limit <= 0 {
		limit = 1
	}
	return &TaskDispatcher{ctx: ctx, runner: runner, slots: make(chan struct{}, limit)}
}

// Submit assigns task an id when it has none, schedules it and returns the id.
func (d *TaskDispatcher) Submit(task *model.GenerateTask) string {
	if len(task.TaskID) == 0 {
		task.TaskID = uuid.NewString()
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		select {
		case d.slots <- struct{}{}:
		case <-d.ctx.Done():
			slog.Warn("task dropped on shutdown", "task_id", task.TaskID)
			return
		}
		defer func() { <-d.slots }()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("task panicked", "task_id", task.TaskID, "panic", r)
			}
		}()
		d.runner.Run(d.ctx, task)
	}()
	return task.TaskID
}

// Wait blocks until every submitted task has finished.
func (d *TaskDispatcher) Wait() {
	d.wg.Wait()
}
