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

package workflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/workflow"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/notify"
	test "github.com/jaycherian/gcp-go-shorts-assembler/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhook struct {
	mu       sync.Mutex
	payloads []notify.Payload
}

func (w *webhook) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	var p notify.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
		w.mu.Lock()
		w.payloads = append(w.payloads, p)
		w.mu.Unlock()
	}
	rw.WriteHeader(http.StatusNoContent)
}

func (w *webhook) received() []notify.Payload {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]notify.Payload{}, w.payloads...)
}

func newWebhook(t *testing.T) (*webhook, string) {
	hook := &webhook{}
	srv := httptest.NewServer(hook)
	t.Cleanup(srv.Close)
	return hook, srv.URL
}

func parseTask(t *testing.T, body string, webhookURL string) *model.GenerateTask {
	task, err := model.ParseGenerateTask([]byte(body), model.IntakeLimits{MaxVideos: 4})
	require.NoError(t, err)
	task.TaskID = "task-" + t.Name()
	task.WebhookURL = webhookURL
	return task
}

func TestGenerateTaskWorkflowPublishesEveryVideo(t *testing.T) {
	h := newHarness(t, -1, 20, 5)
	hook, url := newWebhook(t)
	task := parseTask(t, test.GetTestGenerateArrayPayload(test.NarrationDataURL()), url)

	result := workflow.NewGenerateTaskWorkflow(h.components).Run(ctx, task)
	require.NoError(t, result.Err())
	require.Len(t, result.Published, 2)
	assert.Len(t, h.store.Keys(), 2)

	payloads := hook.received()
	require.Len(t, payloads, 1)
	p := payloads[0]
	assert.Equal(t, notify.StatusCompleted, p.Status)
	assert.Equal(t, task.TaskID, p.TaskID)
	assert.Equal(t, 12, p.RowNumber)
	assert.Equal(t, "sheet-abc", p.SheetID)
	require.Len(t, p.Videos, 4)
	assert.Equal(t, result.Published[0].PublicURL, p.Videos[0].VideoURL)
	assert.Equal(t, result.Published[1].PublicURL, p.Videos[1].VideoURL)
	assert.Empty(t, p.Videos[2].VideoURL)
	assert.Empty(t, p.Videos[3].VideoURL)

	assert.Empty(t, dirEntries(t, h.tempDir))
}

func TestGenerateTaskWorkflowReportsFailure(t *testing.T) {
	// Two clips in total: neither video reaches three scenes.
	h := newHarness(t, 2, 20, 5)
	hook, url := newWebhook(t)

	chainCtx := cor.NewBaseContext()
	defer chainCtx.Close()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, `{"webhook_callback_url": "`+url+`", "channel_name": "Travel Daily", "videos": [
		{"platform": "tiktok", "audio_url": "`+test.NarrationDataURL()+`", "script": "calm ocean waves"},
		{"platform": "instagram_reels", "audio_url": "`+test.NarrationDataURL()+`", "script": "calm ocean waves"}]}`)

	wf := workflow.NewGenerateTaskWorkflow(h.components)
	require.True(t, wf.IsExecutable(chainCtx))
	wf.Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())

	result := chainCtx.Get(cor.CtxOut).(*workflow.TaskResult)
	assert.Empty(t, result.Published)
	assert.Len(t, result.Failures, 2)
	assert.Zero(t, h.runner.CallCount())

	payloads := hook.received()
	require.Len(t, payloads, 1)
	assert.Equal(t, notify.StatusFailed, payloads[0].Status)
	assert.Equal(t, "Travel Daily", payloads[0].ChannelName)
	assert.Contains(t, payloads[0].Error, "insufficient clips")
}

func TestGenerateTaskWorkflowRejectsInvalidBody(t *testing.T) {
	h := newHarness(t, -1, 20, 5)
	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, `{"videos": []}`)

	workflow.NewGenerateTaskWorkflow(h.components).Execute(chainCtx)
	assert.True(t, chainCtx.HasErrors())
	assert.ErrorIs(t, chainCtx.Err(), model.ErrInvalidRequest)
	assert.Zero(t, h.runner.CallCount())
}

type countingRunner struct {
	running int32
	peak    int32
	done    int32
}

func (r *countingRunner) Run(_ context.Context, task *model.GenerateTask) *workflow.TaskResult {
	n := atomic.AddInt32(&r.running, 1)
	for {
		peak := atomic.LoadInt32(&r.peak)
		if n <= peak || atomic.CompareAndSwapInt32(&r.peak, peak, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	atomic.AddInt32(&r.running, -1)
	atomic.AddInt32(&r.done, 1)
	return &workflow.TaskResult{Task: task}
}

func TestTaskDispatcherBoundsConcurrency(t *testing.T) {
	runner := &countingRunner{}
	dispatcher := workflow.NewTaskDispatcher(ctx, runner, 2)

	ids := make(map[string]bool)
	for i := 0; i < 6; i++ {
		ids[dispatcher.Submit(&model.GenerateTask{})] = true
	}
	dispatcher.Wait()

	assert.Len(t, ids, 6)
	assert.EqualValues(t, 6, atomic.LoadInt32(&runner.done))
	assert.LessOrEqual(t, atomic.LoadInt32(&runner.peak), int32(2))
}

func TestTaskDispatcherKeepsTaskID(t *testing.T) {
	dispatcher := workflow.NewTaskDispatcher(ctx, &countingRunner{}, 1)
	assert.Equal(t, "given", dispatcher.Submit(&model.GenerateTask{TaskID: "given"}))
	dispatcher.Wait()
}
