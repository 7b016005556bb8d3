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

// Package notify reports the outcome of a generate task to a webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// VideoLink is one platform entry of a completed payload.
type VideoLink struct {
	Platform string `json:"platform"`
	VideoURL string `json:"video_url"`
}

// Payload is the JSON body posted to the webhook.
type Payload struct {
	Status      string      `json:"status"`
	TaskID      string      `json:"task_id"`
	RowNumber   int         `json:"row_number"`
	SheetID     string      `json:"sheet_id"`
	ChannelName string      `json:"channel_name"`
	Videos      []VideoLink `json:"videos,omitempty"`
	Error       string      `json:"error,omitempty"`
}

// Completed builds the payload of a task with at least one published video.
// Every known platform is listed, with an empty URL when it produced nothing.
func Completed(task *model.GenerateTask, published []*model.PublishedVideo) Payload {
	urls := make(map[string]string, len(published))
	for _, v := range published {
		urls[v.Platform] = v.PublicURL
	}
	videos := make([]VideoLink, 0, len(model.Platforms))
	for _, p := range model.Platforms {
		videos = append(videos, VideoLink{Platform: p, VideoURL: urls[p]})
		delete(urls, p)
	}
	// Labels outside the known platforms are reported after them.
	for _, v := range published {
		if _, ok := urls[v.Platform]; ok {
			videos = append(videos, VideoLink{Platform: v.Platform, VideoURL: v.PublicURL})
			delete(urls, v.Platform)
		}
	}
	return Payload{
		Status:      StatusCompleted,
		TaskID:      task.TaskID,
		RowNumber:   task.RowNumber,
		SheetID:     task.SheetID,
		ChannelName: task.ChannelName,
		Videos:      videos,
	}
}

// Failed builds the payload of a task where no video was published.
func Failed(task *model.GenerateTask, err error) Payload {
	msg := "no video was produced"
	if err != nil {
		msg = err.Error()
	}
	return Payload{
		Status:      StatusFailed,
		TaskID:      task.TaskID,
		RowNumber:   task.RowNumber,
		SheetID:     task.SheetID,
		ChannelName: task.ChannelName,
		Error:       msg,
	}
}

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when the webhook answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook %s answered %d", e.URL, e.StatusCode)
}

// Notifier posts payloads to a task's webhook or to the configured default.
type Notifier struct {
	client     HTTPDoer
	defaultURL string
	config     cloud.Notify
}

// NewNotifier creates a webhook notifier.
//
// Inputs:
//   - config: Default webhook and timeout.
//   - client: HTTP client; the instrumented client when nil.
//
// Outputs:
//   - *Notifier: The notifier.
func NewNotifier(config cloud.Notify, client HTTPDoer) *Notifier {
	if client == nil {
		client = cloud.NewInstrumentedHTTPClient()
	}
	return &Notifier{client: client, defaultURL: config.ResolveWebhookURL(), config: config}
}

// Target returns the URL a task is reported to, empty when there is none.
func (n *Notifier) Target(task *model.GenerateTask) string {
	if task != nil && len(task.WebhookURL) > 0 {
		return task.WebhookURL
	}
	return n.defaultURL
}

// Send posts payload for task. Without a target it logs and returns nil.
func (n *Notifier) Send(ctx context.Context, task *model.GenerateTask, payload Payload) error {
	target := n.Target(task)
	if len(target) == 0 {
		slog.WarnContext(ctx, "no webhook configured, skipping notification", "task_id", payload.TaskID, "status", payload.Status)
		return nil
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, n.config.Timeout())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook delivery failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{URL: target, StatusCode: resp.StatusCode}
	}
	slog.InfoContext(ctx, "webhook delivered", "task_id", payload.TaskID, "status", payload.Status, "code", resp.StatusCode)
	return nil
}
