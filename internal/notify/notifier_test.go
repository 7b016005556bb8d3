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

package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type hook struct {
	mu       sync.Mutex
	payloads []notify.Payload
	status   int
}

func (h *hook) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var p notify.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err == nil {
		h.mu.Lock()
		h.payloads = append(h.payloads, p)
		h.mu.Unlock()
	}
	if h.status == 0 {
		h.status = http.StatusOK
	}
	w.WriteHeader(h.status)
}

func sampleTask(webhook string) *model.GenerateTask {
	return &model.GenerateTask{TaskID: "task-1", ChannelName: "Travel Daily", RowNumber: 4, SheetID: "sheet", WebhookURL: webhook}
}

func TestCompletedListsEveryPlatform(t *testing.T) {
	p := notify.Completed(sampleTask(""), []*model.PublishedVideo{
		{Platform: "tiktok", PublicURL: "https://cdn.test/t.mp4"},
		{Platform: "snapchat", PublicURL: "https://cdn.test/s.mp4"},
	})
	assert.Equal(t, notify.StatusCompleted, p.Status)
	require.Len(t, p.Videos, 5)
	assert.Equal(t, notify.VideoLink{Platform: "youtube_shorts"}, p.Videos[0])
	assert.Equal(t, notify.VideoLink{Platform: "tiktok", VideoURL: "https://cdn.test/t.mp4"}, p.Videos[1])
	assert.Equal(t, "", p.Videos[2].VideoURL)
	assert.Equal(t, "facebook_reels", p.Videos[3].Platform)
	assert.Equal(t, "snapchat", p.Videos[4].Platform)
}

func TestFailedCarriesError(t *testing.T) {
	p := notify.Failed(sampleTask(""), errors.New("insufficient clips"))
	assert.Equal(t, notify.StatusFailed, p.Status)
	assert.Equal(t, "insufficient clips", p.Error)
	assert.Empty(t, p.Videos)
}

func TestSendToTaskWebhook(t *testing.T) {
	h := &hook{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	n := notify.NewNotifier(cloud.Notify{WebhookURL: "http://127.0.0.1:1/unused"}, srv.Client())
	task := sampleTask(srv.URL)
	require.NoError(t, n.Send(context.Background(), task, notify.Failed(task, errors.New("boom"))))

	require.Len(t, h.payloads, 1)
	assert.Equal(t, "task-1", h.payloads[0].TaskID)
	assert.Equal(t, "boom", h.payloads[0].Error)
	assert.Equal(t, 4, h.payloads[0].RowNumber)
}

func TestSendFallsBackToConfiguredURL(t *testing.T) {
	h := &hook{}
	srv := httptest.NewServer(h)
	defer srv.Close()

	t.Setenv("SHORTS_TEST_WEBHOOK", srv.URL)
	n := notify.NewNotifier(cloud.Notify{WebhookURLEnv: "SHORTS_TEST_WEBHOOK"}, srv.Client())
	task := sampleTask("")
	assert.Equal(t, srv.URL, n.Target(task))
	require.NoError(t, n.Send(context.Background(), task, notify.Completed(task, nil)))
	assert.Len(t, h.payloads, 1)
}

func TestSendWithoutTargetIsNoop(t *testing.T) {
	n := notify.NewNotifier(cloud.Notify{}, http.DefaultClient)
	assert.NoError(t, n.Send(context.Background(), sampleTask(""), notify.Payload{Status: notify.StatusFailed}))
}

func TestSendReportsStatus(t *testing.T) {
	srv := httptest.NewServer(&hook{status: http.StatusBadGateway})
	defer srv.Close()

	n := notify.NewNotifier(cloud.Notify{}, srv.Client())
	err := n.Send(context.Background(), sampleTask(srv.URL), notify.Payload{Status: notify.StatusCompleted})
	var statusErr *notify.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}

func TestSendTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	n := notify.NewNotifier(cloud.Notify{TimeoutSeconds: 1}, srv.Client())
	start := time.Now()
	err := n.Send(context.Background(), sampleTask(srv.URL), notify.Payload{Status: notify.StatusCompleted})
	assert.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}
