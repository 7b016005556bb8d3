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

// Package api exposes the HTTP intake of the assembler: health, task
// submission and read access to the published artifacts.
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// maxBodyBytes bounds intake bodies; narrations may be inlined as data URLs.
const maxBodyBytes = 64 << 20

// TaskSubmitter schedules a parsed task and returns its id.
type TaskSubmitter interface {
	Submit(task *model.GenerateTask) string
}

// ArtifactReader is the read side of the artifact service.
type ArtifactReader interface {
	List(ctx context.Context, subPrefix string) ([]model.Artifact, error)
	PublicURL(key string) string
	SignedURL(ctx context.Context, key string) (string, error)
}

// RenderHistory reads the render log.
type RenderHistory interface {
	Enabled() bool
	Recent(ctx context.Context, channel string, limit int) ([]*model.RenderRecord, error)
}

// Handlers holds the collaborators of the routes.
type Handlers struct {
	Tasks      TaskSubmitter
	Artifacts  ArtifactReader
	Renders    RenderHistory
	Limits     model.IntakeLimits
	SceneCount int
}

// NewRouter returns the gin engine serving every route.
func NewRouter(h *Handlers, serviceName string) *gin.Engine {
	r := gin.Default()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(cors.Default())

	Health(r)
	// Callers of the first release post to /api/generate.
	GenerateRouter(r.Group("/api"), h)
	apiV1 := r.Group("/api/v1")
	{
		GenerateRouter(apiV1, h)
		ArtifactRouter(apiV1, h)
		RenderRouter(apiV1, h)
		Dashboard(apiV1, h)
	}
	return r
}

// Health answers liveness probes.
func Health(r gin.IRoutes) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "success": false})
}

// GenerateRouter accepts generate tasks. The task runs in the background;
// the reply only carries its id.
func GenerateRouter(r *gin.RouterGroup, h *Handlers) {
	r.POST("/generate", func(c *gin.Context) {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes+1))
		if err != nil {
			badRequest(c, err)
			return
		}
		if len(body) > maxBodyBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large", "success": false})
			return
		}
		task, err := model.ParseGenerateTask(body, h.Limits)
		if err != nil {
			slog.WarnContext(c.Request.Context(), "generate request rejected", "error", err)
			badRequest(c, err)
			return
		}

		id := h.Tasks.Submit(task)
		slog.InfoContext(c.Request.Context(), "generate task submitted", "task_id", id, "channel", task.ChannelName, "videos", len(task.Videos))

		sceneCount := h.SceneCount
		if sceneCount <= 0 {
			sceneCount = model.DefaultSceneCount
		}
		c.JSON(http.StatusAccepted, gin.H{
			"task_id": id,
			"status":  "processing",
			"message": fmt.Sprintf("%d videos with %d dynamic clips each", len(task.Videos), sceneCount),
			"success": true,
		})
	})
}

type artifactView struct {
	model.Artifact
	PublicURL string `json:"public_url"`
}

// ArtifactRouter lists artifacts and signs read URLs for them.
func ArtifactRouter(r *gin.RouterGroup, h *Handlers) {
	artifacts := r.Group("/artifacts")
	{
		artifacts.GET("", func(c *gin.Context) {
			listing, err := h.Artifacts.List(c.Request.Context(), c.Query("prefix"))
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "artifact listing failed", "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list artifacts"})
				return
			}
			out := make([]artifactView, 0, len(listing))
			for _, a := range listing {
				out = append(out, artifactView{Artifact: a, PublicURL: h.Artifacts.PublicURL(a.ObjectKey)})
			}
			c.JSON(http.StatusOK, out)
		})

		artifacts.GET("/url", func(c *gin.Context) {
			key := c.Query("key")
			if len(key) == 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
				return
			}
			u, err := h.Artifacts.SignedURL(c.Request.Context(), key)
			if errors.Is(err, services.ErrUnknownArtifact) {
				c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
				return
			}
			if err != nil {
				slog.ErrorContext(c.Request.Context(), "signing failed", "key", key, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate url"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": u})
		})
	}
}

// RenderRouter serves the render log when BigQuery is configured.
func RenderRouter(r *gin.RouterGroup, h *Handlers) {
	r.GET("/renders", func(c *gin.Context) {
		if h.Renders == nil || !h.Renders.Enabled() {
			c.JSON(http.StatusNotFound, gin.H{"error": "render log is not configured"})
			return
		}
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
		if err != nil {
			limit = 50
		}
		out, err := h.Renders.Recent(c.Request.Context(), c.Query("channel"), limit)
		if err != nil {
			slog.ErrorContext(c.Request.Context(), "render log query failed", "error", err)
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, out)
	})
}
