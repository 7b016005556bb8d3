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

package sourcing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/providers"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OrderProviders returns the providers named in order. Unknown names are
// logged and skipped.
func OrderProviders(order []string, available ...providers.ClipProvider) []providers.ClipProvider {
	byName := make(map[string]providers.ClipProvider, len(available))
	for _, p := range available {
		byName[p.Name()] = p
	}
	out := make([]providers.ClipProvider, 0, len(order))
	for _, name := range order {
		p, ok := byName[name]
		if !ok {
			slog.Warn("unknown clip provider in provider_order", "provider", name)
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sourcer fills scenes with clips from an ordered list of providers.
type Sourcer struct {
	providers        []providers.ClipProvider
	banned           []string
	minWidth         int
	minSceneFraction float64
	maxScenes        int
	workers          int
	tracer           trace.Tracer
}

// NewSourcer creates a sourcer trying ordered providers first to last, with
// at most workers scenes sourced at once.
func NewSourcer(ordered []providers.ClipProvider, config cloud.Sourcing, workers int) *Sourcer {
	if workers <= 0 {
		workers = 1
	}
	maxScenes := config.MaxSceneCount
	if maxScenes <= 0 {
		maxScenes = model.DefaultMaxSceneCount
	}
	return &Sourcer{
		providers:        ordered,
		banned:           config.BannedTopics,
		minWidth:         config.MinWidth,
		minSceneFraction: config.MinSceneFraction,
		maxScenes:        maxScenes,
		workers:          workers,
		tracer:           otel.Tracer("clip-sourcer"),
	}
}

// SourceScene tries each configured provider in order and returns the clip of
// the first one that yields a downloaded file. The bool is false when no
// provider could fill the scene.
func (s *Sourcer) SourceScene(ctx context.Context, sceneIndex int, q model.SearchQuery, targetSceneDuration float64) (*model.SourcedClip, bool) {
	for _, p := range s.providers {
		if !p.Configured() {
			slog.DebugContext(ctx, "provider not configured", "provider", p.Name(), "scene", sceneIndex)
			continue
		}
		candidates, err := p.Search(ctx, q)
		if err != nil {
			slog.WarnContext(ctx, "clip search failed", "provider", p.Name(), "scene", sceneIndex, "query", q.String(), "error", err)
			continue
		}
		accepted := FilterCandidates(candidates, s.banned)
		chosen := p.Choose(accepted)
		if chosen == nil {
			slog.InfoContext(ctx, "no acceptable clip", "provider", p.Name(), "scene", sceneIndex, "query", q.String(), "results", len(candidates))
			continue
		}
		file, err := p.FetchRendition(ctx, chosen, s.minWidth)
		if err != nil {
			slog.WarnContext(ctx, "clip download failed", "provider", p.Name(), "scene", sceneIndex, "clip", chosen.RemoteID, "error", err)
			continue
		}
		return &model.SourcedClip{
			LocalFile:       file,
			DurationSeconds: targetSceneDuration,
			SceneIndex:      sceneIndex,
			Provider:        p.Name(),
		}, true
	}
	return nil, false
}

type sceneJob struct {
	ctx    context.Context
	span   trace.Span
	index  int
	query  model.SearchQuery
	target float64
}

type sceneResult struct {
	clip *model.SourcedClip
	ok   bool
}

// SourceScenes sources every scene of req concurrently and returns the filled
// scenes ordered by scene index. When fewer scenes than required are filled
// the downloaded files are removed and an *model.InsufficientClipsError is
// returned.
func (s *Sourcer) SourceScenes(ctx context.Context, req *model.VideoRequest, narrationSeconds float64) ([]*model.SourcedClip, error) {
	if req == nil {
		return nil, errors.New("nil video request")
	}
	sceneCount := req.GetSceneCount()
	if sceneCount > s.maxScenes {
		return nil, fmt.Errorf("%w: %d scenes requested, at most %d allowed", model.ErrInvalidRequest, sceneCount, s.maxScenes)
	}
	target := model.TargetSceneDuration(narrationSeconds, sceneCount)
	words := req.ScriptWords()

	var wg sync.WaitGroup
	jobs := make(chan *sceneJob, sceneCount)
	results := make(chan *sceneResult, sceneCount)

	workers := s.workers
	if workers > sceneCount {
		workers = sceneCount
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go s.sceneWorker(jobs, results, &wg)
	}

	for i := 0; i < sceneCount; i++ {
		sceneContext := query.SceneWindow(words, i, sceneCount, narrationSeconds)
		q := query.BuildQuery(req.TitleText, req.KeywordsText, req.DescriptionText, req.ScriptText, sceneContext)
		sceneCtx, span := s.tracer.Start(ctx, fmt.Sprintf("source_scene_%d", i))
		span.SetAttributes(attribute.Int("scene", i), attribute.String("query", q.String()))
		jobs <- &sceneJob{ctx: sceneCtx, span: span, index: i, query: q, target: target}
	}
	close(jobs)
	wg.Wait()
	close(results)

	clips := make([]*model.SourcedClip, 0, sceneCount)
	for r := range results {
		if r.ok {
			clips = append(clips, r.clip)
		}
	}
	sort.Slice(clips, func(i, j int) bool { return clips[i].SceneIndex < clips[j].SceneIndex })

	required := model.RequiredScenes(s.minSceneFraction, sceneCount)
	if len(clips) < required {
		RemoveClips(clips)
		return nil, &model.InsufficientClipsError{Achieved: len(clips), Required: required, Scenes: sceneCount}
	}
	slog.InfoContext(ctx, "scenes sourced", "filled", len(clips), "scenes", sceneCount, "target_scene_seconds", target)
	return clips, nil
}

func (s *Sourcer) sceneWorker(jobs <-chan *sceneJob, results chan<- *sceneResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		clip, ok := s.SourceScene(j.ctx, j.index, j.query, j.target)
		if ok {
			j.span.SetAttributes(attribute.String("provider", clip.Provider))
			j.span.SetStatus(codes.Ok, "scene filled")
		} else {
			j.span.SetStatus(codes.Error, "scene unfilled")
		}
		j.span.End()
		results <- &sceneResult{clip: clip, ok: ok}
	}
}

// RemoveClips deletes the local files of clips, logging failures.
func RemoveClips(clips []*model.SourcedClip) {
	for _, c := range clips {
		if c == nil || len(c.LocalFile) == 0 {
			continue
		}
		if err := os.Remove(c.LocalFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove sourced clip", "file", c.LocalFile, "error", err)
		}
	}
}
