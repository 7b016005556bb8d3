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

// Package retention keeps the artifact store bounded by age and by count.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// Sweep returns the keys to delete from listing, oldest first: every artifact
// older than maxAgeDays, then the oldest survivors in excess of maxCount.
// A non-positive limit disables that rule. Artifacts without a creation time
// count as the oldest.
func Sweep(listing []model.Artifact, maxAgeDays int, maxCount int, now time.Time) []string {
	sorted := make([]model.Artifact, len(listing))
	copy(sorted, listing)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].ObjectKey < sorted[j].ObjectKey
		}
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	out := make([]string, 0)
	survivors := sorted
	if maxAgeDays > 0 {
		cutoff := now.Add(-time.Duration(maxAgeDays) * 24 * time.Hour)
		survivors = make([]model.Artifact, 0, len(sorted))
		for _, a := range sorted {
			if a.CreatedAt.Before(cutoff) {
				out = append(out, a.ObjectKey)
				continue
			}
			survivors = append(survivors, a)
		}
	}
	if maxCount > 0 && len(survivors) > maxCount {
		for _, a := range survivors[:len(survivors)-maxCount] {
			out = append(out, a.ObjectKey)
		}
	}
	return out
}

// Sweeper applies Sweep to an object store.
type Sweeper struct {
	store      cloud.ObjectStore
	prefix     string
	maxAgeDays int
	maxCount   int
	now        func() time.Time
}

// NewSweeper creates a sweeper over the artifacts below prefix.
//
// Inputs:
//   - store: The artifact store to list and delete from.
//   - prefix: Only keys below it are ever considered.
//   - config: Age and count bounds; a non-positive bound is not applied.
//
// Outputs:
//   - *Sweeper: The sweeper, using time.Now until WithClock replaces it.
func NewSweeper(store cloud.ObjectStore, prefix string, config cloud.Retention) *Sweeper {
	return &Sweeper{
		store:      store,
		prefix:     prefix,
		maxAgeDays: config.MaxAgeDays,
		maxCount:   config.MaxCount,
		now:        time.Now,
	}
}

// WithClock replaces the time source.
func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = now
	return s
}

// Plan lists the store and returns the keys a sweep would delete.
func (s *Sweeper) Plan(ctx context.Context) ([]string, error) {
	listing, err := s.store.List(ctx, s.prefix)
	if err != nil {
		return nil, fmt.Errorf("retention listing of %q failed: %w", s.prefix, err)
	}
	for i := range listing {
		if listing[i].CreatedAt.IsZero() {
			if ts, ok := model.ParseKeyTimestamp(listing[i].ObjectKey); ok {
				listing[i].CreatedAt = ts
			}
		}
	}
	return Sweep(listing, s.maxAgeDays, s.maxCount, s.now()), nil
}

// Run deletes the planned keys and returns the ones actually deleted. A
// failed delete is logged and does not stop the sweep.
func (s *Sweeper) Run(ctx context.Context) ([]string, error) {
	planned, err := s.Plan(ctx)
	if err != nil {
		return nil, err
	}
	deleted := make([]string, 0, len(planned))
	for _, key := range planned {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if err := s.store.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "retention delete failed", "key", key, "error", err)
			continue
		}
		deleted = append(deleted, key)
	}
	slog.InfoContext(ctx, "retention sweep completed", "prefix", s.prefix, "planned", len(planned), "deleted", len(deleted))
	return deleted, nil
}
