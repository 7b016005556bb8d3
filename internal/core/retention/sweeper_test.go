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

package retention_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/retention"
	test "github.com/jaycherian/gcp-go-shorts-assembler/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 30, 12, 0, 0, 0, time.UTC)

// seedStore stores total artifacts one minute apart; the first old ones are
// older than eight days.
func seedStore(total int, old int) *test.MemoryStore {
	store := test.NewMemoryStore()
	for i := 0; i < total; i++ {
		created := now.Add(-time.Duration(total-i) * time.Minute)
		if i < old {
			created = now.Add(-8*24*time.Hour - time.Duration(old-i)*time.Minute)
		}
		store.Seed(fmt.Sprintf("shorts/chan/tiktok_%04d.mp4", i), created, 2048)
	}
	return store
}

func TestSweepAgeThenCount(t *testing.T) {
	listing := []model.Artifact{
		{ObjectKey: "new", CreatedAt: now.Add(-time.Hour)},
		{ObjectKey: "old", CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ObjectKey: "mid", CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ObjectKey: "older", CreatedAt: now.Add(-3 * 24 * time.Hour)},
	}
	assert.Equal(t, []string{"old"}, retention.Sweep(listing, 7, 0, now))
	assert.Equal(t, []string{"old", "older"}, retention.Sweep(listing, 7, 2, now))
	assert.Equal(t, []string{"old", "older", "mid"}, retention.Sweep(listing, 0, 1, now))
	assert.Empty(t, retention.Sweep(listing, 0, 0, now))
	assert.Empty(t, retention.Sweep(nil, 7, 200, now))
}

func TestSweepScenario(t *testing.T) {
	store := seedStore(250, 30)
	config := cloud.Retention{MaxAgeDays: 7, MaxCount: 200}
	sweeper := retention.NewSweeper(store, "shorts/", config).WithClock(func() time.Time { return now })

	deleted, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, deleted, 50)
	assert.Len(t, store.Keys(), 200)

	// The oldest 50 keys were evicted.
	for i := 0; i < 50; i++ {
		assert.Contains(t, deleted, fmt.Sprintf("shorts/chan/tiktok_%04d.mp4", i))
	}

	again, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, store.Keys(), 200)
}

func TestSweepBoundsHold(t *testing.T) {
	store := seedStore(40, 5)
	config := cloud.Retention{MaxAgeDays: 7, MaxCount: 20}
	sweeper := retention.NewSweeper(store, "shorts/", config).WithClock(func() time.Time { return now })

	_, err := sweeper.Run(context.Background())
	require.NoError(t, err)

	listing, err := store.List(context.Background(), "shorts/")
	require.NoError(t, err)
	assert.LessOrEqual(t, len(listing), 20)
	cutoff := now.Add(-7 * 24 * time.Hour)
	for _, a := range listing {
		assert.False(t, a.CreatedAt.Before(cutoff), a.ObjectKey)
	}
}

func TestSweepContinuesAfterDeleteFailure(t *testing.T) {
	store := seedStore(5, 3)
	store.FailDelete["shorts/chan/tiktok_0001.mp4"] = true
	sweeper := retention.NewSweeper(store, "shorts/", cloud.Retention{MaxAgeDays: 7}).WithClock(func() time.Time { return now })

	deleted, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"shorts/chan/tiktok_0000.mp4", "shorts/chan/tiktok_0002.mp4"}, deleted)
	assert.Contains(t, store.Keys(), "shorts/chan/tiktok_0001.mp4")
}

func TestSweepOnlyTouchesPrefix(t *testing.T) {
	store := seedStore(3, 3)
	store.Seed("other/keep.mp4", now.Add(-30*24*time.Hour), 10)
	sweeper := retention.NewSweeper(store, "shorts/", cloud.Retention{MaxAgeDays: 7}).WithClock(func() time.Time { return now })

	deleted, err := sweeper.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, deleted, 3)
	assert.Equal(t, []string{"other/keep.mp4"}, store.Keys())
}

func TestPlanFallsBackToKeyTimestamp(t *testing.T) {
	store := test.NewMemoryStore()
	store.Seed("shorts/c/tiktok_20240601_080000_abcd1234.mp4", time.Time{}, 10)
	store.Seed("shorts/c/tiktok_20240629_080000_abcd1234.mp4", time.Time{}, 10)
	sweeper := retention.NewSweeper(store, "shorts/", cloud.Retention{MaxAgeDays: 7}).WithClock(func() time.Time { return now })

	planned, err := sweeper.Plan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"shorts/c/tiktok_20240601_080000_abcd1234.mp4"}, planned)
}
