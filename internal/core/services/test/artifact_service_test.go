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

// Package services_test contains the test suite for the services package.
// This file tests the ArtifactService against the in-memory object store.
package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/services"
	test "github.com/jaycherian/gcp-go-shorts-assembler/internal/testutil"
	"github.com/zeebo/assert"
)

type recordingSigner struct {
	bucket  string
	key     string
	expires time.Duration
}

func (s *recordingSigner) SignedURL(_ context.Context, bucket string, key string, expires time.Duration) (string, error) {
	s.bucket, s.key, s.expires = bucket, key, expires
	return "https://signed.example.test/" + bucket + "/" + key, nil
}

func newService(store *test.MemoryStore, signer services.Signer) *services.ArtifactService {
	config := test.GetConfig()
	svc := services.NewArtifactService(store, signer, config.Storage)
	svc.Now = func() time.Time { return time.Date(2024, 5, 17, 9, 30, 5, 0, time.UTC) }
	svc.NewIdentifier = func() string { return "a1b2c3d4e5f60718" }
	return svc
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, services.SafeName("Travel Daily"), "Travel_Daily")
	assert.Equal(t, services.SafeName("news/world"), "news_world")
	assert.Equal(t, services.SafeName("  "), "unknown")
	assert.Equal(t, services.SafeName("tiktok"), "tiktok")
}

func TestBuildObjectKey(t *testing.T) {
	svc := newService(test.NewMemoryStore(), nil)
	at := time.Date(2024, 5, 17, 11, 30, 5, 0, time.FixedZone("CEST", 2*60*60))

	key := svc.BuildObjectKey("Travel Daily", "youtube shorts", at)
	assert.Equal(t, key, "shorts/Travel_Daily/youtube_shorts_20240517_093005_a1b2c3d4.mp4")

	ts, ok := model.ParseKeyTimestamp(key)
	assert.That(t, ok)
	assert.That(t, ts.Equal(at))
}

func TestBuildObjectKeyUsesUniqueSuffix(t *testing.T) {
	svc := services.NewArtifactService(test.NewMemoryStore(), nil, test.GetConfig().Storage)
	at := time.Now()
	first := svc.BuildObjectKey("c", "tiktok", at)
	second := svc.BuildObjectKey("c", "tiktok", at)
	assert.NotEqual(t, first, second)
	_, ok := model.ParseKeyTimestamp(first)
	assert.That(t, ok)
}

func TestPublish(t *testing.T) {
	ctx := context.Background()
	store := test.NewMemoryStore()
	svc := newService(store, nil)

	local := filepath.Join(t.TempDir(), "final.mp4")
	assert.NoError(t, os.WriteFile(local, test.Mp4Header, 0o600))

	video, err := svc.Publish(ctx, local, &model.VideoRequest{ChannelName: "Travel Daily", PlatformLabel: "tiktok"})
	assert.NoError(t, err)
	assert.Equal(t, video.ObjectKey, "shorts/Travel_Daily/tiktok_20240517_093005_a1b2c3d4.mp4")
	assert.Equal(t, video.SizeBytes, int64(len(test.Mp4Header)))
	assert.Equal(t, video.Platform, "tiktok")
	assert.Equal(t, video.PublicURL, store.BaseURL+"/"+video.ObjectKey)

	data, ok := store.Data(video.ObjectKey)
	assert.That(t, ok)
	assert.DeepEqual(t, data, test.Mp4Header)

	// The caller keeps ownership of the local file.
	_, err = os.Stat(local)
	assert.NoError(t, err)
}

func TestPublishFailsForMissingFile(t *testing.T) {
	store := test.NewMemoryStore()
	svc := newService(store, nil)
	_, err := svc.Publish(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"), &model.VideoRequest{})
	assert.Error(t, err)
	assert.Equal(t, len(store.Keys()), 0)
}

func TestPublishHonoursCancellation(t *testing.T) {
	store := test.NewMemoryStore()
	svc := newService(store, nil)
	local := filepath.Join(t.TempDir(), "final.mp4")
	assert.NoError(t, os.WriteFile(local, test.Mp4Header, 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Publish(ctx, local, &model.VideoRequest{PlatformLabel: "tiktok"})
	assert.That(t, errors.Is(err, context.Canceled))
	assert.Equal(t, len(store.Keys()), 0)
}

func TestList(t *testing.T) {
	store := test.NewMemoryStore()
	store.Seed("shorts/a/tiktok_1.mp4", time.Now(), 1)
	store.Seed("shorts/b/tiktok_2.mp4", time.Now(), 1)
	store.Seed("other/c.mp4", time.Now(), 1)
	svc := newService(store, nil)

	all, err := svc.List(context.Background(), "")
	assert.NoError(t, err)
	assert.Equal(t, len(all), 2)

	some, err := svc.List(context.Background(), "a/")
	assert.NoError(t, err)
	assert.Equal(t, len(some), 1)
	assert.Equal(t, some[0].ObjectKey, "shorts/a/tiktok_1.mp4")
}

func TestSignedURL(t *testing.T) {
	signer := &recordingSigner{}
	svc := newService(test.NewMemoryStore(), signer)

	u, err := svc.SignedURL(context.Background(), "shorts/a/tiktok_1.mp4")
	assert.NoError(t, err)
	assert.That(t, strings.HasPrefix(u, "https://signed.example.test/test-bucket/"))
	assert.Equal(t, signer.bucket, "test-bucket")
	assert.Equal(t, signer.expires, 15*time.Minute)

	_, err = svc.SignedURL(context.Background(), "private/secret.mp4")
	assert.That(t, errors.Is(err, services.ErrUnknownArtifact))
	_, err = svc.SignedURL(context.Background(), "shorts/../private/secret.mp4")
	assert.That(t, errors.Is(err, services.ErrUnknownArtifact))
}

func TestSignedURLWithoutSigner(t *testing.T) {
	svc := newService(test.NewMemoryStore(), nil)
	_, err := svc.SignedURL(context.Background(), "shorts/a/tiktok_1.mp4")
	assert.Error(t, err)
}
