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

// Package services contains the business logic for interacting with data sources.
// This file, `artifacts.go`, defines the ArtifactService, which names,
// publishes and exposes the rendered videos kept in the artifact store.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// VideoContentType is the content type of every published artifact.
const VideoContentType = "video/mp4"

// ErrUnknownArtifact is returned for keys outside the artifact prefix.
var ErrUnknownArtifact = errors.New("unknown artifact key")

// Signer produces time-limited read URLs for private objects.
type Signer interface {
	SignedURL(ctx context.Context, bucket string, key string, expires time.Duration) (string, error)
}

// ArtifactService encapsulates the object store, the URL signer and the key
// layout of published videos.
type ArtifactService struct {
	Store         cloud.ObjectStore // Store receiving the rendered videos.
	Signer        Signer            // Optional; SignedURL fails without one.
	Bucket        string            // Bucket backing Store, used for signing.
	Prefix        string            // Key prefix of every artifact, e.g. "shorts/".
	SignedURLTTL  time.Duration     // Lifetime of signed URLs.
	Now           func() time.Time  // Clock used for object keys, time.Now when nil.
	NewIdentifier func() string     // Key suffix source, a uuid when nil.
}

// NewArtifactService wires the service from the cloud clients and the storage
// configuration.
func NewArtifactService(store cloud.ObjectStore, signer Signer, config cloud.Storage) *ArtifactService {
	return &ArtifactService{
		Store:        store,
		Signer:       signer,
		Bucket:       config.OutputBucket,
		Prefix:       config.ArtifactPrefix,
		SignedURLTTL: time.Duration(config.SignedURLMinutes) * time.Minute,
	}
}

// SafeName makes a channel or platform label usable as a key segment: spaces
// and slashes become underscores and an empty label becomes "unknown".
func SafeName(label string) string {
	s := strings.TrimSpace(label)
	s = strings.NewReplacer(" ", "_", "/", "_", "\\", "_").Replace(s)
	if len(s) == 0 {
		return "unknown"
	}
	return s
}

// BuildObjectKey returns the key for a new artifact:
// <prefix><channel>/<platform>_<YYYYMMDD_HHMMSS>_<id8>.mp4, with the time in UTC.
//
// Inputs:
//   - channel: The channel name of the request.
//   - platform: The target platform label.
//   - now: The creation time embedded in the key.
//
// Outputs:
//   - string: The object key.
func (s *ArtifactService) BuildObjectKey(channel string, platform string, now time.Time) string {
	id := s.identifier()
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s%s/%s_%s_%s.mp4",
		s.prefix(), SafeName(channel), SafeName(platform), now.UTC().Format(model.ObjectKeyTimeLayout), id)
}

// Publish uploads the rendered file for req and returns the published video.
// The local file is left in place; the caller owns it.
//
// Inputs:
//   - ctx: The context bounding the upload.
//   - localFile: The rendered video.
//   - req: The request the video was rendered for.
//
// Outputs:
//   - *model.PublishedVideo: Key, size, creation time and public URL.
//   - error: An error if the file cannot be read or the upload fails.
func (s *ArtifactService) Publish(ctx context.Context, localFile string, req *model.VideoRequest) (*model.PublishedVideo, error) {
	f, err := os.Open(localFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open rendered video: %w", err)
	}
	defer func() { _ = f.Close() }()

	now := s.now()
	key := s.BuildObjectKey(req.ChannelName, req.PlatformLabel, now)
	size, err := s.Store.Put(ctx, key, f, VideoContentType)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "artifact published", "key", key, "size", size, "platform", req.PlatformLabel)
	return &model.PublishedVideo{
		Artifact: model.Artifact{
			ObjectKey: key,
			CreatedAt: now.UTC(),
			SizeBytes: size,
		},
		Platform:  req.PlatformLabel,
		PublicURL: s.Store.PublicURL(key),
	}, nil
}

// List returns the artifacts under the configured prefix, narrowed by an
// optional sub prefix.
func (s *ArtifactService) List(ctx context.Context, subPrefix string) ([]model.Artifact, error) {
	return s.Store.List(ctx, s.prefix()+strings.TrimPrefix(subPrefix, s.prefix()))
}

// PublicURL returns the public read URL of key.
func (s *ArtifactService) PublicURL(key string) string {
	return s.Store.PublicURL(key)
}

// SignedURL returns a time-limited GET URL for an artifact key.
//
// Inputs:
//   - ctx: The context for the signing request.
//   - key: An object key under the artifact prefix.
//
// Outputs:
//   - string: The signed URL.
//   - error: ErrUnknownArtifact for keys outside the prefix, or a signing error.
func (s *ArtifactService) SignedURL(ctx context.Context, key string) (string, error) {
	if len(key) == 0 || !strings.HasPrefix(key, s.prefix()) || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrUnknownArtifact, key)
	}
	if s.Signer == nil {
		return "", errors.New("url signing is not configured")
	}
	ttl := s.SignedURLTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return s.Signer.SignedURL(ctx, s.Bucket, key, ttl)
}

func (s *ArtifactService) prefix() string {
	p := strings.TrimPrefix(s.Prefix, "/")
	if len(p) > 0 && !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

func (s *ArtifactService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ArtifactService) identifier() string {
	if s.NewIdentifier != nil {
		return s.NewIdentifier()
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
