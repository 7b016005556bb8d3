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

package cloud

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"google.golang.org/api/iterator"
)

// ObjectStore is the artifact store the assembler publishes to and the
// retention sweeper evicts from.
type ObjectStore interface {
	// Put uploads r under key and returns the number of bytes written. The
	// object only becomes visible when Put returns without error.
	Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error)
	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]model.Artifact, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// PublicURL returns the public read URL of key.
	PublicURL(key string) string
}

// GCSObjectStore implements ObjectStore over one bucket.
type GCSObjectStore struct {
	client        *storage.Client
	bucket        string
	publicBaseURL string
}

// NewGCSObjectStore creates an ObjectStore over bucket.
//
// Inputs:
//   - client: The shared storage client.
//   - bucket: The artifact bucket.
//   - publicBaseURL: Base of public read URLs, without a trailing slash.
//
// Outputs:
//   - *GCSObjectStore: The store.
func NewGCSObjectStore(client *storage.Client, bucket string, publicBaseURL string) *GCSObjectStore {
	return &GCSObjectStore{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
	}
}

// Bucket returns the bucket name.
func (s *GCSObjectStore) Bucket() string {
	return s.bucket
}

// Put streams r to key. The object only becomes visible once the writer
// closes without error.
func (s *GCSObjectStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (int64, error) {
	// Cancelling the writer's context aborts the upload without committing.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.client.Bucket(s.bucket).Object(key).NewWriter(writeCtx)
	w.ContentType = contentType

	n, err := io.Copy(w, r)
	if err != nil {
		cancel()
		_ = w.Close()
		return 0, fmt.Errorf("failed to upload gs://%s/%s: %w", s.bucket, key, err)
	}
	if err = w.Close(); err != nil {
		return 0, fmt.Errorf("failed to commit gs://%s/%s: %w", s.bucket, key, err)
	}
	return n, nil
}

// List returns every object below prefix.
func (s *GCSObjectStore) List(ctx context.Context, prefix string) ([]model.Artifact, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	out := make([]model.Artifact, 0)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", s.bucket, prefix, err)
		}
		if a, ok := ArtifactFromAttrs(attrs); ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// ArtifactFromAttrs converts a listed object. The creation time is taken
// from Created, then Updated, then the timestamp embedded in the key, so
// metadata edits do not reset an artifact's age. Folder placeholders are
// skipped.
func ArtifactFromAttrs(attrs *storage.ObjectAttrs) (model.Artifact, bool) {
	if attrs == nil || strings.HasSuffix(attrs.Name, "/") {
		return model.Artifact{}, false
	}
	created := attrs.Created
	if created.IsZero() {
		created = attrs.Updated
	}
	if created.IsZero() {
		if ts, ok := model.ParseKeyTimestamp(attrs.Name); ok {
			created = ts
		}
	}
	return model.Artifact{ObjectKey: attrs.Name, CreatedAt: created, SizeBytes: attrs.Size}, true
}

// Delete removes key.
func (s *GCSObjectStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		slog.Debug("object already deleted", "bucket", s.bucket, "key", key)
		return nil
	}
	return err
}

func (s *GCSObjectStore) PublicURL(key string) string {
	base := s.publicBaseURL
	if len(base) == 0 {
		base = "https://storage.googleapis.com/" + s.bucket
	}
	return base + "/" + strings.TrimPrefix(key, "/")
}
