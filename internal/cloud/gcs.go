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
	"strings"

	"cloud.google.com/go/storage"
)

// GCSScheme prefixes object references such as gs://bucket/path/narration.mp3.
const GCSScheme = "gs://"

// GCSObject is a simplified reference to a Google Cloud Storage object.
type GCSObject struct {
	Bucket   string // The name of the GCS bucket.
	Name     string // The name of the object.
	MIMEType string // The MIME type of the object (e.g., "video/mp4").
}

func (o GCSObject) String() string {
	return GCSScheme + o.Bucket + "/" + o.Name
}

// IsGCSReference reports whether uri uses the gs:// scheme.
func IsGCSReference(uri string) bool {
	return strings.HasPrefix(uri, GCSScheme)
}

// ParseGCSReference splits gs://bucket/name into its bucket and object name.
func ParseGCSReference(uri string) (GCSObject, error) {
	if !IsGCSReference(uri) {
		return GCSObject{}, fmt.Errorf("not a gcs reference: %q", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, GCSScheme), "/", 2)
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[1]) == 0 {
		return GCSObject{}, fmt.Errorf("gcs reference %q needs a bucket and an object name", uri)
	}
	return GCSObject{Bucket: parts[0], Name: parts[1]}, nil
}

// GCSReader opens gs:// references through a storage client.
type GCSReader struct {
	client *storage.Client
}

// NewGCSReader creates a reader of gs:// references.
func NewGCSReader(client *storage.Client) *GCSReader {
	return &GCSReader{client: client}
}

// Open returns a reader over the referenced object. The caller closes it.
func (r *GCSReader) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	obj, err := ParseGCSReference(uri)
	if err != nil {
		return nil, err
	}
	reader, err := r.client.Bucket(obj.Bucket).Object(obj.Name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("object %s does not exist: %w", obj, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", obj, err)
	}
	return reader, nil
}
