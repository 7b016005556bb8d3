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

package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/providers"
)

// ErrUnsupportedNarration is returned for narration references that are not
// a data URL, an http(s) URL or a gs:// reference.
var ErrUnsupportedNarration = errors.New("unsupported narration reference")

// ErrNotAudio is returned when the narration bytes are not an audio file.
var ErrNotAudio = errors.New("narration is not an audio file")

// ObjectOpener opens gs:// references. *cloud.GCSReader satisfies it.
type ObjectOpener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// URLDownloader fetches http(s) URLs into temp files. *providers.Downloader
// satisfies it.
type URLDownloader interface {
	Download(ctx context.Context, url string, pattern string) (string, error)
}

// NarrationSource materialises a narration reference as a local audio file.
type NarrationSource struct {
	Downloader URLDownloader
	Objects    ObjectOpener
	TempDir    string
	Timeout    time.Duration
}

// Fetch writes the narration referenced by ref to a temp file and returns its
// path. The caller owns the file; nothing is left behind on failure.
func (s *NarrationSource) Fetch(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	switch {
	case strings.HasPrefix(ref, "data:"):
		data, err := DecodeDataURL(ref)
		if err != nil {
			return "", err
		}
		return s.write(ctx, strings.NewReader(string(data)))
	case cloud.IsGCSReference(ref):
		if s.Objects == nil {
			return "", fmt.Errorf("%w: no object reader for %s", ErrUnsupportedNarration, ref)
		}
		r, err := s.Objects.Open(ctx, ref)
		if err != nil {
			return "", err
		}
		defer func() { _ = r.Close() }()
		return s.write(ctx, r)
	case strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://"):
		if s.Downloader == nil {
			return "", fmt.Errorf("%w: no downloader for %s", ErrUnsupportedNarration, ref)
		}
		return s.Downloader.Download(ctx, ref, "narration-*.audio")
	}
	return "", fmt.Errorf("%w: %.40q", ErrUnsupportedNarration, ref)
}

// DecodeDataURL returns the payload of a data:audio URL. The payload is
// always base64, whether or not the header says so.
func DecodeDataURL(ref string) ([]byte, error) {
	header, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasPrefix(header, "data:audio") {
		return nil, fmt.Errorf("%w: expected a data:audio URL", ErrUnsupportedNarration)
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return nil, fmt.Errorf("invalid narration data URL: %w", err)
	}
	return data, nil
}

func (s *NarrationSource) write(ctx context.Context, r io.Reader) (file string, err error) {
	out, err := os.CreateTemp(s.TempDir, "narration-*.audio")
	if err != nil {
		return "", err
	}
	file = out.Name()
	defer func() {
		if err != nil {
			removeQuietly(file)
			file = ""
		}
	}()

	head := make([]byte, 262)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		_ = out.Close()
		return file, err
	}
	if !providers.IsAudioOrVideo(head[:n]) {
		_ = out.Close()
		return file, ErrNotAudio
	}
	if _, err = out.Write(head[:n]); err != nil {
		_ = out.Close()
		return file, err
	}
	if _, err = io.Copy(out, r); err != nil {
		_ = out.Close()
		return file, err
	}
	if err = out.Close(); err != nil {
		return file, err
	}
	return file, ctx.Err()
}
