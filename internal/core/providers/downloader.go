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

package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/h2non/filetype"
)

// sniffLength is the number of leading bytes filetype needs to match.
const sniffLength = 262

// ErrNotMedia is returned when a downloaded body is not of the expected kind.
var ErrNotMedia = errors.New("downloaded file is not a recognised media file")

// Downloader streams remote files into temporary files.
type Downloader struct {
	client  HTTPDoer
	timeout time.Duration
	tempDir string
	// Accept validates the leading bytes of the body.
	Accept func(head []byte) bool
}

// NewDownloader returns a Downloader accepting video files only.
func NewDownloader(client HTTPDoer, timeout time.Duration, tempDir string) *Downloader {
	return &Downloader{client: client, timeout: timeout, tempDir: tempDir, Accept: filetype.IsVideo}
}

// MPEGAudio is raw MPEG audio starting on a frame header rather than an ID3
// tag, as written by most speech synthesizers.
var MPEGAudio = filetype.AddType("mpga", "audio/mpeg")

func init() {
	filetype.AddMatcher(MPEGAudio, IsMPEGFrame)
}

// IsMPEGFrame reports whether head starts with an MPEG audio frame sync: 11
// set bits followed by a non-reserved layer.
func IsMPEGFrame(head []byte) bool {
	return len(head) > 1 && head[0] == 0xFF && head[1]&0xE0 == 0xE0 && head[1]&0x06 != 0
}

// IsAudioOrVideo accepts audio containers, bare MPEG audio frames and video
// containers carrying audio.
func IsAudioOrVideo(head []byte) bool {
	return filetype.IsAudio(head) || filetype.IsType(head, MPEGAudio) || filetype.IsVideo(head)
}

// Download fetches url into a new temp file named after pattern and returns
// its path. On any failure no file is left behind.
func (d *Downloader) Download(ctx context.Context, url string, pattern string) (file string, err error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err = checkStatus("download", resp); err != nil {
		return "", err
	}

	out, err := os.CreateTemp(d.tempDir, pattern)
	if err != nil {
		return "", err
	}
	file = out.Name()
	defer func() {
		if err != nil {
			if rmErr := os.Remove(file); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				slog.Warn("failed to remove partial download", "file", file, "error", rmErr)
			}
			file = ""
		}
	}()

	if _, err = io.Copy(out, resp.Body); err != nil {
		_ = out.Close()
		return file, fmt.Errorf("failed to write %s: %w", url, err)
	}

	head := make([]byte, sniffLength)
	n, readErr := out.ReadAt(head, 0)
	if closeErr := out.Close(); closeErr != nil {
		err = closeErr
		return file, err
	}
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		err = readErr
		return file, err
	}
	if d.Accept != nil && !d.Accept(head[:n]) {
		err = fmt.Errorf("%s: %w", url, ErrNotMedia)
		return file, err
	}
	return file, nil
}
