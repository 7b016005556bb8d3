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

// Package providers implements the stock clip providers a scene can be
// sourced from and the download of a chosen rendition to a local file.
package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// ClipProvider searches a stock footage catalogue and fetches clips from it.
type ClipProvider interface {
	// Name is the configuration name of the provider, e.g. "pexels".
	Name() string
	// Configured is false when no API key is available. Unconfigured
	// providers make no network calls.
	Configured() bool
	// Search returns the candidates usable for query. An error means the
	// provider yielded no result for this call.
	Search(ctx context.Context, query model.SearchQuery) ([]*model.ClipCandidate, error)
	// Choose picks one of the accepted candidates, nil when there are none.
	Choose(accepted []*model.ClipCandidate) *model.ClipCandidate
	// FetchRendition downloads a rendition of candidate and returns the local
	// file. The caller owns the file.
	FetchRendition(ctx context.Context, candidate *model.ClipCandidate, minWidth int) (string, error)
}

// HTTPDoer is satisfied by *http.Client and cloud.QuotaAwareHTTPClient.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Provider, e.StatusCode, e.Body)
}

const maxErrorBody = 512

func checkStatus(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: string(body)}
}
