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
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

type pixabayRendition struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type pixabayHit struct {
	ID     int    `json:"id"`
	Tags   string `json:"tags"`
	Videos struct {
		Large  pixabayRendition `json:"large"`
		Medium pixabayRendition `json:"medium"`
		Small  pixabayRendition `json:"small"`
	} `json:"videos"`
}

type pixabayResponse struct {
	Hits []pixabayHit `json:"hits"`
}

// Pixabay searches the Pixabay video API with safe search on.
type Pixabay struct {
	apiKey        string
	baseURL       string
	perPage       int
	minWidth      int
	searchTimeout time.Duration
	client        HTTPDoer
	downloader    *Downloader
}

// NewPixabay creates the Pixabay video provider.
//
// Inputs:
//   - config: The provider section; an empty API key leaves it unconfigured.
//   - minWidth: Narrowest rendition accepted, in pixels.
//   - client: HTTP client used for searches, normally the quota-aware one.
//   - downloader: Downloader writing renditions to temp files.
//
// Outputs:
//   - *Pixabay: The provider, ready for Search and FetchRendition.
func NewPixabay(config cloud.Provider, minWidth int, client HTTPDoer, downloader *Downloader) *Pixabay {
	return &Pixabay{
		apiKey:        config.ResolveAPIKey(),
		baseURL:       strings.TrimSuffix(config.BaseURL, "/"),
		perPage:       config.PerPage,
		minWidth:      minWidth,
		searchTimeout: config.SearchTimeout(),
		client:        client,
		downloader:    downloader,
	}
}

// Name returns the provider label carried on its candidates.
func (p *Pixabay) Name() string {
	return cloud.ProviderPixabay
}

// Configured reports whether an API key is available.
func (p *Pixabay) Configured() bool {
	return len(p.apiKey) > 0
}

// Search runs one safe-search video query, filtered server side by minWidth,
// and returns the hits carrying at least one rendition. The API key never
// appears in returned errors.
func (p *Pixabay) Search(ctx context.Context, query model.SearchQuery) ([]*model.ClipCandidate, error) {
	if !p.Configured() {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.searchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("key", p.apiKey)
	params.Set("q", query.String())
	params.Set("per_page", strconv.Itoa(p.perPage))
	params.Set("safesearch", "true")
	params.Set("min_width", strconv.Itoa(p.minWidth))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/videos/?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		// The request URL carries the key; keep it out of the error.
		return nil, fmt.Errorf("pixabay search failed: %w", withoutURL(err))
	}
	defer func() { _ = resp.Body.Close() }()
	if err = checkStatus(p.Name(), resp); err != nil {
		return nil, err
	}

	var body pixabayResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pixabay response decode failed: %w", err)
	}

	out := make([]*model.ClipCandidate, 0, len(body.Hits))
	for _, hit := range body.Hits {
		candidate := &model.ClipCandidate{
			Provider: p.Name(),
			RemoteID: strconv.Itoa(hit.ID),
			Text:     hit.Tags,
		}
		for _, r := range []struct {
			quality   string
			rendition pixabayRendition
		}{
			{"large", hit.Videos.Large},
			{"medium", hit.Videos.Medium},
			{"small", hit.Videos.Small},
		} {
			if len(r.rendition.URL) == 0 {
				continue
			}
			candidate.Renditions = append(candidate.Renditions, model.Rendition{
				URL: r.rendition.URL, Width: r.rendition.Width, Height: r.rendition.Height, Quality: r.quality,
			})
		}
		if len(candidate.Renditions) == 0 {
			continue
		}
		candidate.Width = candidate.Renditions[0].Width
		candidate.Height = candidate.Renditions[0].Height
		out = append(out, candidate)
	}
	return out, nil
}

// withoutURL drops the request URL from transport errors.
func withoutURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

// Choose takes the first accepted candidate.
func (p *Pixabay) Choose(accepted []*model.ClipCandidate) *model.ClipCandidate {
	if len(accepted) == 0 {
		return nil
	}
	return accepted[0]
}

// FetchRendition downloads the first present of large, medium and small.
func (p *Pixabay) FetchRendition(ctx context.Context, candidate *model.ClipCandidate, _ int) (string, error) {
	if len(candidate.Renditions) == 0 {
		return "", fmt.Errorf("pixabay clip %s has no rendition", candidate.RemoteID)
	}
	return p.downloader.Download(ctx, candidate.Renditions[0].URL, "pixabay-*.mp4")
}
