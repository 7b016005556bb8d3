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
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

type pexelsVideoFile struct {
	ID      int    `json:"id"`
	Link    string `json:"link"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality string `json:"quality"`
}

type pexelsVideo struct {
	ID          int               `json:"id"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	Description string            `json:"description"`
	Tags        []string          `json:"tags"`
	VideoFiles  []pexelsVideoFile `json:"video_files"`
}

type pexelsResponse struct {
	Videos []pexelsVideo `json:"videos"`
}

// Pexels searches the Pexels video API. Landscape results are requested and
// cropped to portrait by the normalizer.
type Pexels struct {
	apiKey        string
	baseURL       string
	perPage       int
	maxPage       int
	minWidth      int
	searchTimeout time.Duration
	client        HTTPDoer
	downloader    *Downloader

	mu  sync.Mutex
	rng *rand.Rand
}

// NewPexels builds the provider. rng drives the result page and the pick
// among accepted candidates; pass a seeded source for reproducible runs.
func NewPexels(config cloud.Provider, minWidth int, client HTTPDoer, downloader *Downloader, rng *rand.Rand) *Pexels {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	maxPage := config.MaxPage
	if maxPage <= 0 {
		maxPage = 1
	}
	return &Pexels{
		apiKey:        config.ResolveAPIKey(),
		baseURL:       strings.TrimSuffix(config.BaseURL, "/"),
		perPage:       config.PerPage,
		maxPage:       maxPage,
		minWidth:      minWidth,
		searchTimeout: config.SearchTimeout(),
		client:        client,
		downloader:    downloader,
		rng:           rng,
	}
}

// Name returns the provider label carried on its candidates.
func (p *Pexels) Name() string {
	return cloud.ProviderPexels
}

// Configured reports whether an API key is available.
func (p *Pexels) Configured() bool {
	return len(p.apiKey) > 0
}

func (p *Pexels) intn(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Intn(n)
}

// Search runs one video search on a random page up to MaxPage and returns
// the hits as candidates with their renditions.
func (p *Pexels) Search(ctx context.Context, query model.SearchQuery) ([]*model.ClipCandidate, error) {
	if !p.Configured() {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.searchTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("query", query.String())
	params.Set("orientation", "landscape")
	params.Set("per_page", strconv.Itoa(p.perPage))
	params.Set("page", strconv.Itoa(1+p.intn(p.maxPage)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/videos/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pexels search failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if err = checkStatus(p.Name(), resp); err != nil {
		return nil, err
	}

	var body pexelsResponse
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pexels response decode failed: %w", err)
	}

	out := make([]*model.ClipCandidate, 0, len(body.Videos))
	for _, v := range body.Videos {
		candidate := &model.ClipCandidate{
			Provider: p.Name(),
			RemoteID: strconv.Itoa(v.ID),
			Width:    v.Width,
			Height:   v.Height,
			Text:     strings.TrimSpace(v.Description + " " + strings.Join(v.Tags, " ")),
		}
		for _, f := range v.VideoFiles {
			candidate.Renditions = append(candidate.Renditions, model.Rendition{
				URL: f.Link, Width: f.Width, Height: f.Height, Quality: f.Quality,
			})
		}
		if _, ok := candidate.SmallestRenditionAtLeast(p.minWidth); ok {
			out = append(out, candidate)
		}
	}
	return out, nil
}

// Choose picks uniformly at random.
func (p *Pexels) Choose(accepted []*model.ClipCandidate) *model.ClipCandidate {
	if len(accepted) == 0 {
		return nil
	}
	return accepted[p.intn(len(accepted))]
}

// FetchRendition downloads the smallest rendition at least minWidth wide.
func (p *Pexels) FetchRendition(ctx context.Context, candidate *model.ClipCandidate, minWidth int) (string, error) {
	rendition, ok := candidate.SmallestRenditionAtLeast(minWidth)
	if !ok {
		return "", fmt.Errorf("pexels clip %s has no rendition of width >= %d", candidate.RemoteID, minWidth)
	}
	return p.downloader.Download(ctx, rendition.URL, "pexels-*.mp4")
}
