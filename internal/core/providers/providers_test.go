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

package providers_test

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mp4Header is the start of an ISO base media file with an mp42 brand.
var mp4Header = append([]byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'm', 'p', '4', '2'}, make([]byte, 64)...)

func newDownloader(t *testing.T) *providers.Downloader {
	return providers.NewDownloader(http.DefaultClient, 5*time.Second, t.TempDir())
}

func TestPexelsSearch(t *testing.T) {
	var gotQuery, gotAuth, gotPage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/videos/search", r.URL.Path)
		gotQuery = r.URL.Query().Get("query")
		gotPage = r.URL.Query().Get("page")
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "landscape", r.URL.Query().Get("orientation"))
		assert.Equal(t, "25", r.URL.Query().Get("per_page"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"videos": []map[string]interface{}{
				{
					"id": 1, "description": "Waves at dusk", "tags": []string{"ocean", "sunset"},
					"video_files": []map[string]interface{}{
						{"link": "https://cdn.test/1-uhd.mp4", "width": 3840, "height": 2160, "quality": "uhd"},
						{"link": "https://cdn.test/1-hd.mp4", "width": 1920, "height": 1080, "quality": "hd"},
						{"link": "https://cdn.test/1-sd.mp4", "width": 960, "height": 540, "quality": "sd"},
					},
				},
				{
					"id": 2, "description": "Too small",
					"video_files": []map[string]interface{}{
						{"link": "https://cdn.test/2-sd.mp4", "width": 640, "height": 360},
					},
				},
			},
		})
	}))
	defer server.Close()

	config := cloud.NewConfig().Provider(cloud.ProviderPexels)
	config.APIKey = "pexels-key"
	config.BaseURL = server.URL
	pexels := providers.NewPexels(config, 1280, http.DefaultClient, newDownloader(t), rand.New(rand.NewSource(1)))

	require.True(t, pexels.Configured())
	got, err := pexels.Search(context.Background(), model.SearchQuery{Terms: []string{"ocean", "sunset"}})
	require.NoError(t, err)

	assert.Equal(t, "ocean sunset", gotQuery)
	assert.Equal(t, "pexels-key", gotAuth)
	assert.Contains(t, []string{"1", "2", "3"}, gotPage)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0].RemoteID)
	assert.Equal(t, "Waves at dusk ocean sunset", got[0].Text)
	assert.Equal(t, cloud.ProviderPexels, got[0].Provider)

	rendition, ok := got[0].SmallestRenditionAtLeast(1280)
	require.True(t, ok)
	assert.Equal(t, "https://cdn.test/1-hd.mp4", rendition.URL)
}

func TestPexelsChooseIsReproducible(t *testing.T) {
	candidates := []*model.ClipCandidate{{RemoteID: "a"}, {RemoteID: "b"}, {RemoteID: "c"}, {RemoteID: "d"}}
	config := cloud.Provider{APIKey: "k"}

	first := providers.NewPexels(config, 1280, http.DefaultClient, nil, rand.New(rand.NewSource(42)))
	second := providers.NewPexels(config, 1280, http.DefaultClient, nil, rand.New(rand.NewSource(42)))
	for i := 0; i < 10; i++ {
		a := first.Choose(candidates)
		b := second.Choose(candidates)
		require.NotNil(t, a)
		assert.Equal(t, a.RemoteID, b.RemoteID)
	}
	assert.Nil(t, first.Choose(nil))
}

func TestUnconfiguredProvidersMakeNoCalls(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	config := cloud.Provider{BaseURL: server.URL, APIKeyEnv: "SHORTS_TEST_UNSET_KEY"}
	pexels := providers.NewPexels(config, 1280, http.DefaultClient, nil, nil)
	pixabay := providers.NewPixabay(config, 1280, http.DefaultClient, nil)

	for _, p := range []providers.ClipProvider{pexels, pixabay} {
		assert.False(t, p.Configured())
		got, err := p.Search(context.Background(), model.SearchQuery{Terms: []string{"x"}})
		assert.NoError(t, err)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestPixabaySearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/videos/", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "pixabay-key", q.Get("key"))
		assert.Equal(t, "city night", q.Get("q"))
		assert.Equal(t, "true", q.Get("safesearch"))
		assert.Equal(t, "1280", q.Get("min_width"))
		assert.Equal(t, "25", q.Get("per_page"))
		_, _ = w.Write([]byte(`{"hits":[
			{"id":7,"tags":"city, night, neon","videos":{
				"large":{"url":"","width":0},
				"medium":{"url":"https://cdn.test/7-m.mp4","width":1920,"height":1080},
				"small":{"url":"https://cdn.test/7-s.mp4","width":1280,"height":720}}},
			{"id":8,"tags":"empty","videos":{}}
		]}`))
	}))
	defer server.Close()

	config := cloud.NewConfig().Provider(cloud.ProviderPixabay)
	config.APIKey = "pixabay-key"
	config.BaseURL = server.URL
	pixabay := providers.NewPixabay(config, 1280, http.DefaultClient, newDownloader(t))

	got, err := pixabay.Search(context.Background(), model.SearchQuery{Terms: []string{"city", "night"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "city, night, neon", got[0].Text)
	require.Len(t, got[0].Renditions, 2)
	assert.Equal(t, "medium", got[0].Renditions[0].Quality)
	assert.Same(t, got[0], pixabay.Choose(got))
}

func TestSearchStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("slow down"))
	}))
	defer server.Close()

	pixabay := providers.NewPixabay(cloud.Provider{APIKey: "k", BaseURL: server.URL}, 1280, http.DefaultClient, nil)
	_, err := pixabay.Search(context.Background(), model.SearchQuery{Terms: []string{"x"}})

	var statusErr *providers.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, "slow down", statusErr.Body)
}

func TestSearchDecodeError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	}))
	defer server.Close()

	pexels := providers.NewPexels(cloud.Provider{APIKey: "k", BaseURL: server.URL}, 1280, http.DefaultClient, nil, nil)
	_, err := pexels.Search(context.Background(), model.SearchQuery{Terms: []string{"x"}})
	assert.ErrorContains(t, err, "decode")
}

func TestDownloaderAcceptsVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/clip.mp4":
			_, _ = w.Write(mp4Header)
		case "/page.html":
			_, _ = w.Write([]byte("<html><body>not a video</body></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	dir := t.TempDir()
	downloader := providers.NewDownloader(http.DefaultClient, 5*time.Second, dir)

	file, err := downloader.Download(context.Background(), server.URL+"/clip.mp4", "clip-*.mp4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file, dir))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, mp4Header, data)

	file, err = downloader.Download(context.Background(), server.URL+"/page.html", "clip-*.mp4")
	assert.ErrorIs(t, err, providers.ErrNotMedia)
	assert.Empty(t, file)

	_, err = downloader.Download(context.Background(), server.URL+"/missing", "clip-*.mp4")
	var statusErr *providers.StatusError
	assert.ErrorAs(t, err, &statusErr)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestIsAudioOrVideo(t *testing.T) {
	pad := make([]byte, 60)
	for _, head := range [][]byte{
		append([]byte{0xFF, 0xF3, 0x84, 0xC4}, pad...),
		append([]byte{0xFF, 0xF2, 0x90, 0x00}, pad...),
		append([]byte{0xFF, 0xFA, 0x90, 0x00}, pad...),
		append([]byte{0xFF, 0xFB, 0x90, 0x00}, pad...),
		append([]byte("ID3"), pad...),
		mp4Header,
	} {
		assert.True(t, providers.IsAudioOrVideo(head), "% x", head[:4])
	}
	for _, head := range [][]byte{
		[]byte("<html><body>not audio</body></html>"),
		append([]byte{0xFF, 0xE0, 0x00, 0x00}, pad...),
		{0xFF},
		nil,
	} {
		assert.False(t, providers.IsAudioOrVideo(head), "% x", head)
	}
}

func TestPexelsFetchRendition(t *testing.T) {
	var requested string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = r.URL.Path
		_, _ = w.Write(mp4Header)
	}))
	defer server.Close()

	pexels := providers.NewPexels(cloud.Provider{APIKey: "k"}, 1280, http.DefaultClient, newDownloader(t), nil)
	candidate := &model.ClipCandidate{RemoteID: "1", Renditions: []model.Rendition{
		{URL: server.URL + "/4k.mp4", Width: 3840},
		{URL: server.URL + "/hd.mp4", Width: 1920},
		{URL: server.URL + "/720.mp4", Width: 1280},
		{URL: server.URL + "/sd.mp4", Width: 960},
	}}

	file, err := pexels.FetchRendition(context.Background(), candidate, 1280)
	require.NoError(t, err)
	assert.FileExists(t, file)
	assert.Equal(t, "/720.mp4", requested)

	_, err = pexels.FetchRendition(context.Background(), candidate, 4000)
	assert.Error(t, err)
}
