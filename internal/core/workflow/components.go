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

// Package workflow wires the pipeline commands into the chains the service
// runs: one chain per video, a task workflow running it for every platform of
// a request, a dispatcher bounding concurrent tasks and the periodic
// retention sweep.
package workflow

import (
	"math/rand"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/providers"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/retention"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/services"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/sourcing"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/notify"
)

// Dependencies are the external collaborators of the pipeline. Zero fields
// get production defaults from NewComponents.
type Dependencies struct {
	Runner     media.CommandRunner
	Probe      media.ProbeFunc
	Providers  []providers.ClipProvider
	Store      cloud.ObjectStore
	Signer     services.Signer
	Objects    media.ObjectOpener
	BigQuery   *bigquery.Client
	HTTPClient providers.HTTPDoer
	Notifier   *notify.Notifier
}

// DependenciesFrom takes the collaborators from the cloud clients.
func DependenciesFrom(clients *cloud.ServiceClients) Dependencies {
	deps := Dependencies{
		Store:    clients.ObjectStore,
		BigQuery: clients.BiqQueryClient,
	}
	if clients.Signer != nil {
		deps.Signer = clients.Signer
	}
	if clients.GCSReader != nil {
		deps.Objects = clients.GCSReader
	}
	return deps
}

// Components are the built pipeline stages shared by every run.
type Components struct {
	Config     *cloud.Config
	Narration  *media.NarrationSource
	Prober     *media.Prober
	Sourcer    *sourcing.Sourcer
	Normalizer *media.Normalizer
	Assembler  *media.Assembler
	Artifacts  *services.ArtifactService
	Renders    *services.RenderLogService
	Sweeper    *retention.Sweeper // nil when retention is disabled
	Notifier   *notify.Notifier
}

// NewProviders builds the configured stock providers, each with its own
// request pacing and download client.
func NewProviders(config *cloud.Config) []providers.ClipProvider {
	pexels := config.Provider(cloud.ProviderPexels)
	pixabay := config.Provider(cloud.ProviderPixabay)
	minWidth := config.Sourcing.MinWidth
	tempDir := config.Assembly.TempDir

	return []providers.ClipProvider{
		providers.NewPexels(pexels, minWidth,
			cloud.NewQuotaAwareHTTPClient(pexels.RequestsPerMinute),
			providers.NewDownloader(cloud.NewInstrumentedHTTPClient(), pexels.DownloadTimeout(), tempDir),
			rand.New(rand.NewSource(time.Now().UnixNano()))),
		providers.NewPixabay(pixabay, minWidth,
			cloud.NewQuotaAwareHTTPClient(pixabay.RequestsPerMinute),
			providers.NewDownloader(cloud.NewInstrumentedHTTPClient(), pixabay.DownloadTimeout(), tempDir)),
	}
}

// NewComponents builds the pipeline stages from config and deps.
func NewComponents(config *cloud.Config, deps Dependencies) *Components {
	workers := config.Application.ThreadPoolSize
	if workers <= 0 {
		workers = 1
	}
	if deps.Runner == nil {
		deps.Runner = &media.ExecRunner{}
	}
	if deps.Providers == nil {
		deps.Providers = NewProviders(config)
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = cloud.NewInstrumentedHTTPClient()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewNotifier(config.Notify, nil)
	}

	var prober *media.Prober
	if deps.Probe != nil {
		prober = media.NewProberWith(deps.Probe, config.Assembly.ProbeTimeout())
	} else {
		prober = media.NewProber(config.Assembly.ProbeTimeout())
	}

	narrationDownloader := providers.NewDownloader(deps.HTTPClient, config.Assembly.NarrationTimeout(), config.Assembly.TempDir)
	narrationDownloader.Accept = providers.IsAudioOrVideo

	c := &Components{
		Config: config,
		Narration: &media.NarrationSource{
			Downloader: narrationDownloader,
			Objects:    deps.Objects,
			TempDir:    config.Assembly.TempDir,
			Timeout:    config.Assembly.NarrationTimeout(),
		},
		Prober:     prober,
		Sourcer:    sourcing.NewSourcer(sourcing.OrderProviders(config.Sourcing.ProviderOrder, deps.Providers...), config.Sourcing, workers),
		Normalizer: media.NewNormalizer(deps.Runner, prober, config.Assembly, workers),
		Assembler:  media.NewAssembler(deps.Runner, config.Assembly),
		Renders: &services.RenderLogService{
			BigqueryClient: deps.BigQuery,
			DatasetName:    config.BigQueryDataSource.DatasetName,
			RenderTable:    config.BigQueryDataSource.RenderTable,
		},
		Notifier: deps.Notifier,
	}
	if deps.Store != nil {
		c.Artifacts = services.NewArtifactService(deps.Store, deps.Signer, config.Storage)
		if config.Retention.Enabled {
			c.Sweeper = retention.NewSweeper(deps.Store, c.Artifacts.Prefix, config.Retention)
		}
	}
	return c
}
