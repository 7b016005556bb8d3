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

// Package workflow_test runs the assembly workflows end to end against the
// in-memory object store, a fake transcoder and fake stock providers.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/providers"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/workflow"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/notify"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/telemetry"
	test "github.com/jaycherian/gcp-go-shorts-assembler/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const tName = "github.com/jaycherian/gcp-go-shorts-assembler/tests/workflow"

var (
	ctx    context.Context
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())

	telemetry.SetupLogging()
	logger.Info("completed test setup")

	exitCode := m.Run()
	cancel()
	os.Exit(exitCode)
}

// harness bundles the fakes behind one set of components.
type harness struct {
	config     *cloud.Config
	store      *test.MemoryStore
	runner     *test.FakeRunner
	probe      *test.FakeProbe
	provider   *test.FakeProvider
	components *workflow.Components
	tempDir    string
}

// newHarness builds components whose provider yields fetchLimit clips, whose
// narration lasts narrationSeconds and whose normalized clips last
// clipSeconds.
func newHarness(t *testing.T, fetchLimit int32, narrationSeconds float64, clipSeconds float64) *harness {
	t.Setenv("WEBHOOK_URL", "")
	config := test.GetConfig()
	config.Assembly.TempDir = t.TempDir()
	config.Sourcing.ProviderOrder = []string{cloud.ProviderPexels}
	config.Retention.SweepAfterPublish = true

	h := &harness{
		config:   config,
		store:    test.NewMemoryStore(),
		runner:   test.NewFakeRunner(),
		probe:    &test.FakeProbe{Durations: map[string]float64{"narration-": narrationSeconds, "normalized-": clipSeconds}},
		provider: test.NewFakeProvider(cloud.ProviderPexels, t.TempDir(), fetchLimit),
		tempDir:  config.Assembly.TempDir,
	}
	h.components = workflow.NewComponents(config, workflow.Dependencies{
		Runner:    h.runner,
		Probe:     h.probe.Probe,
		Providers: []providers.ClipProvider{h.provider},
		Store:     h.store,
		Notifier:  notify.NewNotifier(config.Notify, nil),
	})
	return h
}
