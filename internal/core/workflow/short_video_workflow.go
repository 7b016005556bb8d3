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

package workflow

import (
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
)

// ShortVideoWorkflow turns one VideoRequest into a rendered, and optionally
// published, video. The request is read from commands.ParamRequest.
//
// Logic Flow:
//  1. Fetch the narration and probe its length.
//  2. Source one stock clip per scene, failing below the sourcing floor.
//  3. Normalize the clips, plan the plays and render the final file.
//  4. When publishing: upload the file, record it in BigQuery and sweep the
//     artifact store if configured.
type ShortVideoWorkflow struct {
	cor.BaseCommand
	components *Components
	publish    bool
	chain      cor.Chain
}

// NewShortVideoWorkflow returns the publishing workflow.
func NewShortVideoWorkflow(components *Components) *ShortVideoWorkflow {
	return newShortVideoWorkflow("short-video-workflow", components, true)
}

// NewRenderOnlyWorkflow stops after rendering; the final file is left under
// commands.ParamFinalFile and registered with the context.
func NewRenderOnlyWorkflow(components *Components) *ShortVideoWorkflow {
	return newShortVideoWorkflow("render-only-workflow", components, false)
}

func newShortVideoWorkflow(name string, components *Components, publish bool) *ShortVideoWorkflow {
	w := &ShortVideoWorkflow{
		BaseCommand: *cor.NewBaseCommand(name),
		components:  components,
		publish:     publish && components.Artifacts != nil,
	}
	w.initializeChain()
	return w
}

func (w *ShortVideoWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(commands.ParamRequest) != nil
}

func (w *ShortVideoWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Chain exposes the configured chain.
func (w *ShortVideoWorkflow) Chain() cor.Chain {
	return w.chain
}

func (w *ShortVideoWorkflow) initializeChain() {
	c := w.components
	out := cor.NewBaseChain(w.GetName())

	out.AddCommand(commands.NewNarrationFetch("narration-fetch", c.Narration))
	out.AddCommand(commands.NewNarrationProbe("narration-probe", c.Prober))
	out.AddCommand(commands.NewSceneSourcing("scene-sourcing", c.Sourcer))
	out.AddCommand(commands.NewClipNormalize("clip-normalize", c.Normalizer))
	out.AddCommand(commands.NewDurationFit("duration-fit"))
	out.AddCommand(commands.NewVideoRender("video-render", c.Assembler))

	if w.publish {
		out.AddCommand(commands.NewArtifactPublish("artifact-publish", c.Artifacts))
		out.AddCommand(commands.NewRenderPersist("render-persist", c.Renders))
		if c.Sweeper != nil && c.Config.Retention.SweepAfterPublish {
			out.AddCommand(commands.NewRetentionSweep("retention-sweep", c.Sweeper))
		}
	}
	w.chain = out
}
