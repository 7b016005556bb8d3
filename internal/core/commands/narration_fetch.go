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

package commands

import (
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/media"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
)

// NarrationFetch materialises the request's narration as a local file.
type NarrationFetch struct {
	cor.BaseCommand
	source *media.NarrationSource
}

// NewNarrationFetch creates the command materialising the narration.
func NewNarrationFetch(name string, source *media.NarrationSource) *NarrationFetch {
	return &NarrationFetch{BaseCommand: *cor.NewBaseCommand(name), source: source}
}

func (c *NarrationFetch) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(ParamRequest) != nil
}

func (c *NarrationFetch) Execute(context cor.Context) {
	req := context.Get(ParamRequest).(*model.VideoRequest)
	file, err := c.source.Fetch(context.GetContext(), req.NarrationAudio)
	if err != nil {
		c.Fail(context, fmt.Errorf("narration for %s: %w", req.PlatformLabel, err))
		return
	}
	context.AddTempFile(file)
	slog.DebugContext(context.GetContext(), "narration fetched", "platform", req.PlatformLabel, "file", file)

	context.Add(ParamNarrationFile, file)
	context.Add(c.GetOutputParam(), file)
	c.Succeed(context)
}
