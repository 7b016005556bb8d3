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
)

// NarrationProbe measures the narration file; its length is the target
// length of the video.
type NarrationProbe struct {
	cor.BaseCommand
	prober *media.Prober
}

// NewNarrationProbe creates the command measuring the narration.
func NewNarrationProbe(name string, prober *media.Prober) *NarrationProbe {
	return &NarrationProbe{BaseCommand: *cor.NewBaseCommand(name), prober: prober}
}

func (c *NarrationProbe) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(ParamNarrationFile) != nil
}

func (c *NarrationProbe) Execute(context cor.Context) {
	file := context.Get(ParamNarrationFile).(string)
	seconds, err := c.prober.Duration(context.GetContext(), file)
	if err != nil {
		c.Fail(context, fmt.Errorf("narration probe: %w", err))
		return
	}
	slog.InfoContext(context.GetContext(), "narration probed", "seconds", seconds)
	context.Add(ParamNarrationSeconds, seconds)
	context.Add(c.GetOutputParam(), seconds)
	c.Succeed(context)
}
