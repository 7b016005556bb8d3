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
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/retention"
)

// RetentionSweep evicts expired artifacts. A failed sweep is logged; it never
// fails the chain it runs in.
type RetentionSweep struct {
	cor.BaseCommand
	sweeper *retention.Sweeper
}

func NewRetentionSweep(name string, sweeper *retention.Sweeper) *RetentionSweep {
	return &RetentionSweep{BaseCommand: *cor.NewBaseCommand(name), sweeper: sweeper}
}

func (c *RetentionSweep) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && c.sweeper != nil
}

func (c *RetentionSweep) Execute(context cor.Context) {
	deleted, err := c.sweeper.Run(context.GetContext())
	if err != nil {
		if c.ErrorCounter != nil {
			c.ErrorCounter.Add(context.GetContext(), 1)
		}
		slog.WarnContext(context.GetContext(), "retention sweep failed", "error", err)
	} else {
		c.Succeed(context)
	}
	context.Add(ParamDeletedKeys, deleted)
}
