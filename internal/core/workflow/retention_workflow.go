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
	"context"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// RetentionWorkflow sweeps the artifact store, on demand or on a ticker.
type RetentionWorkflow struct {
	cor.BaseCommand
	interval time.Duration
	chain    cor.Chain
}

// NewRetentionWorkflow creates the sweep workflow. It does nothing when
// retention is disabled.
func NewRetentionWorkflow(components *Components) *RetentionWorkflow {
	w := &RetentionWorkflow{
		BaseCommand: *cor.NewBaseCommand("retention-workflow"),
		interval:    time.Duration(components.Config.Retention.SweepIntervalSeconds) * time.Second,
	}
	chain := cor.NewBaseChain(w.GetName())
	if components.Sweeper != nil {
		chain.AddCommand(commands.NewRetentionSweep("retention-sweep", components.Sweeper))
	}
	w.chain = chain
	return w
}

func (w *RetentionWorkflow) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil
}

func (w *RetentionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// StartTimer sweeps every interval until ctx is done. A non-positive interval
// disables the timer.
func (w *RetentionWorkflow) StartTimer(ctx context.Context) {
	if w.interval <= 0 {
		slog.Info("retention timer disabled")
		return
	}
	tracer := otel.Tracer("retention-timer")
	ticker := time.NewTicker(w.interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				traceCtx, span := tracer.Start(ctx, "retention-sweep")
				chainCtx := cor.NewBaseContext()
				chainCtx.SetContext(traceCtx)

				w.Execute(chainCtx)

				if chainCtx.HasErrors() {
					span.SetStatus(codes.Error, "retention sweep failed")
				} else {
					span.SetStatus(codes.Ok, "retention sweep completed")
				}
				span.End()
				chainCtx.Close()
			case <-ctx.Done():
				slog.Info("retention timer stopped")
				return
			}
		}
	}()
}
