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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
)

// GenerateTopic names the subscription carrying generate tasks.
const GenerateTopic = "GenerateTopic"

// SetupListeners attaches the generate workflow to its subscription and
// starts listening. Without a configured subscription the server only takes
// HTTP intake.
func SetupListeners(ctx context.Context, cloudClients *cloud.ServiceClients, generate cor.Command) {
	listener, ok := cloudClients.PubSubListeners[GenerateTopic]
	if !ok {
		slog.Warn("no generate subscription configured", "listener", GenerateTopic)
		return
	}
	listener.SetCommand(generate)
	listener.Listen(ctx)
}
