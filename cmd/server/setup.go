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

// Package main contains the construction of the application state: the
// configuration, the cloud clients, the assembly components and the
// background processes built on them.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/workflow"
)

// StateManager holds the shared dependencies of the server.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	components *workflow.Components
	generate   *workflow.GenerateTaskWorkflow
	dispatcher *workflow.TaskDispatcher
}

var state = &StateManager{}

// SetupOS points the configuration loader at the configs directory. An
// explicitly set GCP_RUNTIME wins over the "local" default.
func SetupOS() (err error) {
	if len(os.Getenv(cloud.EnvConfigFilePrefix)) == 0 {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if len(os.Getenv(cloud.EnvConfigRuntime)) == 0 {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the configuration once and returns the cached copy.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients and the components, then starts the
// task dispatcher, the retention timer and the Pub/Sub listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	state.components = workflow.NewComponents(config, workflow.DependenciesFrom(cloudClients))
	state.generate = workflow.NewGenerateTaskWorkflow(state.components)
	state.dispatcher = workflow.NewTaskDispatcher(ctx, state.generate, config.Application.MaxConcurrentTasks)

	if config.Retention.Enabled {
		workflow.NewRetentionWorkflow(state.components).StartTimer(ctx)
	}

	SetupListeners(ctx, cloudClients, state.generate)
}
