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

// Package main is the command line front end of the shorts assembler. It
// renders a single video locally and runs retention sweeps by hand.
package main

import (
	"context"
	"os"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	configDir string
	runtime   string
	logLevel  string
	config    *cloud.Config
)

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "shorts",
	Short:         "shorts - vertical short video assembler",
	Long:          "Assembles 9:16 short videos from a narration and stock footage, and manages the published artifacts.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := cloud.LoadDotEnv(); err != nil {
			return err
		}
		if len(logLevel) > 0 {
			if err := os.Setenv(telemetry.EnvLogLevel, logLevel); err != nil {
				return err
			}
		}
		telemetry.SetupLogging()

		if err := os.Setenv(cloud.EnvConfigFilePrefix, configDir); err != nil {
			return err
		}
		if err := os.Setenv(cloud.EnvConfigRuntime, runtime); err != nil {
			return err
		}
		config = cloud.NewConfig()
		return cloud.LoadConfig(config)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "configs", "directory holding the .env*.toml files")
	rootCmd.PersistentFlags().StringVar(&runtime, "runtime", "local", "runtime name selecting the .env.<runtime>.toml override")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(sweepCmd)
	rootCmd.AddCommand(listCmd)
}
