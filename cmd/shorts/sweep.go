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
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/retention"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/services"
	"github.com/spf13/cobra"
)

var (
	dryRun     bool
	listPrefix string
)

func artifactService(cmd *cobra.Command) (*services.ArtifactService, func(), error) {
	if len(config.Storage.OutputBucket) == 0 {
		return nil, nil, errors.New("storage.output_bucket is not configured")
	}
	client, err := storage.NewClient(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	store := cloud.NewGCSObjectStore(client, config.Storage.OutputBucket, config.PublicBaseURL())
	return services.NewArtifactService(store, nil, config.Storage), func() { _ = client.Close() }, nil
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Apply the retention bounds to the artifact bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts, closer, err := artifactService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		sweeper := retention.NewSweeper(artifacts.Store, artifacts.Prefix, config.Retention)
		var keys []string
		if dryRun {
			keys, err = sweeper.Plan(cmd.Context())
		} else {
			keys, err = sweeper.Run(cmd.Context())
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		slog.Info("sweep finished", "dry_run", dryRun, "keys", len(keys))
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the published artifacts",
	RunE: func(cmd *cobra.Command, args []string) error {
		artifacts, closer, err := artifactService(cmd)
		if err != nil {
			return err
		}
		defer closer()

		listing, err := artifacts.List(cmd.Context(), listPrefix)
		if err != nil {
			return err
		}
		for _, a := range listing {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", a.CreatedAt.UTC().Format("2006-01-02 15:04:05"), a.SizeBytes, artifacts.PublicURL(a.ObjectKey))
		}
		return nil
	},
}

func init() {
	sweepCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the keys that would be deleted")
	listCmd.Flags().StringVar(&listPrefix, "prefix", "", "channel prefix below the artifact prefix")
}
