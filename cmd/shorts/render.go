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
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/commands"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/cor"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/model"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/core/workflow"
	"github.com/spf13/cobra"
)

var (
	requestFile string
	platform    string
	outputFile  string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render one video of a generate request to a local file",
	RunE: func(cmd *cobra.Command, args []string) error {
		body, err := os.ReadFile(requestFile)
		if err != nil {
			return err
		}
		task, err := model.ParseGenerateTask(body, config.IntakeLimits())
		if err != nil {
			return err
		}
		req, err := pickVideo(task, platform)
		if err != nil {
			return err
		}

		deps := workflow.Dependencies{}
		if cloud.IsGCSReference(req.NarrationAudio) {
			client, err := storage.NewClient(cmd.Context())
			if err != nil {
				return err
			}
			defer client.Close()
			deps.Objects = cloud.NewGCSReader(client)
		}
		components := workflow.NewComponents(config, deps)
		wf := workflow.NewRenderOnlyWorkflow(components)

		chainCtx := cor.NewBaseContext()
		defer chainCtx.Close()
		chainCtx.SetContext(cmd.Context())
		chainCtx.Add(commands.ParamTask, task)
		chainCtx.Add(commands.ParamRequest, req)
		chainCtx.Add(cor.CtxIn, req)

		wf.Execute(chainCtx)
		if chainCtx.HasErrors() {
			return chainCtx.Err()
		}

		// The rendered file is a temp file removed with the context.
		final := chainCtx.Get(commands.ParamFinalFile).(string)
		if err = copyFile(final, outputFile); err != nil {
			return err
		}
		slog.Info("video rendered", "platform", req.PlatformLabel, "output", outputFile)
		fmt.Fprintln(cmd.OutOrStdout(), outputFile)
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVar(&requestFile, "request", "", "generate request JSON file")
	renderCmd.Flags().StringVar(&platform, "platform", "", "platform to render (default: the first video)")
	renderCmd.Flags().StringVarP(&outputFile, "out", "o", "short.mp4", "output file")
	_ = renderCmd.MarkFlagRequired("request")
}

func pickVideo(task *model.GenerateTask, platform string) (*model.VideoRequest, error) {
	if len(platform) == 0 {
		return task.Videos[0], nil
	}
	for _, v := range task.Videos {
		if strings.EqualFold(v.PlatformLabel, platform) {
			return v, nil
		}
	}
	return nil, fmt.Errorf("request has no video for platform %q", platform)
}

func copyFile(src string, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()
	_, err = io.Copy(out, in)
	return err
}
