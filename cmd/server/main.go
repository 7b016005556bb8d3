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

// Package main is the entry point of the shorts assembler server.
//
// The server accepts generate tasks over HTTP and Pub/Sub, renders one short
// video per requested platform, publishes the results to the artifact bucket
// and reports the outcome to the caller's webhook. A background timer keeps
// the bucket within its retention bounds.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jaycherian/gcp-go-shorts-assembler/internal/api"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/cloud"
	"github.com/jaycherian/gcp-go-shorts-assembler/internal/telemetry"
)

func main() {
	if err := cloud.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized", "enabled", config.Application.TelemetryEnabled)

	InitState(ctx)
	slog.Info("Initialized State")

	r := api.NewRouter(&api.Handlers{
		Tasks:     state.dispatcher,
		Artifacts: state.components.Artifacts,
		Renders:   state.components.Renders,
		Limits:    config.IntakeLimits(),
	}, config.Application.Name)

	port := config.Application.HttpPort
	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", port),
		Handler:     r,
		ReadTimeout: 60 * time.Second,
		// Responses never wait on rendering.
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}

	// Running tasks see the cancellation, fail their current stage and report.
	cancel()
	state.dispatcher.Wait()
	state.cloud.Close()

	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("telemetry shutdown failed", "error", err)
	}
	log.Println("Server exiting")
}
