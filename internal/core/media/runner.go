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

// Package media turns sourced clips into the final vertical video: clips are
// normalized to one geometry, fitted to the narration length, concatenated
// and muxed with the narration.
//
// ffmpeg argument lists are built with ffmpeg-go and executed through a
// CommandRunner so every stage runs under a context deadline.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"time"

	pkgerrors "github.com/pkg/errors"
)

const maxStderrBytes = 16 * 1024

// CommandRunner executes an external program.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// TranscodeError reports a failed or timed out ffmpeg stage.
type TranscodeError struct {
	Stage    string
	ExitCode int
	TimedOut bool
	Stderr   string
	Err      error
}

func (e *TranscodeError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("transcode %s timed out: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("transcode %s failed (exit %d): %v: %s", e.Stage, e.ExitCode, e.Err, truncate(e.Stderr, 512))
}

func (e *TranscodeError) Unwrap() error {
	return e.Err
}

// ExecRunner runs programs with exec.CommandContext, keeping a bounded tail
// of stderr for error reports.
type ExecRunner struct {
	Logger *slog.Logger
}

// Run executes name with args until it exits or ctx ends. A non-zero exit
// returns an error carrying the tail of stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	var stderrBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = io.Discard
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	logger.DebugContext(ctx, "executing command", "name", name, "args", args)
	err := cmd.Run()
	elapsed := time.Since(start)
	if err == nil {
		logger.DebugContext(ctx, "command succeeded", "name", name, "duration_ms", elapsed.Milliseconds())
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	out := &TranscodeError{
		Stage:    name,
		ExitCode: exitCode,
		TimedOut: errors.Is(ctx.Err(), context.DeadlineExceeded),
		Stderr:   stderrBuf.String(),
		Err:      err,
	}
	logger.WarnContext(ctx, "command failed",
		"name", name,
		"exit_code", exitCode,
		"timed_out", out.TimedOut,
		"duration_ms", elapsed.Milliseconds(),
		"stderr_tail", truncate(out.Stderr, 512))
	return pkgerrors.WithStack(out)
}

// runStage executes one ffmpeg invocation under timeout and labels failures
// with stage.
func runStage(ctx context.Context, runner CommandRunner, timeout time.Duration, stage string, binary string, args []string) error {
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := runner.Run(stageCtx, binary, args...)
	if err == nil {
		return nil
	}
	var transcodeErr *TranscodeError
	if errors.As(err, &transcodeErr) {
		transcodeErr.Stage = stage
		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) {
			transcodeErr.TimedOut = true
		}
		return err
	}
	return pkgerrors.WithStack(&TranscodeError{
		Stage:    stage,
		ExitCode: -1,
		TimedOut: errors.Is(stageCtx.Err(), context.DeadlineExceeded),
		Err:      err,
	})
}

type limitedWriter struct {
	w     io.Writer
	limit int
	n     int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	remaining := l.limit - l.n
	if remaining <= 0 {
		return len(p), nil
	}
	chunk := p
	if len(chunk) > remaining {
		chunk = chunk[:remaining]
	}
	n, err := l.w.Write(chunk)
	l.n += n
	if err != nil {
		return n, err
	}
	return len(p), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[len(s)-max:]
}
