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

// Package cor (Chain of Responsibility) holds the building blocks every
// assembly workflow is made of. A workflow is a Chain of Commands sharing one
// Context; each Command reads its input from the Context, does one unit of
// work and writes its output back for the next Command.
//
// The Context also owns the lifetime of temporary files created while a video
// is assembled. Commands register every file they create and the owner of the
// Context calls Close when the run ends, whatever the outcome.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the key a command reads its primary input from. BaseChain moves
	// the previous command's CtxOut value here before running the next command.
	CtxIn = "__IN__"
	// CtxOut is the key a command writes its primary output to.
	CtxOut = "__OUT__"
)

// Context is the shared state of a single workflow execution.
type Context interface {
	// SetContext replaces the Go context (cancellation, deadlines, span).
	SetContext(context context.Context)
	// GetContext returns the Go context of the currently running command.
	GetContext() context.Context

	// Add stores a value and returns the Context for chaining.
	Add(key string, value interface{}) Context
	// Get returns the stored value or nil.
	Get(key string) interface{}
	// Remove deletes a stored value.
	Remove(key string)

	// AddError records a failure, keyed by the command that produced it.
	AddError(key string, err error)
	// GetErrors returns a copy of the recorded errors.
	GetErrors() map[string]error
	// HasErrors reports whether any command failed.
	HasErrors() bool
	// Err joins all recorded errors, nil when there are none.
	Err() error

	// AddTempFile registers a file that must be removed by Close.
	AddTempFile(file string)
	// GetTempFiles returns the registered files.
	GetTempFiles() []string
	// Close removes every registered temporary file.
	Close()
}

// Executable is anything with a unit of work driven by a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a named, instrumented unit of work.
type Command interface {
	Executable

	GetName() string
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is the precondition check run by a chain before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered list of commands. A Chain is itself a Command so
// workflows can be nested.
type Chain interface {
	Command

	// ContinueOnFailure keeps the chain running after a command fails.
	ContinueOnFailure(bool) Chain
	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
