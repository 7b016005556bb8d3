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

// Package commands provides the cor.Command implementations of the assembly
// pipeline. Each command reads its inputs from well-known context keys,
// writes its result under its own key and under cor.CtxOut, and registers
// every temp file it creates with the context so Close removes it.
package commands

const (
	ParamTask             = "__TASK__"
	ParamRequest          = "__REQUEST__"
	ParamNarrationFile    = "__NARRATION_FILE__"
	ParamNarrationSeconds = "__NARRATION_SECONDS__"
	ParamSourcedClips     = "__SOURCED_CLIPS__"
	ParamNormalizedClips  = "__NORMALIZED_CLIPS__"
	ParamFitPlan          = "__FIT_PLAN__"
	ParamFinalFile        = "__FINAL_FILE__"
	ParamPublished        = "__PUBLISHED__"
	ParamDeletedKeys      = "__DELETED_KEYS__"
)
