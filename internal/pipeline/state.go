// Copyright 2025 Scrub Authors
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

package pipeline

import (
	"time"

	"github.com/tidyops/scrub/internal/dataset"
)

// Stage names a state of the pipeline machine.
type Stage string

const (
	StageProfiling         Stage = "profiling"
	StagePlanning          Stage = "planning"
	StageGenerating        Stage = "generating"
	StageExecuting         Stage = "executing"
	StageRepairing         Stage = "repairing"
	StageFeatureSuggesting Stage = "feature-suggesting"
	StageDone              Stage = "done"
	StageFailed            Stage = "failed"
)

// Terminal reports whether the stage ends a run.
func (s Stage) Terminal() bool { return s == StageDone || s == StageFailed }

// PipelineState is the single mutable record of one run, owned exclusively
// by the Orchestrator. Stage functions never see it; they get narrow input
// records and hand back narrow outputs that the Orchestrator writes here.
type PipelineState struct {
	SourcePath string
	DestPath   string

	Profile       dataset.Profile // written once by Profiling
	Plan          string          // written once by Planning; repair never touches it
	GeneratedCode string          // written by Generating, overwritten by each Repairing

	// Exactly one of ExecError / ArtifactPath is non-empty after any
	// execution attempt.
	ExecError    string
	ArtifactPath string

	FeaturePlan string // written once after a successful execution

	History []StageRecord
}

// StageRecord is an immutable log entry for one stage execution.
type StageRecord struct {
	Stage     Stage
	Attempt   int // execution attempt number; zero for non-cycling stages
	Status    string
	Error     string
	Output    string // the stage's partial output, for incremental rendering
	StartedAt time.Time
	EndedAt   time.Time
}

const (
	statusOK     = "ok"
	statusFailed = "failed"
)

// NewPipelineState returns the initial state for one run.
func NewPipelineState(sourcePath, destPath string) *PipelineState {
	return &PipelineState{SourcePath: sourcePath, DestPath: destPath}
}

// FinalResult is what Run hands back: the terminal stage reached plus the
// outputs that stage guarantees.
type FinalResult struct {
	Stage        Stage
	ArtifactPath string // set when Stage == StageDone
	FeaturePlan  string // set when Stage == StageDone
	Diagnostic   string // set when Stage == StageFailed; the last attempt's, verbatim
	Attempts     int    // number of execution attempts made

	State *PipelineState
}

// Succeeded reports whether the run ended in Done.
func (r *FinalResult) Succeeded() bool { return r.Stage == StageDone }
