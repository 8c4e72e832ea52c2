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

// Package stages holds the six pipeline stage functions. Each stage is a
// narrow transformation from its own input record to its own output record;
// only the orchestrator sees the full pipeline state and adapts it to these
// records on either side of a call.
package stages

import "github.com/tidyops/scrub/internal/dataset"

// ProfileInput → ProfileResult: summarize the source table.
type ProfileInput struct {
	SourcePath string
}

type ProfileResult struct {
	Profile dataset.Profile
}

// PlanInput → PlanResult: ask the oracle for a cleaning strategy.
type PlanInput struct {
	ProfileText string
}

type PlanResult struct {
	Plan string
}

// GenerateInput → GenerateResult: ask the oracle for executable code.
type GenerateInput struct {
	Plan string
}

type GenerateResult struct {
	Code string
}

// ExecuteInput → ExecuteResult: run the candidate code in the sandbox.
type ExecuteInput struct {
	Code       string
	SourcePath string
	DestPath   string
}

type ExecuteResult struct {
	// ArtifactPath is set on success; Diagnostic on failure. Never both.
	ArtifactPath string
	Diagnostic   string
}

// OK reports whether the execution attempt produced the artifact.
func (r ExecuteResult) OK() bool { return r.Diagnostic == "" }

// RepairInput → RepairResult: ask the oracle to fix the failing code.
// Repair sees only the bad code and the diagnostic, not the plan.
type RepairInput struct {
	Code       string
	Diagnostic string
}

type RepairResult struct {
	Code string
}

// FeatureInput → FeatureResult: ask the oracle for feature-engineering
// suggestions on the cleaned artifact.
type FeatureInput struct {
	ArtifactPath string
}

type FeatureResult struct {
	FeaturePlan string
}
