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

package stages

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tidyops/scrub/internal/dataset"
	"github.com/tidyops/scrub/internal/extract"
	"github.com/tidyops/scrub/internal/sandbox"
	"github.com/tidyops/scrub/llm"
)

// Stages bundles the collaborators the stage functions need. The functions
// themselves are stateless; oracle transport errors abort the run, no
// stage ever retries its own call.
type Stages struct {
	Oracle llm.Generator
	Runner sandbox.Runner

	// SampleRows is how many cleaned rows the feature prompt shows.
	// Zero means the default of 3.
	SampleRows int
}

// Profile loads and summarizes the source table. No oracle involved.
func (s *Stages) Profile(ctx context.Context, in ProfileInput) (*ProfileResult, error) {
	df, err := dataset.Load(in.SourcePath)
	if err != nil {
		return nil, err
	}
	return &ProfileResult{Profile: dataset.Build(df)}, nil
}

// Plan asks the oracle for a cleaning strategy from the rendered profile.
func (s *Stages) Plan(ctx context.Context, in PlanInput) (*PlanResult, error) {
	prompt, err := renderPrompt(planPrompt, in)
	if err != nil {
		return nil, err
	}
	resp, err := s.Oracle.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("plan stage: %w", err)
	}
	return &PlanResult{Plan: strings.TrimSpace(resp)}, nil
}

// Generate asks the oracle for candidate code implementing the plan.
func (s *Stages) Generate(ctx context.Context, in GenerateInput) (*GenerateResult, error) {
	prompt, err := renderPrompt(generatePrompt, in)
	if err != nil {
		return nil, err
	}
	resp, err := s.Oracle.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generate stage: %w", err)
	}
	return &GenerateResult{Code: extract.Code(resp)}, nil
}

// Execute runs the candidate code in the sandbox. A reported success with
// no artifact on disk is converted into a failure so the repair loop sees
// it like any other broken attempt.
func (s *Stages) Execute(ctx context.Context, in ExecuteInput) ExecuteResult {
	out := s.Runner.Run(ctx, in.Code, sandbox.Bindings{
		SourcePath: in.SourcePath,
		DestPath:   in.DestPath,
	})
	if !out.OK() {
		return ExecuteResult{Diagnostic: out.Diagnostic}
	}
	if err := verifyArtifact(out.ArtifactPath); err != nil {
		return ExecuteResult{Diagnostic: fmt.Sprintf(
			"execution finished without error but produced no artifact: %v\n"+
				"the code must end with df.write_csv(frame, output_csv_path)", err)}
	}
	return ExecuteResult{ArtifactPath: out.ArtifactPath}
}

func verifyArtifact(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s is empty", path)
	}
	return nil
}

// Repair asks the oracle to fix the failing code. It is a pure function of
// (bad code, diagnostic); the plan is deliberately not part of the prompt.
func (s *Stages) Repair(ctx context.Context, in RepairInput) (*RepairResult, error) {
	prompt, err := renderPrompt(repairPrompt, in)
	if err != nil {
		return nil, err
	}
	resp, err := s.Oracle.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("repair stage: %w", err)
	}
	return &RepairResult{Code: extract.Code(resp)}, nil
}

// SuggestFeatures re-profiles the cleaned artifact and asks the oracle for
// feature-engineering suggestions.
func (s *Stages) SuggestFeatures(ctx context.Context, in FeatureInput) (*FeatureResult, error) {
	df, err := dataset.Load(in.ArtifactPath)
	if err != nil {
		return nil, fmt.Errorf("feature stage: %w", err)
	}

	rows, cols := df.Dims()
	types := make([]string, 0, cols)
	names := df.Names()
	dfTypes := df.Types()
	for i, name := range names {
		types = append(types, fmt.Sprintf("%s=%s", name, dfTypes[i]))
	}
	n := s.SampleRows
	if n <= 0 {
		n = 3
	}

	prompt, err := renderPrompt(featuresPrompt, map[string]any{
		"Rows":        rows,
		"Cols":        cols,
		"ColumnTypes": strings.Join(types, ", "),
		"Sample":      dataset.Sample(df, n),
	})
	if err != nil {
		return nil, err
	}
	resp, err := s.Oracle.Call(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("feature stage: %w", err)
	}
	return &FeatureResult{FeaturePlan: strings.TrimSpace(resp)}, nil
}
