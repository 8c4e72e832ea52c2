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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidyops/scrub/internal/sandbox"
)

// captureOracle records the prompt and replies with a fixed response.
type captureOracle struct {
	prompt   string
	response string
	err      error
}

func (c *captureOracle) Call(_ context.Context, prompt string) (string, error) {
	c.prompt = prompt
	return c.response, c.err
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestProfileStage(t *testing.T) {
	src := writeCSV(t, t.TempDir(), "in.csv", "Name,Age\nAlice,22\nBob,\n")
	s := &Stages{}

	res, err := s.Profile(context.Background(), ProfileInput{SourcePath: src})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Profile.Rows)
	assert.Contains(t, res.Profile.Text, "Dataset Shape: 2 rows × 2 columns")
}

func TestPlanStagePromptCarriesProfile(t *testing.T) {
	oracle := &captureOracle{response: "  Impute Age with the median.  \n"}
	s := &Stages{Oracle: oracle}

	res, err := s.Plan(context.Background(), PlanInput{ProfileText: "Dataset Shape: 5 rows × 2 columns"})
	require.NoError(t, err)
	assert.Equal(t, "Impute Age with the median.", res.Plan)
	assert.Contains(t, oracle.prompt, "Dataset Shape: 5 rows × 2 columns")
	assert.Contains(t, oracle.prompt, "data cleaning plan")
}

func TestGenerateStageExtractsFencedCode(t *testing.T) {
	oracle := &captureOracle{response: "Sure:\n```python\nframe = df.read_csv(input_csv_path)\n```\n"}
	s := &Stages{Oracle: oracle}

	res, err := s.Generate(context.Background(), GenerateInput{Plan: "Drop duplicates."})
	require.NoError(t, err)
	assert.Equal(t, "frame = df.read_csv(input_csv_path)", res.Code)
	assert.Contains(t, oracle.prompt, "Drop duplicates.")
	// the prompt documents the sandbox dialect the code must target
	assert.Contains(t, oracle.prompt, "df.read_csv")
	assert.Contains(t, oracle.prompt, "drop_nulls")
}

func TestRepairStagePromptCarriesCodeAndDiagnostic(t *testing.T) {
	oracle := &captureOracle{response: "```python\nfixed = True\n```"}
	s := &Stages{Oracle: oracle}

	res, err := s.Repair(context.Background(), RepairInput{
		Code:       "frame = frame.drop_nulls(\"Salary\")",
		Diagnostic: "drop_nulls: unknown column \"Salary\"",
	})
	require.NoError(t, err)
	assert.Equal(t, "fixed = True", res.Code)
	assert.Contains(t, oracle.prompt, "drop_nulls(\"Salary\")")
	assert.Contains(t, oracle.prompt, "unknown column")
	// repair sees code and diagnostic, never the plan
	assert.NotContains(t, oracle.prompt, "Cleaning Plan:")
}

func TestRepairStageOracleError(t *testing.T) {
	oracle := &captureOracle{err: fmt.Errorf("boom")}
	s := &Stages{Oracle: oracle}

	_, err := s.Repair(context.Background(), RepairInput{Code: "x = 1", Diagnostic: "bad"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repair stage")
}

func TestExecuteStageSuccess(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "in.csv", "Name,Age\nAlice,22\nBob,\n")
	dst := filepath.Join(dir, "out.csv")
	s := &Stages{Runner: sandbox.NewRunner()}

	res := s.Execute(context.Background(), ExecuteInput{
		Code:       "df.write_csv(df.read_csv(input_csv_path).drop_nulls(\"Age\"), output_csv_path)",
		SourcePath: src,
		DestPath:   dst,
	})
	require.True(t, res.OK(), "diagnostic: %s", res.Diagnostic)
	assert.Equal(t, dst, res.ArtifactPath)
	assert.Empty(t, res.Diagnostic)
}

func TestExecuteStageMissingArtifactIsFailure(t *testing.T) {
	dir := t.TempDir()
	src := writeCSV(t, dir, "in.csv", "Name,Age\nAlice,22\n")
	s := &Stages{Runner: sandbox.NewRunner()}

	res := s.Execute(context.Background(), ExecuteInput{
		Code:       "frame = df.read_csv(input_csv_path)",
		SourcePath: src,
		DestPath:   filepath.Join(dir, "out.csv"),
	})
	require.False(t, res.OK())
	assert.Empty(t, res.ArtifactPath)
	assert.Contains(t, res.Diagnostic, "produced no artifact")
	assert.Contains(t, res.Diagnostic, "df.write_csv")
}

func TestSuggestFeaturesStage(t *testing.T) {
	dir := t.TempDir()
	artifact := writeCSV(t, dir, "cleaned.csv", "Name,Age\nAlice,22\nBob,38\nCarol,35\nDan,41\n")
	oracle := &captureOracle{response: "Bin Age into decades."}
	s := &Stages{Oracle: oracle, SampleRows: 2}

	res, err := s.SuggestFeatures(context.Background(), FeatureInput{ArtifactPath: artifact})
	require.NoError(t, err)
	assert.Equal(t, "Bin Age into decades.", res.FeaturePlan)
	assert.Contains(t, oracle.prompt, "4 rows × 2 columns")
	assert.Contains(t, oracle.prompt, "Name=Alice")
	assert.NotContains(t, oracle.prompt, "Carol", "sample should honor SampleRows")
}
