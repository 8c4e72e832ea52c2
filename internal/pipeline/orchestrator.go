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

// Package pipeline is the orchestration core: a small state machine that
// sequences the cleaning stages and bounds the self-correction loop around
// the generated code.
//
// The stage graph is fixed:
//
//	Profiling → Planning → Generating → Executing
//	                                        │
//	                  ┌─────────────────────┴──────────────┐
//	                  │ failure, retries left               │ success
//	                  ▼                                     ▼
//	              Repairing ──► Executing          FeatureSuggesting ──► Done
//	                  (the only cycle; at most MaxRetries times)
//
// Exhausting retries ends in Failed with the last diagnostic preserved.
// Every run terminates: execution is attempted at most MaxRetries+1 times.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/tidyops/scrub/internal/log"
	"github.com/tidyops/scrub/internal/pipeline/stages"
	"github.com/tidyops/scrub/internal/sandbox"
	"github.com/tidyops/scrub/llm"
)

// DefaultMaxRetries bounds the repair loop when the caller does not
// configure it.
const DefaultMaxRetries = 3

// Orchestrator drives one or more runs. Each run gets a fresh
// PipelineState and a fresh retry counter; nothing leaks across runs.
type Orchestrator struct {
	stages     *stages.Stages
	maxRetries int
	listener   EventListener
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxRetries overrides the repair bound (default 3).
func WithMaxRetries(n int) Option {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

// WithListener installs a stage-transition listener.
func WithListener(l EventListener) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.listener = l
		}
	}
}

// New builds an Orchestrator around an oracle and a sandbox runner.
func New(oracle llm.Generator, runner sandbox.Runner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		stages:     &stages.Stages{Oracle: oracle, Runner: runner},
		maxRetries: DefaultMaxRetries,
		listener:   NopListener{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run executes one pipeline run from a source table to a terminal state.
// It returns a FinalResult for both terminal outcomes; the error return is
// reserved for aborts outside the self-correction contract: an unreadable
// source table or an oracle transport failure.
func (o *Orchestrator) Run(ctx context.Context, sourcePath, destPath string) (*FinalResult, error) {
	st := NewPipelineState(sourcePath, destPath)
	retries := 0 // run-scoped; only Repairing increments it

	for stage := StageProfiling; ; {
		switch stage {
		case StageProfiling:
			res, err := runStage(o, st, stage, 0, func() (*stages.ProfileResult, error) {
				return o.stages.Profile(ctx, stages.ProfileInput{SourcePath: st.SourcePath})
			}, func(r *stages.ProfileResult) string { return r.Profile.Text })
			if err != nil {
				return nil, err
			}
			st.Profile = res.Profile
			stage = StagePlanning

		case StagePlanning:
			res, err := runStage(o, st, stage, 0, func() (*stages.PlanResult, error) {
				return o.stages.Plan(ctx, stages.PlanInput{ProfileText: st.Profile.Text})
			}, func(r *stages.PlanResult) string { return r.Plan })
			if err != nil {
				return nil, err
			}
			st.Plan = res.Plan
			stage = StageGenerating

		case StageGenerating:
			res, err := runStage(o, st, stage, 0, func() (*stages.GenerateResult, error) {
				return o.stages.Generate(ctx, stages.GenerateInput{Plan: st.Plan})
			}, func(r *stages.GenerateResult) string { return r.Code })
			if err != nil {
				return nil, err
			}
			st.GeneratedCode = res.Code
			stage = StageExecuting

		case StageExecuting:
			attempt := retries + 1
			o.listener.OnStageStart(stage)
			started := time.Now()
			res := o.stages.Execute(ctx, stages.ExecuteInput{
				Code:       st.GeneratedCode,
				SourcePath: st.SourcePath,
				DestPath:   st.DestPath,
			})
			rec := StageRecord{
				Stage:     stage,
				Attempt:   attempt,
				StartedAt: started,
				EndedAt:   time.Now(),
			}
			if res.OK() {
				st.ArtifactPath, st.ExecError = res.ArtifactPath, ""
				rec.Status, rec.Output = statusOK, res.ArtifactPath
			} else {
				st.ExecError, st.ArtifactPath = res.Diagnostic, ""
				rec.Status, rec.Error = statusFailed, res.Diagnostic
				log.Error("execution error (attempt %d/%d):\n%s", attempt, o.maxRetries+1, res.Diagnostic)
			}
			st.History = append(st.History, rec)
			o.listener.OnStageEnd(stage, rec)
			stage = routeAfterExecute(res.OK(), retries, o.maxRetries)

		case StageRepairing:
			retries++
			log.Info("repair attempt %d/%d", retries, o.maxRetries)
			res, err := runStage(o, st, stage, retries, func() (*stages.RepairResult, error) {
				return o.stages.Repair(ctx, stages.RepairInput{
					Code:       st.GeneratedCode,
					Diagnostic: st.ExecError,
				})
			}, func(r *stages.RepairResult) string { return r.Code })
			if err != nil {
				return nil, err
			}
			st.GeneratedCode = res.Code
			stage = StageExecuting

		case StageFeatureSuggesting:
			res, err := runStage(o, st, stage, 0, func() (*stages.FeatureResult, error) {
				return o.stages.SuggestFeatures(ctx, stages.FeatureInput{ArtifactPath: st.ArtifactPath})
			}, func(r *stages.FeatureResult) string { return r.FeaturePlan })
			if err != nil {
				return nil, err
			}
			st.FeaturePlan = res.FeaturePlan
			stage = StageDone

		case StageDone:
			return &FinalResult{
				Stage:        StageDone,
				ArtifactPath: st.ArtifactPath,
				FeaturePlan:  st.FeaturePlan,
				Attempts:     retries + 1,
				State:        st,
			}, nil

		case StageFailed:
			return &FinalResult{
				Stage:      StageFailed,
				Diagnostic: st.ExecError,
				Attempts:   retries + 1,
				State:      st,
			}, nil

		default:
			return nil, fmt.Errorf("pipeline: unknown stage %q", stage)
		}
	}
}

// routeAfterExecute is the machine's only conditional edge: a pure function
// of the outcome, the retry counter and the bound.
func routeAfterExecute(ok bool, retries, maxRetries int) Stage {
	if ok {
		return StageFeatureSuggesting
	}
	if retries < maxRetries {
		return StageRepairing
	}
	return StageFailed
}

// runStage wraps one non-executing stage call with events and history.
// An error here aborts the run; it is recorded before propagating.
func runStage[T any](o *Orchestrator, st *PipelineState, stage Stage, attempt int,
	call func() (T, error), output func(T) string) (T, error) {

	o.listener.OnStageStart(stage)
	rec := StageRecord{Stage: stage, Attempt: attempt, StartedAt: time.Now()}

	res, err := call()
	rec.EndedAt = time.Now()
	if err != nil {
		rec.Status, rec.Error = statusFailed, err.Error()
		st.History = append(st.History, rec)
		o.listener.OnStageEnd(stage, rec)
		return res, fmt.Errorf("stage %s: %w", stage, err)
	}
	rec.Status, rec.Output = statusOK, output(res)
	st.History = append(st.History, rec)
	o.listener.OnStageEnd(stage, rec)
	return res, nil
}
