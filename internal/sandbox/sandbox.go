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

// Package sandbox executes untrusted generated code under the Starlark
// interpreter. The evaluation context holds exactly the injected bindings:
// a dataframe module and the two table paths. Starlark has no imports, no
// filesystem and no ambient state, so everything the generated program can
// do is enumerated by the builtins this package installs. Any evaluation
// error is captured as a Failure outcome; nothing escapes Run.
package sandbox

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"

	"github.com/tidyops/scrub/internal/log"
)

// Bindings are the only capabilities visible to the generated program.
type Bindings struct {
	SourcePath string // exposed as input_csv_path; the one readable file
	DestPath   string // exposed as output_csv_path; the one writable file
}

// Runner runs one candidate program against a set of bindings.
type Runner interface {
	Run(ctx context.Context, code string, b Bindings) Outcome
}

// StarlarkRunner is the default Runner.
type StarlarkRunner struct {
	// Timeout is the wall-clock limit for one attempt. Zero disables the
	// limit; NewRunner sets DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds one execution attempt. Generated code can loop;
// a cancelled thread reports through the same Failure channel as any
// other evaluation error.
const DefaultTimeout = 120 * time.Second

func NewRunner() *StarlarkRunner {
	return &StarlarkRunner{Timeout: DefaultTimeout}
}

// Run implements Runner. It never returns an error and never panics: every
// failure mode of the untrusted program (syntax error, unresolved name,
// evaluation error, sandbox violation, timeout, interpreter panic) is
// converted into a Failure carrying the full diagnostic.
func (r *StarlarkRunner) Run(ctx context.Context, code string, b Bindings) (out Outcome) {
	defer func() {
		if rec := recover(); rec != nil {
			out = Failure(fmt.Sprintf("panic during execution: %v\n%s", rec, debug.Stack()))
		}
	}()

	thread := &starlark.Thread{
		Name: "scrub-exec",
		Print: func(_ *starlark.Thread, msg string) {
			log.Debug("generated code: %s", msg)
		},
	}

	if r.Timeout > 0 {
		timer := time.AfterFunc(r.Timeout, func() {
			thread.Cancel(fmt.Sprintf("execution timed out after %s", r.Timeout))
		})
		defer timer.Stop()
	}
	stop := context.AfterFunc(ctx, func() {
		thread.Cancel("run cancelled")
	})
	defer stop()

	_, err := starlark.ExecFile(thread, "generated.star", code, predeclared(b))
	if err != nil {
		return Failure(diagnostic(err))
	}
	return Success(b.DestPath)
}

// predeclared builds the evaluation context: the df module plus the two
// path strings, and nothing else.
func predeclared(b Bindings) starlark.StringDict {
	return starlark.StringDict{
		"df": &starlarkstruct.Module{
			Name: "df",
			Members: starlark.StringDict{
				"read_csv":  readCSVBuiltin(b),
				"write_csv": writeCSVBuiltin(b),
			},
		},
		"input_csv_path":  starlark.String(b.SourcePath),
		"output_csv_path": starlark.String(b.DestPath),
	}
}

// diagnostic renders an evaluation error with as much trace as Starlark
// keeps. The text is handed verbatim to the repair prompt.
func diagnostic(err error) string {
	if evalErr, ok := err.(*starlark.EvalError); ok {
		return evalErr.Backtrace()
	}
	return err.Error()
}
