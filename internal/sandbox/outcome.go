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

package sandbox

// Outcome is the two-variant result of one execution attempt. Exactly one
// of ArtifactPath / Diagnostic is set; use the constructors.
type Outcome struct {
	// ArtifactPath is the destination path when the attempt succeeded.
	ArtifactPath string
	// Diagnostic is the full failure description (error text and trace)
	// when the attempt failed. Preserved verbatim for the repair prompt.
	Diagnostic string
}

// Success returns an Outcome referencing the produced artifact.
func Success(artifactPath string) Outcome {
	return Outcome{ArtifactPath: artifactPath}
}

// Failure returns an Outcome carrying the diagnostic of a failed attempt.
func Failure(diagnostic string) Outcome {
	if diagnostic == "" {
		diagnostic = "execution failed with no diagnostic"
	}
	return Outcome{Diagnostic: diagnostic}
}

// OK reports whether the attempt produced an artifact.
func (o Outcome) OK() bool { return o.Diagnostic == "" }
