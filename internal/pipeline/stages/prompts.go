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
	"bytes"
	_ "embed"
	"fmt"
	"text/template"
)

//go:embed plan.md
var planPromptSrc string

//go:embed generate.md
var generatePromptSrc string

//go:embed repair.md
var repairPromptSrc string

//go:embed features.md
var featuresPromptSrc string

var (
	planPrompt     = template.Must(template.New("plan").Parse(planPromptSrc))
	generatePrompt = template.Must(template.New("generate").Parse(generatePromptSrc))
	repairPrompt   = template.Must(template.New("repair").Parse(repairPromptSrc))
	featuresPrompt = template.Must(template.New("features").Parse(featuresPromptSrc))
)

func renderPrompt(tpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tpl.Name(), err)
	}
	return buf.String(), nil
}
