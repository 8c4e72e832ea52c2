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

// Package extract pulls executable code out of free-form model output.
package extract

import (
	"regexp"
	"strings"
)

var (
	fenceBlockRE = regexp.MustCompile("(?s)```[a-zA-Z+]*[ \t]*\r?\n?(.*?)```")
	fenceTokenRE = regexp.MustCompile("```[a-zA-Z+]*")
)

// Code returns the contents of the first fenced code block in text,
// trimmed of surrounding whitespace. The fence may carry a language tag
// (```python, ```starlark, ...). When no fence is present the text is
// returned as-is with any stray fence tokens stripped; a model that
// replies with bare code is never treated as an error.
//
// Code is idempotent: extracting from already-extracted code returns
// the same code.
func Code(text string) string {
	if m := fenceBlockRE.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(fenceTokenRE.ReplaceAllString(text, ""))
}
