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

package extract

import "testing"

func TestCode(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "tagged fence",
			in:   "Here is the code:\n```python\nframe = df.read_csv(input_csv_path)\n```\nDone.",
			want: "frame = df.read_csv(input_csv_path)",
		},
		{
			name: "untagged fence",
			in:   "```\nx = 1\ny = 2\n```",
			want: "x = 1\ny = 2",
		},
		{
			name: "starlark tag",
			in:   "```starlark\nframe = frame.drop_nulls()\n```",
			want: "frame = frame.drop_nulls()",
		},
		{
			name: "no fence returns raw text",
			in:   "frame = df.read_csv(input_csv_path)\n",
			want: "frame = df.read_csv(input_csv_path)",
		},
		{
			name: "stray opening fence only",
			in:   "```python\nx = 1",
			want: "x = 1",
		},
		{
			name: "surrounding prose ignored outside fence",
			in:   "Sure!\n\n```py\nclean = frame.fill_nulls(\"Age\", 29.7)\n```\n\nLet me know.",
			want: "clean = frame.fill_nulls(\"Age\", 29.7)",
		},
		{
			name: "empty input",
			in:   "",
			want: "",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := Code(c.in)
			if got != c.want {
				t.Errorf("Code(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestCodeIdempotent(t *testing.T) {
	inputs := []string{
		"```python\nx = 1\ny = 2\n```",
		"```\nframe = df.read_csv(input_csv_path)\n```",
		"bare = True",
	}
	for _, in := range inputs {
		once := Code(in)
		twice := Code(once)
		if once != twice {
			t.Errorf("not idempotent: Code(%q) = %q, Code again = %q", in, once, twice)
		}
	}
}

func TestCodeUnwrapsFence(t *testing.T) {
	code := "x = 1\ny = x + 1"
	for _, tag := range []string{"", "python", "starlark"} {
		wrapped := "```" + tag + "\n" + code + "\n```"
		if got := Code(wrapped); got != code {
			t.Errorf("tag %q: Code(wrapped) = %q, want %q", tag, got, code)
		}
	}
}
