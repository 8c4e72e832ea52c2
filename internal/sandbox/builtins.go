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

import (
	"fmt"
	"os"

	"github.com/go-gota/gota/dataframe"
	"go.starlark.net/starlark"
)

// readCSVBuiltin returns the df.read_csv builtin, confined to the injected
// source path. Generated code holds the path as input_csv_path; any other
// path is a sandbox violation and fails the attempt.
func readCSVBuiltin(bind Bindings) *starlark.Builtin {
	return starlark.NewBuiltin("read_csv", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var path string
		if err := starlark.UnpackArgs("read_csv", args, kwargs, "path", &path); err != nil {
			return nil, err
		}
		if path != bind.SourcePath {
			return nil, fmt.Errorf("read_csv: access to %q denied; the sandbox only permits reading input_csv_path", path)
		}
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("read_csv: %v", err)
		}
		defer f.Close()
		return newFrame(dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(true)))
	})
}

// writeCSVBuiltin returns the df.write_csv builtin, confined to the
// injected destination path.
func writeCSVBuiltin(bind Bindings) *starlark.Builtin {
	return starlark.NewBuiltin("write_csv", func(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var frame *Frame
		var path string
		if err := starlark.UnpackArgs("write_csv", args, kwargs, "frame", &frame, "path", &path); err != nil {
			return nil, err
		}
		if path != bind.DestPath {
			return nil, fmt.Errorf("write_csv: access to %q denied; the sandbox only permits writing output_csv_path", path)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, fmt.Errorf("write_csv: %v", err)
		}
		defer f.Close()
		if err := frame.df.WriteCSV(f); err != nil {
			return nil, fmt.Errorf("write_csv: %v", err)
		}
		return starlark.None, nil
	})
}
