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
	"strings"

	"github.com/Knetic/govaluate"
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"go.starlark.net/starlark"
)

// Frame wraps a gota DataFrame as an immutable Starlark value. Every
// transformation returns a new Frame; the generated program threads frames
// through assignments exactly like pandas code threads dataframes.
type Frame struct {
	df dataframe.DataFrame
}

func newFrame(df dataframe.DataFrame) (*Frame, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	return &Frame{df: df}, nil
}

var _ starlark.HasAttrs = (*Frame)(nil)

func (f *Frame) String() string {
	rows, cols := f.df.Dims()
	return fmt.Sprintf("<frame %d×%d>", rows, cols)
}

func (f *Frame) Type() string          { return "frame" }
func (f *Frame) Freeze()               {} // frames are already immutable
func (f *Frame) Truth() starlark.Bool  { return starlark.Bool(f.df.Nrow() > 0) }
func (f *Frame) Hash() (uint32, error) { return 0, fmt.Errorf("unhashable type: frame") }

func (f *Frame) AttrNames() []string {
	names := make([]string, 0, len(frameMethods)+2)
	for name := range frameMethods {
		names = append(names, name)
	}
	return append(names, "columns", "shape")
}

func (f *Frame) Attr(name string) (starlark.Value, error) {
	switch name {
	case "columns":
		cols := f.df.Names()
		elems := make([]starlark.Value, len(cols))
		for i, c := range cols {
			elems[i] = starlark.String(c)
		}
		return starlark.NewList(elems), nil
	case "shape":
		rows, cols := f.df.Dims()
		return starlark.Tuple{starlark.MakeInt(rows), starlark.MakeInt(cols)}, nil
	}
	if impl, ok := frameMethods[name]; ok {
		return starlark.NewBuiltin(name, impl).BindReceiver(f), nil
	}
	return nil, nil
}

type frameMethod = func(*starlark.Thread, *starlark.Builtin, starlark.Tuple, []starlark.Tuple) (starlark.Value, error)

var frameMethods = map[string]frameMethod{
	"head":         frameHead,
	"select":       frameSelect,
	"drop_columns": frameDropColumns,
	"drop_nulls":   frameDropNulls,
	"fill_nulls":   frameFillNulls,
	"rename":       frameRename,
	"filter":       frameFilter,
	"dedupe":       frameDedupe,
}

func recvFrame(b *starlark.Builtin) *Frame { return b.Receiver().(*Frame) }

func (f *Frame) hasColumn(name string) bool {
	for _, c := range f.df.Names() {
		if c == name {
			return true
		}
	}
	return false
}

func (f *Frame) checkColumns(fn string, cols []string) error {
	for _, c := range cols {
		if !f.hasColumn(c) {
			return fmt.Errorf("%s: unknown column %q (columns are: %s)",
				fn, c, strings.Join(f.df.Names(), ", "))
		}
	}
	return nil
}

// columnArgs flattens positional string arguments into column names.
func columnArgs(fn string, args starlark.Tuple) ([]string, error) {
	cols := make([]string, 0, len(args))
	for _, a := range args {
		s, ok := starlark.AsString(a)
		if !ok {
			return nil, fmt.Errorf("%s: column name must be a string, got %s", fn, a.Type())
		}
		cols = append(cols, s)
	}
	return cols, nil
}

func frameHead(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var n int
	if err := starlark.UnpackArgs("head", args, kwargs, "n", &n); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	if n < 0 {
		return nil, fmt.Errorf("head: n must not be negative, got %d", n)
	}
	rows := f.df.Nrow()
	if n > rows {
		n = rows
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return newFrame(f.df.Subset(idx))
}

func frameSelect(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("select: unexpected keyword arguments")
	}
	f := recvFrame(b)
	cols, err := columnArgs("select", args)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("select: at least one column required")
	}
	if err := f.checkColumns("select", cols); err != nil {
		return nil, err
	}
	return newFrame(f.df.Select(cols))
}

func frameDropColumns(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("drop_columns: unexpected keyword arguments")
	}
	f := recvFrame(b)
	cols, err := columnArgs("drop_columns", args)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("drop_columns: at least one column required")
	}
	if err := f.checkColumns("drop_columns", cols); err != nil {
		return nil, err
	}
	return newFrame(f.df.Drop(cols))
}

func frameDropNulls(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(kwargs) > 0 {
		return nil, fmt.Errorf("drop_nulls: unexpected keyword arguments")
	}
	f := recvFrame(b)
	cols, err := columnArgs("drop_nulls", args)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		cols = f.df.Names()
	} else if err := f.checkColumns("drop_nulls", cols); err != nil {
		return nil, err
	}

	keep := make([]int, 0, f.df.Nrow())
	for i := 0; i < f.df.Nrow(); i++ {
		ok := true
		for _, c := range cols {
			if isMissing(f.df.Col(c), i) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return newFrame(f.df.Subset(keep))
}

func frameFillNulls(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var col string
	var value starlark.Value
	if err := starlark.UnpackArgs("fill_nulls", args, kwargs, "column", &col, "value", &value); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	if err := f.checkColumns("fill_nulls", []string{col}); err != nil {
		return nil, err
	}

	fill, err := goValue("fill_nulls", value)
	if err != nil {
		return nil, err
	}
	s := f.df.Col(col)
	records := s.Records()
	for i := 0; i < s.Len(); i++ {
		if isMissing(s, i) {
			records[i] = fmt.Sprint(fill)
		}
	}
	ns := series.New(records, promoteType(s.Type(), fill), col)
	return newFrame(f.df.Mutate(ns))
}

func frameRename(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var oldName, newName string
	if err := starlark.UnpackArgs("rename", args, kwargs, "old", &oldName, "new", &newName); err != nil {
		return nil, err
	}
	f := recvFrame(b)
	if err := f.checkColumns("rename", []string{oldName}); err != nil {
		return nil, err
	}
	return newFrame(f.df.Rename(newName, oldName))
}

// frameFilter keeps the rows for which expr evaluates to true. Column
// values are bound as expression parameters; missing values make the row
// fail the predicate.
func frameFilter(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var expr string
	if err := starlark.UnpackArgs("filter", args, kwargs, "expr", &expr); err != nil {
		return nil, err
	}
	f := recvFrame(b)

	eval, err := govaluate.NewEvaluableExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("filter: bad expression %q: %v", expr, err)
	}

	names := f.df.Names()
	keep := make([]int, 0, f.df.Nrow())
	for i := 0; i < f.df.Nrow(); i++ {
		params := make(map[string]interface{}, len(names))
		missing := false
		for _, c := range names {
			s := f.df.Col(c)
			if isMissing(s, i) {
				missing = true
				continue
			}
			params[c] = paramValue(s, i)
		}
		if missing {
			continue
		}
		res, err := eval.Evaluate(params)
		if err != nil {
			return nil, fmt.Errorf("filter: evaluating %q on row %d: %v", expr, i, err)
		}
		ok, isBool := res.(bool)
		if !isBool {
			return nil, fmt.Errorf("filter: expression %q must yield a boolean, got %T", expr, res)
		}
		if ok {
			keep = append(keep, i)
		}
	}
	return newFrame(f.df.Subset(keep))
}

func frameDedupe(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	if len(args) > 0 || len(kwargs) > 0 {
		return nil, fmt.Errorf("dedupe: no arguments expected")
	}
	f := recvFrame(b)

	seen := make(map[string]bool, f.df.Nrow())
	keep := make([]int, 0, f.df.Nrow())
	records := f.df.Records()
	for i, row := range records[1:] {
		key := strings.Join(row, "\x1f")
		if !seen[key] {
			seen[key] = true
			keep = append(keep, i)
		}
	}
	return newFrame(f.df.Subset(keep))
}

// isMissing treats NA elements and blank strings as missing, matching the
// profiling stage.
func isMissing(s series.Series, i int) bool {
	e := s.Elem(i)
	return e.IsNA() || strings.TrimSpace(e.String()) == ""
}

// paramValue converts one cell into a govaluate parameter. Integers widen
// to float64 so numeric comparisons behave.
func paramValue(s series.Series, i int) interface{} {
	e := s.Elem(i)
	switch s.Type() {
	case series.Int, series.Float:
		return e.Float()
	case series.Bool:
		v, err := e.Bool()
		if err != nil {
			return e.String()
		}
		return v
	default:
		return e.String()
	}
}

// goValue converts a Starlark scalar into a Go value for record rewriting.
func goValue(fn string, v starlark.Value) (interface{}, error) {
	switch v := v.(type) {
	case starlark.String:
		return string(v), nil
	case starlark.Int:
		i, ok := v.Int64()
		if !ok {
			return nil, fmt.Errorf("%s: integer out of range: %s", fn, v)
		}
		return i, nil
	case starlark.Float:
		return float64(v), nil
	case starlark.Bool:
		return bool(v), nil
	default:
		return nil, fmt.Errorf("%s: unsupported value type %s", fn, v.Type())
	}
}

// promoteType widens the series type when the fill value does not fit it.
func promoteType(t series.Type, fill interface{}) series.Type {
	switch fill.(type) {
	case string:
		return series.String
	case float64:
		if t == series.Int {
			return series.Float
		}
		return t
	case bool:
		if t != series.Bool {
			return series.String
		}
		return t
	default:
		return t
	}
}
