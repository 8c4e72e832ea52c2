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

// Package dataset loads delimited tables and summarizes them. The summary
// is rendered as plain text and fed verbatim to the oracle, so the layout
// here is part of the prompt surface.
package dataset

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/pkg/errors"
)

// Load reads a CSV file (header row, types auto-detected) into a dataframe.
func Load(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, errors.Wrap(err, "open dataset")
	}
	defer f.Close()

	df := dataframe.ReadCSV(f, dataframe.HasHeader(true), dataframe.DetectTypes(true))
	if df.Err != nil {
		return dataframe.DataFrame{}, errors.Wrapf(df.Err, "parse CSV %s", path)
	}
	return df, nil
}

// ColumnProfile describes one column of the input table.
type ColumnProfile struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	MissingPct float64 `json:"missing_pct"`
}

// Profile is the structured summary of a dataset plus its plain-text
// rendering.
type Profile struct {
	Rows    int                    `json:"rows"`
	Cols    int                    `json:"cols"`
	Columns []ColumnProfile        `json:"columns"`
	Stats   map[string][]StatValue `json:"stats"`
	Text    string                 `json:"text"`
}

// StatValue is one descriptive statistic for one column.
type StatValue struct {
	Stat  string `json:"stat"`
	Value string `json:"value"`
}

// Build computes shape, per-column type, missing-value percentage and
// descriptive statistics for df, then renders the plain-text summary.
func Build(df dataframe.DataFrame) Profile {
	rows, cols := df.Dims()
	p := Profile{
		Rows:  rows,
		Cols:  cols,
		Stats: make(map[string][]StatValue, cols),
	}

	names := df.Names()
	types := df.Types()
	for i, name := range names {
		p.Columns = append(p.Columns, ColumnProfile{
			Name:       name,
			Type:       string(types[i]),
			MissingPct: missingPct(df.Col(name), rows),
		})
	}

	desc := df.Describe()
	if desc.Err == nil {
		records := desc.Records()
		if len(records) > 1 {
			header := records[0] // "column", then the original column names
			for _, row := range records[1:] {
				stat := row[0]
				for j := 1; j < len(row) && j < len(header); j++ {
					v := row[j]
					if v == "" || v == "NaN" {
						continue
					}
					col := header[j]
					p.Stats[col] = append(p.Stats[col], StatValue{Stat: stat, Value: v})
				}
			}
		}
	}

	p.Text = render(p)
	return p
}

func missingPct(s series.Series, rows int) float64 {
	if rows == 0 {
		return 0
	}
	missing := 0
	for i := 0; i < s.Len(); i++ {
		e := s.Elem(i)
		if e.IsNA() || strings.TrimSpace(e.String()) == "" {
			missing++
		}
	}
	return float64(missing) / float64(rows) * 100
}

// render follows the layout of the summary the planning prompt was tuned
// against: shape line, per-column dtype and missing %, then a statistics
// block.
func render(p Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dataset Shape: %d rows × %d columns\n\n", p.Rows, p.Cols)

	b.WriteString("Column Types & Missing %:\n")
	for _, c := range p.Columns {
		fmt.Fprintf(&b, "  - %s: dtype=%s, missing=%.2f%%\n", c.Name, c.Type, c.MissingPct)
	}

	b.WriteString("\nBasic Statistics:\n")
	for _, c := range p.Columns {
		stats := p.Stats[c.Name]
		if len(stats) == 0 {
			continue
		}
		pairs := make([]string, 0, len(stats))
		for _, sv := range stats {
			pairs = append(pairs, fmt.Sprintf("%s=%s", sv.Stat, sv.Value))
		}
		fmt.Fprintf(&b, "  %s: %s\n", c.Name, strings.Join(pairs, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// Sample renders the first n data rows as "col=value" lines, used when
// asking the oracle for feature suggestions on the cleaned table.
func Sample(df dataframe.DataFrame, n int) string {
	records := df.Records()
	if len(records) < 2 {
		return "(no rows)"
	}
	header := records[0]
	var b strings.Builder
	for i, row := range records[1:] {
		if i >= n {
			break
		}
		pairs := make([]string, 0, len(row))
		for j, v := range row {
			if j < len(header) {
				pairs = append(pairs, fmt.Sprintf("%s=%s", header[j], v))
			}
		}
		fmt.Fprintf(&b, "  row %d: %s\n", i, strings.Join(pairs, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}
