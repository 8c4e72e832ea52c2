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

package pipeline

import (
	"time"

	"github.com/tidyops/scrub/internal/log"
)

// EventListener observes stage transitions for incremental rendering.
// Callbacks run synchronously on the run's goroutine; a slow listener
// slows the run.
type EventListener interface {
	OnStageStart(stage Stage)
	OnStageEnd(stage Stage, rec StageRecord)
}

// NopListener discards all events.
type NopListener struct{}

func (NopListener) OnStageStart(Stage)            {}
func (NopListener) OnStageEnd(Stage, StageRecord) {}

// LogListener streams stage transitions through the package logger; the
// default for CLI embeddings.
type LogListener struct{}

func (LogListener) OnStageStart(stage Stage) {
	log.Info("stage %s started", stage)
}

func (LogListener) OnStageEnd(stage Stage, rec StageRecord) {
	if rec.Status == statusOK {
		log.Info("stage %s finished in %s", stage, rec.EndedAt.Sub(rec.StartedAt).Round(time.Millisecond))
		return
	}
	log.Error("stage %s failed: %s", stage, rec.Error)
}
