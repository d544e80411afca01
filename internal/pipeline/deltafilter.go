// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"math"

	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/pkg/observation"
)

// DeltaFilter drops samples whose numeric change since the last delivered
// value is below the data item's declared minimumDelta (§4.7).
type DeltaFilter struct {
	model devicemodel.DeviceModel
	last  map[string]float64
	seen  map[string]bool
}

// NewDeltaFilter creates a filter.
func NewDeltaFilter(model devicemodel.DeviceModel) *DeltaFilter {
	return &DeltaFilter{model: model, last: make(map[string]float64), seen: make(map[string]bool)}
}

// Guard RUNs only for Sample observations carrying a double value whose
// data item declares minimumDelta > 0.
func (f *DeltaFilter) Guard(obs *observation.Observation) Verdict {
	if obs.Kind != observation.KindSample || obs.Value.Kind != observation.ValueDouble {
		return SKIP
	}
	di, ok := f.model.Resolve(obs.Device, obs.DataItemID)
	if !ok || !di.HasMinimumDelta || di.MinimumDelta <= 0 {
		return SKIP
	}
	return RUN
}

// Apply drops obs when |new - last| < minimumDelta, updating last on
// acceptance (§4.7, §8).
func (f *DeltaFilter) Apply(obs *observation.Observation) (*observation.Observation, error) {
	di, _ := f.model.Resolve(obs.Device, obs.DataItemID)
	v := float64(obs.Value.Double)

	if math.IsNaN(v) {
		f.last[obs.DataItemID] = v
		f.seen[obs.DataItemID] = true
		return obs, nil
	}

	if f.seen[obs.DataItemID] {
		last := f.last[obs.DataItemID]
		if !math.IsNaN(last) && math.Abs(v-last) < di.MinimumDelta {
			return nil, nil
		}
	}
	f.last[obs.DataItemID] = v
	f.seen[obs.DataItemID] = true
	return obs, nil
}
