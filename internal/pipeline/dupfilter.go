// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/pkg/observation"
)

// DuplicateFilter drops observations structurally equal to the last
// delivered value for the same data item (§4.6). It is private per-source
// state (§5): no locking, since a source's transforms all run on its own
// strand.
type DuplicateFilter struct {
	model   devicemodel.DeviceModel
	enabled bool
	last    map[string]observation.Value
}

// NewDuplicateFilter creates a filter. enabled mirrors FilterDuplicates
// (§6); Discrete data items always bypass the filter regardless.
func NewDuplicateFilter(model devicemodel.DeviceModel, enabled bool) *DuplicateFilter {
	return &DuplicateFilter{model: model, enabled: enabled, last: make(map[string]observation.Value)}
}

// Guard RUNs only for eligible Sample/Event/DataSet observations; Condition
// and AssetCommand entities bypass duplicate filtering entirely, since they
// have their own chain/reset semantics.
func (f *DuplicateFilter) Guard(obs *observation.Observation) Verdict {
	if !f.enabled {
		return SKIP
	}
	switch obs.Kind {
	case observation.KindSample, observation.KindEvent, observation.KindDataSet:
	default:
		return SKIP
	}
	if di, ok := f.model.Resolve(obs.Device, obs.DataItemID); ok && di.Discrete {
		return SKIP
	}
	return RUN
}

// Apply drops obs (returns nil, nil) iff its value equals the last recorded
// value for its data item and resetTriggered is not set (§4.6, §8).
func (f *DuplicateFilter) Apply(obs *observation.Observation) (*observation.Observation, error) {
	last, seen := f.last[obs.DataItemID]
	if seen && !obs.Properties.ResetTriggered && last.Equal(obs.Value) {
		return nil, nil
	}
	f.last[obs.DataItemID] = obs.Value
	return obs, nil
}
