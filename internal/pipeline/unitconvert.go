// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/ClusterCockpit/cc-lib/v2/schema"

	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/internal/obslog"
	"github.com/shdr-stream/obspipeline/pkg/observation"
	"github.com/shdr-stream/obspipeline/pkg/units"
)

// UnitConverter wraps pkg/units, applying the nativeUnits->units conversion
// only where DataItem.NeedsConversion() (§4.5). A native scale, when
// declared, divides after the unit conversion.
type UnitConverter struct {
	model   devicemodel.DeviceModel
	enabled bool

	warnedPairs map[string]bool
}

// NewUnitConverter creates a converter. enabled mirrors the
// ConversionRequired config option (§6); when false the transform always
// SKIPs.
func NewUnitConverter(model devicemodel.DeviceModel, enabled bool) *UnitConverter {
	return &UnitConverter{model: model, enabled: enabled, warnedPairs: make(map[string]bool)}
}

// Guard implements the RUN/SKIP decision: only Sample/Timeseries
// observations for a data item that declares differing native/canonical
// units, with conversion enabled, ever RUN.
func (c *UnitConverter) Guard(obs *observation.Observation) Verdict {
	if !c.enabled {
		return SKIP
	}
	if obs.Kind != observation.KindSample && obs.Kind != observation.KindTimeseries {
		return SKIP
	}
	di, ok := c.model.Resolve(obs.Device, obs.DataItemID)
	if !ok || !di.NeedsConversion() {
		return SKIP
	}
	return RUN
}

// Apply performs the conversion (§4.5, §7 ConversionError policy: on
// failure, forward the unconverted value and log once per unit pair).
func (c *UnitConverter) Apply(obs *observation.Observation) (*observation.Observation, error) {
	di, ok := c.model.Resolve(obs.Device, obs.DataItemID)
	if !ok {
		return obs, nil
	}

	out := obs.Clone()
	switch obs.Kind {
	case observation.KindTimeseries:
		converted, err := units.ConvertVector(obs.Timeseries.Values, di.NativeUnits, di.Units)
		if err != nil {
			c.warnOnce(di.NativeUnits, di.Units, err)
			return out, nil
		}
		if di.HasNativeScale && di.NativeScale != 0 {
			for i := range converted {
				converted[i] /= di.NativeScale
			}
		}
		payload := *obs.Timeseries
		payload.Values = converted
		out.Timeseries = &payload
		out.Value = observation.VectorValue(toSchemaFloats(converted))
		return out, nil
	default:
		if obs.Value.Kind != observation.ValueDouble {
			return out, nil
		}
		converted, err := units.Convert(float64(obs.Value.Double), di.NativeUnits, di.Units)
		if err != nil {
			c.warnOnce(di.NativeUnits, di.Units, err)
			return out, nil
		}
		if di.HasNativeScale && di.NativeScale != 0 {
			converted /= di.NativeScale
		}
		out.Value = observation.DoubleValue(schema.Float(converted))
		return out, nil
	}
}

func (c *UnitConverter) warnOnce(from, to string, err error) {
	key := from + "->" + to
	if c.warnedPairs[key] {
		return
	}
	c.warnedPairs[key] = true
	obslog.Warnf("[PIPELINE]> unit conversion %s: %v", key, err)
}
