// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/ClusterCockpit/cc-lib/v2/schema"

	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/internal/obslog"
	"github.com/shdr-stream/obspipeline/pkg/observation"
)

// Pseudo data items recognized ahead of normal device-model resolution
// (§4.4).
const (
	pseudoAsset           = "@ASSET@"
	pseudoUpdateAsset     = "@UPDATE_ASSET@"
	pseudoRemoveAsset     = "@REMOVE_ASSET@"
	pseudoRemoveAllAssets = "@REMOVE_ALL_ASSETS@"
)

// Mapper resolves tokenized fields into typed observations (§4.4). It owns
// the "warned about this unknown id already" state, which is per-source
// since two sources may legitimately reference disjoint data-item sets.
type Mapper struct {
	model          devicemodel.DeviceModel
	upcaseEvents   bool
	warnedUnknown  map[string]bool
}

// NewMapper creates a Mapper bound to a resolved device model.
func NewMapper(model devicemodel.DeviceModel, upcaseEvents bool) *Mapper {
	return &Mapper{model: model, upcaseEvents: upcaseEvents, warnedUnknown: make(map[string]bool)}
}

// MapLine consumes every field in line, producing one observation per
// resolved field. Fields naming an unresolvable data item are skipped
// (logged at most once per id); the line itself never fails as a whole.
func (m *Mapper) MapLine(ts time.Time, duration *float64, ordinal uint64, fields []string) []*observation.Observation {
	var out []*observation.Observation
	pos := 0
	for pos < len(fields) {
		obs, consumed := m.mapField(ts, duration, ordinal, fields[pos:])
		if consumed == 0 {
			consumed = 1 // always make progress even on an unrecognized header
		}
		pos += consumed
		if obs != nil {
			out = append(out, obs)
		}
	}
	return out
}

// mapField consumes the leading field (and however many further tokens its
// representation requires) from remaining, returning the produced
// observation (nil if skipped) and the number of tokens consumed.
func (m *Mapper) mapField(ts time.Time, duration *float64, ordinal uint64, remaining []string) (*observation.Observation, int) {
	header := remaining[0]
	rest := remaining[1:]

	if cmd, consumed, ok := parseAssetPseudo(header, rest); ok {
		return &observation.Observation{
			Kind:           observation.KindAssetCommand,
			Timestamp:      ts,
			ArrivalOrdinal: ordinal,
			AssetCommand:   cmd,
		}, 1 + consumed
	}

	device, dataItemID := splitDeviceQualified(header)
	di, ok := m.model.Resolve(device, dataItemID)
	if !ok {
		if !m.warnedUnknown[dataItemID] {
			obslog.Warnf("[PIPELINE]> unknown data item %q, dropping field", dataItemID)
			m.warnedUnknown[dataItemID] = true
		}
		return nil, 1
	}

	base := observation.Observation{
		DataItemID:     di.ID,
		Device:         device,
		Timestamp:      ts,
		ArrivalOrdinal: ordinal,
		Properties:     observation.Properties{Duration: duration},
	}

	// The header token is consumed along with the value tokens that follow.
	obs, n := m.mapByRepresentation(base, di, rest)
	return obs, 1 + n
}

// mapByRepresentation maps the value tokens following a resolved header,
// returning the produced observation and the number of value tokens used.
func (m *Mapper) mapByRepresentation(base observation.Observation, di *observation.DataItem, rest []string) (*observation.Observation, int) {
	switch di.Category {
	case observation.CategoryCondition:
		return m.mapCondition(base, rest)
	}

	if di.Type == "MESSAGE" {
		return m.mapMessage(base, rest)
	}

	switch di.Representation {
	case observation.RepresentationTimeseries:
		return m.mapTimeseries(base, rest)
	case observation.RepresentationDataSet, observation.RepresentationTable:
		return m.mapDataSet(base, di, rest)
	default:
		return m.mapValue(base, di, rest)
	}
}

// splitDeviceQualified splits a "device_id:data_item_id" header, or returns
// ("", header) when no device qualifier is present (§4.4).
func splitDeviceQualified(header string) (device, dataItemID string) {
	if dev, id, ok := strings.Cut(header, ":"); ok {
		return dev, id
	}
	return "", header
}

func (m *Mapper) mapValue(base observation.Observation, di *observation.DataItem, rest []string) (*observation.Observation, int) {
	if len(rest) < 1 {
		return nil, 1
	}
	raw := rest[0]
	base.Kind = kindForCategory(di.Category)

	switch di.Category {
	case observation.CategoryEvent:
		s := raw
		if m.upcaseEvents {
			s = strings.ToUpper(s)
		}
		base.Value = observation.StringValue(s)
	default:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			base.Value = observation.Unavailable
		} else {
			base.Value = observation.DoubleValue(schema.Float(f))
		}
	}
	o := base
	return &o, 1
}

func (m *Mapper) mapTimeseries(base observation.Observation, rest []string) (*observation.Observation, int) {
	if len(rest) < 3 {
		return nil, len(rest)
	}
	count, _ := strconv.Atoi(rest[0])
	rate, _ := strconv.ParseFloat(rest[1], 64)
	values := parseFloatList(rest[2])

	base.Kind = observation.KindTimeseries
	base.Value = observation.VectorValue(toSchemaFloats(values))
	base.Timeseries = &observation.TimeseriesPayload{Count: count, SampleRate: rate, Values: values}
	o := base
	return &o, 3
}

func (m *Mapper) mapDataSet(base observation.Observation, di *observation.DataItem, rest []string) (*observation.Observation, int) {
	if len(rest) < 1 {
		return nil, 1
	}
	blob := rest[0]
	base.Kind = observation.KindDataSet
	if strings.TrimSpace(blob) == "" {
		base.Properties.ResetTriggered = true
		base.Value = observation.DataSetValue(nil)
		o := base
		return &o, 1
	}

	var entries []observation.DataSetEntry
	for _, kv := range strings.Fields(blob) {
		key, value, _ := strings.Cut(kv, "=")
		removed := strings.HasPrefix(key, ":")
		entries = append(entries, observation.DataSetEntry{
			Key:     strings.TrimPrefix(key, ":"),
			Value:   value,
			Removed: removed,
		})
	}
	base.Value = observation.DataSetValue(entries)
	o := base
	return &o, 1
}

// mapMessage consumes the two tokens a Message field carries: native-code,
// then free text (§4.4).
func (m *Mapper) mapMessage(base observation.Observation, rest []string) (*observation.Observation, int) {
	n := len(rest)
	if n > 2 {
		n = 2
	}
	var nativeCode, text string
	if n > 0 {
		nativeCode = rest[0]
	}
	if n > 1 {
		text = rest[1]
	}
	base.Kind = observation.KindMessage
	base.Properties.NativeCode = nativeCode
	base.Value = observation.StringValue(text)
	o := base
	return &o, n
}

func (m *Mapper) mapCondition(base observation.Observation, rest []string) (*observation.Observation, int) {
	fields := [5]string{}
	n := len(rest)
	if n > 5 {
		n = 5
	}
	copy(fields[:], rest[:n])

	base.Kind = observation.KindCondition
	base.Properties.NativeCode = fields[1]
	base.Properties.Severity = fields[2]
	base.Properties.Qualifier = fields[3]
	base.Value = observation.StringValue(fields[4])
	o := base
	o.Condition = &observation.ConditionPayload{Level: conditionLevelFromToken(fields[0]), NativeCode: fields[1]}
	return &o, n
}

func conditionLevelFromToken(s string) observation.ConditionLevel {
	switch strings.ToUpper(s) {
	case "WARNING":
		return observation.ConditionWarning
	case "FAULT":
		return observation.ConditionFault
	case "UNAVAILABLE":
		return observation.ConditionUnavailable
	default:
		return observation.ConditionNormal
	}
}

func kindForCategory(c observation.Category) observation.Kind {
	switch c {
	case observation.CategoryEvent:
		return observation.KindEvent
	case observation.CategoryCondition:
		return observation.KindCondition
	default:
		return observation.KindSample
	}
}

func parseFloatList(blob string) []float64 {
	parts := strings.Fields(blob)
	out := make([]float64, 0, len(parts))
	for _, p := range parts {
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			f = 0
		}
		out = append(out, f)
	}
	return out
}

func toSchemaFloats(in []float64) []schema.Float {
	out := make([]schema.Float, len(in))
	for i, v := range in {
		out[i] = schema.Float(v)
	}
	return out
}

// parseAssetPseudo recognizes the four pseudo-data-items named in §4.4.
// header is the candidate data-item token, rest the remaining line tokens.
func parseAssetPseudo(header string, rest []string) (*observation.AssetCommandPayload, int, bool) {
	switch header {
	case pseudoAsset, pseudoUpdateAsset:
		cmd := observation.AssetAdd
		if header == pseudoUpdateAsset {
			cmd = observation.AssetUpdate
		}
		var assetID, typ, body string
		if len(rest) > 0 {
			assetID = rest[0]
		}
		if len(rest) > 1 {
			typ = rest[1]
		}
		if len(rest) > 2 {
			body = strings.Join(rest[2:], "|")
		}
		return &observation.AssetCommandPayload{Command: cmd, AssetID: assetID, Type: typ, Body: body}, min(len(rest), 3), true
	case pseudoRemoveAsset:
		var assetID string
		if len(rest) > 0 {
			assetID = rest[0]
		}
		return &observation.AssetCommandPayload{Command: observation.AssetRemove, AssetID: assetID}, min(len(rest), 1), true
	case pseudoRemoveAllAssets:
		return &observation.AssetCommandPayload{Command: observation.AssetRemoveAll}, 0, true
	default:
		return nil, 0, false
	}
}
