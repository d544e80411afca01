// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package devicemodel provides a minimal reference implementation of the
// DeviceModel collaborator named in §6: "resolve(device_id?, data_item_id)
// -> DataItem?" plus iteration over all DataItems. XML loading and entity
// schema validation are explicitly out of scope (§1) — this package only
// ever loads a flat YAML description, enough to run the pipeline end to
// end against a known set of data items.
package devicemodel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shdr-stream/obspipeline/pkg/observation"
)

// DeviceModel is the collaborator interface consumed by the token mapper
// (§6) and the filter-initialization pass over all DataItems (§3).
type DeviceModel interface {
	Resolve(deviceID, dataItemID string) (*observation.DataItem, bool)
	DefaultDevice() string
	All() []*observation.DataItem
}

// dataItemSpec is the YAML shape for one data item entry.
type dataItemSpec struct {
	ID              string  `yaml:"id"`
	Name            string  `yaml:"name"`
	Category        string  `yaml:"category"`
	Type            string  `yaml:"type"`
	SubType         string  `yaml:"subType"`
	Units           string  `yaml:"units"`
	NativeUnits     string  `yaml:"nativeUnits"`
	NativeScale     *float64 `yaml:"nativeScale"`
	FilterPeriod    *float64 `yaml:"filterPeriod"`
	MinimumDelta    *float64 `yaml:"minimumDelta"`
	Representation  string  `yaml:"representation"`
	Discrete        bool    `yaml:"discrete"`
}

// deviceSpec is one device's worth of data items plus its own id, which
// doubles as the default device for unqualified field references.
type deviceSpec struct {
	ID        string         `yaml:"id"`
	DataItems []dataItemSpec `yaml:"dataItems"`
}

// documentSpec is the top-level YAML document shape.
type documentSpec struct {
	DefaultDevice string       `yaml:"defaultDevice"`
	Devices       []deviceSpec `yaml:"devices"`
}

// staticModel is an in-memory DeviceModel built once from YAML and never
// mutated afterward (design note §9: "Global static registries ...
// construct once at startup behind an initialization barrier; thereafter
// read-only").
type staticModel struct {
	defaultDevice string
	byDevice      map[string]map[string]*observation.DataItem
	all           []*observation.DataItem
}

func (m *staticModel) Resolve(deviceID, dataItemID string) (*observation.DataItem, bool) {
	dev := deviceID
	if dev == "" {
		dev = m.defaultDevice
	}
	items, ok := m.byDevice[dev]
	if !ok {
		return nil, false
	}
	di, ok := items[dataItemID]
	return di, ok
}

func (m *staticModel) DefaultDevice() string { return m.defaultDevice }

func (m *staticModel) All() []*observation.DataItem { return m.all }

func category(s string) observation.Category {
	switch s {
	case "EVENT":
		return observation.CategoryEvent
	case "CONDITION":
		return observation.CategoryCondition
	default:
		return observation.CategorySample
	}
}

func representation(s string) observation.Representation {
	switch s {
	case "TIMESERIES":
		return observation.RepresentationTimeseries
	case "DATA_SET":
		return observation.RepresentationDataSet
	case "TABLE":
		return observation.RepresentationTable
	default:
		return observation.RepresentationValue
	}
}

// Load parses a YAML device-model document from path and builds the
// read-only lookup tables Resolve/All serve.
func Load(path string) (DeviceModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[DEVICEMODEL]> reading %s: %w", path, err)
	}
	var doc documentSpec
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("[DEVICEMODEL]> parsing %s: %w", path, err)
	}
	return build(doc), nil
}

func build(doc documentSpec) *staticModel {
	m := &staticModel{
		defaultDevice: doc.DefaultDevice,
		byDevice:      make(map[string]map[string]*observation.DataItem),
	}
	for _, dev := range doc.Devices {
		items := make(map[string]*observation.DataItem, len(dev.DataItems))
		for _, spec := range dev.DataItems {
			di := &observation.DataItem{
				ID:             spec.ID,
				Name:           spec.Name,
				Category:       category(spec.Category),
				Type:           spec.Type,
				SubType:        spec.SubType,
				Units:          spec.Units,
				NativeUnits:    spec.NativeUnits,
				Representation: representation(spec.Representation),
				Discrete:       spec.Discrete,
			}
			if spec.NativeScale != nil {
				di.HasNativeScale = true
				di.NativeScale = *spec.NativeScale
			}
			if spec.FilterPeriod != nil {
				di.HasFilterPeriod = true
				di.FilterPeriod = *spec.FilterPeriod
			}
			if spec.MinimumDelta != nil {
				di.HasMinimumDelta = true
				di.MinimumDelta = *spec.MinimumDelta
			}
			items[di.ID] = di
			m.all = append(m.all, di)
		}
		m.byDevice[dev.ID] = items
	}
	if m.defaultDevice == "" && len(doc.Devices) == 1 {
		m.defaultDevice = doc.Devices[0].ID
	}
	return m
}
