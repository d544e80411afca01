// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package observation

// Category classifies a DataItem the way the wire protocol and the token
// mapper need to: it decides which transforms a field may flow through.
type Category int

const (
	CategorySample Category = iota
	CategoryEvent
	CategoryCondition
)

func (c Category) String() string {
	switch c {
	case CategorySample:
		return "SAMPLE"
	case CategoryEvent:
		return "EVENT"
	case CategoryCondition:
		return "CONDITION"
	default:
		return "UNKNOWN"
	}
}

// Representation decides how many wire tokens a field consumes (§4.4).
type Representation int

const (
	RepresentationValue Representation = iota
	RepresentationTimeseries
	RepresentationDataSet
	RepresentationTable
)

// DataItem is the immutable, device-model-owned descriptor resolved by the
// token mapper for every field in an SHDR line. The core only ever holds
// read-only references to these; DataItem.ID is unique within a process for
// the lifetime of the device model that created it (§3).
type DataItem struct {
	ID             string
	Name           string
	Category       Category
	Type           string
	SubType        string
	Units          string
	NativeUnits    string
	HasNativeScale bool
	NativeScale    float64
	HasFilterPeriod bool
	FilterPeriod    float64 // seconds
	HasMinimumDelta bool
	MinimumDelta    float64
	Representation  Representation

	// Discrete data items never participate in the duplicate filter even
	// when FilterDuplicates is enabled globally — this mirrors the
	// "discrete" attribute of the original wire protocol's data items.
	Discrete bool
}

// NeedsConversion reports whether the unit converter (§4.5) must run for
// this data item: it is a no-op transform whenever NativeUnits == Units.
func (d *DataItem) NeedsConversion() bool {
	return d.NativeUnits != "" && d.NativeUnits != d.Units
}
