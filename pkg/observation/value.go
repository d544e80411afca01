// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package observation defines the tagged-variant observation model shared by
// every pipeline transform: Sample, Event, Condition, Message, DataSet,
// Timeseries and AssetCommand all share the same Observation header and
// differ only in their Value / payload fields.
package observation

import (
	"math"

	"github.com/ClusterCockpit/cc-lib/v2/schema"
)

// ValueKind discriminates the shape of an observation's value.
type ValueKind int

const (
	ValueUnavailable ValueKind = iota
	ValueString
	ValueInt64
	ValueDouble
	ValueVector
	ValueDataSet
)

func (k ValueKind) String() string {
	switch k {
	case ValueUnavailable:
		return "UNAVAILABLE"
	case ValueString:
		return "string"
	case ValueInt64:
		return "int64"
	case ValueDouble:
		return "double"
	case ValueVector:
		return "vector"
	case ValueDataSet:
		return "dataset"
	default:
		return "invalid"
	}
}

// DataSetEntry is one key/value pair of a DataSet or Table representation.
// Removed marks keys that arrived prefixed with ':' (§4.4) and should be
// subtracted from the data item's accumulated set rather than merged in.
type DataSetEntry struct {
	Key     string
	Value   string
	Removed bool
}

// Value is the tagged union carried by every Observation. Exactly one of the
// fields below is meaningful, selected by Kind.
type Value struct {
	Kind    ValueKind
	Str     string
	Int     int64
	Double  schema.Float
	Vector  []schema.Float
	DataSet []DataSetEntry
}

// Unavailable is the canonical UNAVAILABLE value (§7, ValueParseError policy).
var Unavailable = Value{Kind: ValueUnavailable}

func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

func Int64Value(i int64) Value { return Value{Kind: ValueInt64, Int: i} }

func DoubleValue(f schema.Float) Value { return Value{Kind: ValueDouble, Double: f} }

func VectorValue(v []schema.Float) Value { return Value{Kind: ValueVector, Vector: v} }

func DataSetValue(entries []DataSetEntry) Value { return Value{Kind: ValueDataSet, DataSet: entries} }

// Equal implements the structural equality rule used by the duplicate filter
// (§4.6, §8 invariant, and the NaN Open Question resolved in SPEC_FULL.md):
// strings compare byte-for-byte, doubles compare bitwise (so NaN never
// equals anything, including itself), vectors compare element-wise, and
// data-sets compare by key-set and per-key value. UNAVAILABLE values are
// never considered equal to anything so they are always forwarded.
func (v Value) Equal(o Value) bool {
	if v.Kind == ValueUnavailable || o.Kind == ValueUnavailable {
		return false
	}
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case ValueString:
		return v.Str == o.Str
	case ValueInt64:
		return v.Int == o.Int
	case ValueDouble:
		return bitwiseEqual(float64(v.Double), float64(o.Double))
	case ValueVector:
		if len(v.Vector) != len(o.Vector) {
			return false
		}
		for i := range v.Vector {
			if !bitwiseEqual(float64(v.Vector[i]), float64(o.Vector[i])) {
				return false
			}
		}
		return true
	case ValueDataSet:
		return dataSetEqual(v.DataSet, o.DataSet)
	default:
		return false
	}
}

func bitwiseEqual(a, b float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return false
	}
	return math.Float64bits(a) == math.Float64bits(b)
}

func dataSetEqual(a, b []DataSetEntry) bool {
	if len(a) != len(b) {
		return false
	}
	idx := make(map[string]DataSetEntry, len(a))
	for _, e := range a {
		idx[e.Key] = e
	}
	for _, e := range b {
		match, ok := idx[e.Key]
		if !ok || match.Removed != e.Removed || match.Value != e.Value {
			return false
		}
	}
	return true
}
