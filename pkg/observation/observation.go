// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package observation

import "time"

// Kind is the observation's variant discriminant. Transform next-maps are
// keyed by Kind (§4.1); the pipeline assembly binds every Kind to the same
// successor, so each transform's guard is what skips the Kinds it does not
// handle (e.g. a Sample-only transform SKIPs Event observations).
type Kind int

const (
	KindSample Kind = iota
	KindEvent
	KindCondition
	KindMessage
	KindDataSet
	KindTimeseries
	KindAssetCommand
)

func (k Kind) String() string {
	switch k {
	case KindSample:
		return "Sample"
	case KindEvent:
		return "Event"
	case KindCondition:
		return "Condition"
	case KindMessage:
		return "Message"
	case KindDataSet:
		return "DataSet"
	case KindTimeseries:
		return "Timeseries"
	case KindAssetCommand:
		return "AssetCommand"
	default:
		return "Unknown"
	}
}

// Properties carries the optional per-observation metadata named in §3's
// Observation row: subType/nativeCode/qualifier/severity come from Condition
// and Message fields, resetTriggered from DataSet resets and the duplicate
// filter override, and Duration from the '@<duration>' timestamp suffix.
type Properties struct {
	SubType        string
	NativeCode     string
	Qualifier      string
	Severity       string
	ResetTriggered bool
	Duration       *float64
}

// TimeseriesPayload is the Timeseries-specific payload (§4.4): a vector of
// samples taken at SampleRate Hz, Count of which are meaningful.
type TimeseriesPayload struct {
	Count      int
	SampleRate float64
	Values     []float64
}

// AssetCommandKind distinguishes the four pseudo-data-item asset operations
// recognized by the token mapper (§4.4).
type AssetCommandKind int

const (
	AssetAdd AssetCommandKind = iota
	AssetUpdate
	AssetRemove
	AssetRemoveAll
)

// AssetCommandPayload is the AssetCommand-specific payload. AssetCommand
// entities are skipped by every §§4.5-4.8 filter guard and are delivered
// into the ring buffer like any other observation; no asset store consumes
// them in this repository.
type AssetCommandPayload struct {
	Command AssetCommandKind
	AssetID string
	Type    string
	Body    string
}

// Observation is the tagged-variant entity that flows through the pipeline.
// It carries a shared header (DataItemID, Timestamp, Sequence, Properties)
// plus exactly one populated variant payload selected by Kind, per design
// note §9.
//
// Sequence is assigned exactly once, by the sequencer (§4.10), and is zero
// for any observation still in flight through §§4.2-4.9.
type Observation struct {
	Kind       Kind
	DataItemID string
	Device     string
	Timestamp  time.Time

	// ArrivalOrdinal is the tiebreaker assigned by the timestamp extractor
	// (§4.3) for observations sharing an identical Timestamp.
	ArrivalOrdinal uint64

	// Sequence is the globally monotonic identifier assigned at delivery
	// (§4.10). Zero means "not yet delivered".
	Sequence uint64

	Value      Value
	Properties Properties

	Condition    *ConditionPayload
	Timeseries   *TimeseriesPayload
	AssetCommand *AssetCommandPayload
}

// Unavailable reports whether this observation's value is the canonical
// UNAVAILABLE marker, or (for Condition) its level is Unavailable.
func (o *Observation) Unavailable() bool {
	if o.Kind == KindCondition && o.Condition != nil {
		return o.Condition.Level == ConditionUnavailable
	}
	return o.Value.Kind == ValueUnavailable
}

// Clone returns a shallow copy of o safe to mutate independently; transforms
// that alter a value (unit conversion, upcasing) must clone rather than
// mutate the entity handed to them, since earlier stages may still hold a
// reference to it (e.g. for diagnostics).
func (o *Observation) Clone() *Observation {
	c := *o
	return &c
}
