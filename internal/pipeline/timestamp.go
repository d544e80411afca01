// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"strconv"
	"strings"
	"time"
)

// timestampLayout is the wire format's ISO-8601 variant (§4.3, §6).
const timestampLayout = "2006-01-02T15:04:05.999999Z"

// TimestampExtractor normalizes the first token of an SHDR line into a
// timestamp plus a measurement duration, and assigns the arrival-ordinal
// tiebreaker (§4.3). One instance is owned per source strand, since
// relative-time base pinning is per-source state.
type TimestampExtractor struct {
	relative bool
	now      func() time.Time

	haveBase   bool
	baseWall   time.Time
	baseOffset float64
	lastOffset float64

	arrivalOrdinal uint64
	lastTimestamp  time.Time
}

// NewTimestampExtractor creates an extractor. relative selects §4.3's
// Relative mode; now is injectable for deterministic tests and defaults to
// time.Now.
func NewTimestampExtractor(relative bool, now func() time.Time) *TimestampExtractor {
	if now == nil {
		now = time.Now
	}
	return &TimestampExtractor{relative: relative, now: now}
}

// Extract parses token (the tokenizer's TimestampToken) into a timestamp,
// an optional duration, and this call's arrival ordinal.
func (e *TimestampExtractor) Extract(token string) (ts time.Time, duration *float64, ordinal uint64) {
	if token == "" {
		ts = e.now()
		ordinal = e.nextOrdinal(ts)
		return ts, nil, ordinal
	}

	body, durStr, hasDur := strings.Cut(token, "@")
	if hasDur {
		if d, err := strconv.ParseFloat(durStr, 64); err == nil {
			duration = &d
		}
	}

	if e.relative {
		offset, err := strconv.ParseFloat(body, 64)
		if err != nil {
			ts = e.now()
			ordinal = e.nextOrdinal(ts)
			return ts, duration, ordinal
		}
		if !e.haveBase || offset < e.lastOffset {
			e.baseWall = e.now()
			e.haveBase = true
			// The first (or a reset) offset defines the new zero point: the
			// wall clock at this instant corresponds to this offset. Every
			// subsequent timestamp accumulates from this pinned offset, not
			// from whatever offset was last seen (§4.3: base_wall = now -
			// offset_0, ts_i = base_wall + offset_i).
			e.baseOffset = offset
			e.lastOffset = offset
			ts = e.baseWall
			ordinal = e.nextOrdinal(ts)
			return ts, duration, ordinal
		}
		ts = e.baseWall.Add(time.Duration((offset - e.baseOffset) * float64(time.Second)))
		e.lastOffset = offset
		ordinal = e.nextOrdinal(ts)
		return ts, duration, ordinal
	}

	parsed, err := time.Parse(timestampLayout, body)
	if err != nil {
		ts = e.now()
		ordinal = e.nextOrdinal(ts)
		return ts, duration, ordinal
	}
	ts = parsed
	ordinal = e.nextOrdinal(ts)
	return ts, duration, ordinal
}

// nextOrdinal assigns a strictly increasing arrival ordinal, reset to 0 only
// conceptually at process start; it is the tiebreaker for two observations
// sharing an identical timestamp (§4.3).
func (e *TimestampExtractor) nextOrdinal(ts time.Time) uint64 {
	e.arrivalOrdinal++
	e.lastTimestamp = ts
	return e.arrivalOrdinal
}
