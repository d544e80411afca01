// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"time"

	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/internal/obslog"
	"github.com/shdr-stream/obspipeline/pkg/observation"
)

// periodState is the per-data-item bucket-at-end state described in §4.8,
// grounded line-for-line on PeriodFilter::LastObservation in
// pipeline/period_filter.hpp.
type periodState struct {
	lastTimestamp time.Time
	pending       *observation.Observation
	period        time.Duration
	delta         time.Duration
	timer         *time.Timer
}

// PeriodFilter rate-limits observations per data item to at most one per
// configured period, delivering the most recent within-period observation
// either immediately or, when it must be delayed, via a timer continuation
// posted back onto the owning source's Strand (§4.8, §5).
//
// Forward is called for observations this filter delivers outside the
// normal synchronous Apply return path: the immediate pending flush of case
// 4 and the timer-fired delivery. It must be wired to this filter's
// downstream Transform by the pipeline assembly.
type PeriodFilter struct {
	model  devicemodel.DeviceModel
	strand *Strand
	Forward func(*observation.Observation)

	states map[string]*periodState
}

// NewPeriodFilter creates a filter bound to strand for timer continuations.
func NewPeriodFilter(model devicemodel.DeviceModel, strand *Strand) *PeriodFilter {
	return &PeriodFilter{model: model, strand: strand, states: make(map[string]*periodState)}
}

// Guard RUNs only for Sample/Event observations whose data item declares a
// filterPeriod.
func (f *PeriodFilter) Guard(obs *observation.Observation) Verdict {
	if obs.Kind != observation.KindSample && obs.Kind != observation.KindEvent {
		return SKIP
	}
	di, ok := f.model.Resolve(obs.Device, obs.DataItemID)
	if !ok || !di.HasFilterPeriod || di.FilterPeriod <= 0 {
		return SKIP
	}
	return RUN
}

// Apply implements the four cases of §4.8. Unavailable observations clear
// all state for their data item (§4.8's last sentence) and are always
// forwarded.
func (f *PeriodFilter) Apply(obs *observation.Observation) (*observation.Observation, error) {
	id := obs.DataItemID

	if obs.Unavailable() {
		if st := f.states[id]; st != nil && st.timer != nil {
			st.timer.Stop()
		}
		delete(f.states, id)
		return obs, nil
	}

	st, ok := f.states[id]
	if !ok {
		di, _ := f.model.Resolve(obs.Device, obs.DataItemID)
		st = &periodState{period: time.Duration(di.FilterPeriod * float64(time.Second))}
		f.states[id] = st
	}

	delta := obs.Timestamp.Sub(st.lastTimestamp)

	switch {
	case delta >= 0 && delta < st.period:
		// Case 2: within the current period -- store as pending and (re)arm,
		// unless something was already pending (the timer is already armed
		// for the same period end).
		hadPending := st.pending != nil
		st.pending = obs
		st.delta = st.period - delta
		if !hadPending {
			f.armTimer(id, st)
		}
		return nil, nil

	case st.pending != nil && delta >= st.period && delta < st.period*2:
		// Case 3: swap -- the old pending goes onward now, obs becomes pending.
		old := st.pending
		st.pending = obs
		st.lastTimestamp = old.Timestamp.Add(st.delta)
		st.delta = st.period*2 - delta
		f.armTimer(id, st)
		return old, nil

	default:
		// Case 4 (or the very first observation past an elapsed period):
		// flush any pending immediately, then let obs flow through normally.
		if st.pending != nil {
			if st.timer != nil {
				st.timer.Stop()
			}
			flushed := st.pending
			st.pending = nil
			if f.Forward != nil {
				f.Forward(flushed)
			}
		}
		st.lastTimestamp = obs.Timestamp
		return obs, nil
	}
}

func (f *PeriodFilter) armTimer(id string, st *periodState) {
	if st.timer != nil {
		st.timer.Stop()
	}
	st.timer = time.AfterFunc(st.delta, func() {
		f.strand.Post(func() { f.fireTimer(id) })
	})
}

// fireTimer implements PeriodFilter::sendObservation: deliver the pending
// observation and advance last_ts by delta from its own timestamp. Runs on
// the owning strand, so it never races with Apply (§5).
func (f *PeriodFilter) fireTimer(id string) {
	st, ok := f.states[id]
	if !ok || st.pending == nil {
		return
	}
	obs := st.pending
	st.pending = nil
	st.lastTimestamp = obs.Timestamp.Add(st.delta)
	if f.Forward != nil {
		f.Forward(obs)
	} else {
		obslog.Warnf("[PIPELINE]> period filter timer fired for %q with no downstream wired", id)
	}
}
