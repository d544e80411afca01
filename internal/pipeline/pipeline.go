// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"github.com/shdr-stream/obspipeline/internal/config"
	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/internal/obslog"
	"github.com/shdr-stream/obspipeline/pkg/observation"
	"github.com/shdr-stream/obspipeline/pkg/ringbuffer"
)

// allKinds lists every observation variant so a node can be bound as the
// unconditional successor for any Kind -- guards, not the next-map, decide
// applicability for every transform in this chain (§4.1).
var allKinds = []observation.Kind{
	observation.KindSample,
	observation.KindEvent,
	observation.KindCondition,
	observation.KindMessage,
	observation.KindDataSet,
	observation.KindTimeseries,
	observation.KindAssetCommand,
}

// availableDataItemID is the synthesized data item for AutoAvailable
// (§6): an AVAILABLE event is emitted the first time a source produces a
// line, mirroring the adapter-availability convention of the wire
// protocol's original implementation.
const availableDataItemID = "avail"

// Source owns one adapter's worth of pipeline state: its own Tokenizer,
// TimestampExtractor, Mapper, filter state, and Strand, per §5 ("each
// adapter source owns a serial execution context"). Command lines never
// enter the transform chain (§4.11); AssetCommand entities are skipped by
// every filter's guard and reach the sequencer unchanged (§4.4).
type Source struct {
	Name    string
	Options SourceOptions

	tokenizer  *Tokenizer
	timestamps *TimestampExtractor
	mapper     *Mapper
	cmdHandler *CommandHandler

	conditionChainer *ConditionChainer
	unitConverter    *UnitConverter
	dupFilter        *DuplicateFilter
	deltaFilter      *DeltaFilter
	periodFilter     *PeriodFilter
	sequencer        *Sequencer

	root   *Transform
	strand *Strand

	autoAvailable    bool
	announcedAvail   bool
}

// NewSource assembles a complete pipeline for one adapter source: the DAG
// described in §2's stage list, rooted at the condition chainer so that
// Condition observations skip the sample-only filters by guard alone
// (§4.1's "guard + typed next-map replaces dynamic dispatch").
func NewSource(name string, model devicemodel.DeviceModel, rb *ringbuffer.RingBuffer, cfg config.Config, externalCommand func(key, value string)) *Source {
	strand := NewStrand(64)

	s := &Source{
		Name:       name,
		Options: SourceOptions{
			ConversionRequired: cfg.ConversionRequired,
			RelativeTime:       cfg.RelativeTime,
		},
		tokenizer:        NewTokenizer(name),
		timestamps:       NewTimestampExtractor(cfg.RelativeTime, nil),
		mapper:           NewMapper(model, cfg.UpcaseDataItemValue),
		conditionChainer: NewConditionChainer(),
		unitConverter:    NewUnitConverter(model, cfg.ConversionRequired),
		dupFilter:        NewDuplicateFilter(model, cfg.FilterDuplicates),
		deltaFilter:      NewDeltaFilter(model),
		periodFilter:     NewPeriodFilter(model, strand),
		sequencer:        NewSequencer(rb),
		strand:           strand,
		autoAvailable:    cfg.AutoAvailable,
	}
	s.cmdHandler = NewCommandHandler(&s.Options, externalCommand)

	conditionT := NewTransform("conditionchainer", s.conditionChainer.Guard, s.conditionChainer.Apply)
	unitConvertT := NewTransform("unitconvert", s.unitConverter.Guard, s.unitConverter.Apply)
	dupT := NewTransform("dupfilter", s.dupFilter.Guard, s.dupFilter.Apply)
	deltaT := NewTransform("deltafilter", s.deltaFilter.Guard, s.deltaFilter.Apply)
	periodT := NewTransform("periodfilter", s.periodFilter.Guard, s.periodFilter.Apply)
	sequencerT := NewTransform("sequencer", s.sequencer.Guard, s.sequencer.Apply)

	conditionT.BindAll(unitConvertT, allKinds...)
	unitConvertT.BindAll(dupT, allKinds...)
	dupT.BindAll(deltaT, allKinds...)
	deltaT.BindAll(periodT, allKinds...)
	periodT.BindAll(sequencerT, allKinds...)

	// The period filter's delayed deliveries (case 4 flush, timer fire) must
	// rejoin the chain after themselves, not re-enter period filtering.
	s.periodFilter.Forward = func(obs *observation.Observation) {
		sequencerT.Process(obs)
	}

	s.root = conditionT
	return s
}

// Close releases the source's strand. Pending period-filter timers observe
// cancellation and become no-ops (§5).
func (s *Source) Close() { s.strand.Close() }

// ProcessLine runs one raw adapter line on the source's Strand, so it is
// serialized with the period filter's timer continuations (§5), and returns
// once the line has been processed or the strand has been closed.
func (s *Source) ProcessLine(raw string) {
	done := make(chan struct{})
	s.strand.Post(func() {
		defer close(done)
		s.processLine(raw)
	})
	select {
	case <-done:
	case <-s.strand.done:
	}
}

// processLine tokenizes and runs one raw adapter line through the full
// pipeline (§2). Each produced observation flows independently through the
// DAG starting at the condition chainer. Errors are logged and do not
// interrupt the rest of the line (§7: "no exceptional control flow crosses
// the pipeline boundary").
func (s *Source) processLine(raw string) {
	line, cmd, err := s.tokenizer.Feed(raw)
	if err != nil {
		obslog.Errorf("[PIPELINE]> source %q: %v", s.Name, err)
		return
	}
	if cmd != nil {
		s.cmdHandler.Handle(*cmd)
		return
	}
	if line == nil {
		return
	}

	s.maybeSynthesizeAvailable()

	ts, duration, ordinal := s.timestamps.Extract(line.TimestampToken)
	for _, obs := range s.mapper.MapLine(ts, duration, ordinal, line.Fields) {
		if obs.Device == "" {
			obs.Device = s.Options.Device
		}
		if _, err := s.root.Process(obs); err != nil {
			obslog.Errorf("[PIPELINE]> source %q: %v", s.Name, err)
		}
	}
}

// maybeSynthesizeAvailable emits a synthetic AVAILABLE event on the first
// line seen from this source (§6 "AutoAvailable").
func (s *Source) maybeSynthesizeAvailable() {
	if !s.autoAvailable || s.announcedAvail {
		return
	}
	s.announcedAvail = true
	avail := &observation.Observation{
		Kind:       observation.KindEvent,
		DataItemID: availableDataItemID,
		Device:     s.Options.Device,
		Value:      observation.StringValue("AVAILABLE"),
	}
	if _, err := s.root.Process(avail); err != nil {
		obslog.Errorf("[PIPELINE]> source %q: synthesizing AVAILABLE: %v", s.Name, err)
	}
}
