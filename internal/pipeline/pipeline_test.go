// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-backend.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shdr-stream/obspipeline/internal/config"
	"github.com/shdr-stream/obspipeline/internal/devicemodel"
	"github.com/shdr-stream/obspipeline/pkg/observation"
	"github.com/shdr-stream/obspipeline/pkg/ringbuffer"
)

const testYAML = `
defaultDevice: mill01
devices:
  - id: mill01
    dataItems:
      - id: Xpos
        name: X Position
        category: SAMPLE
        units: MILLIMETER
        nativeUnits: MILLIMETER
      - id: a01c7f30
        name: Execution
        category: EVENT
      - id: Load
        name: Spindle Load
        category: SAMPLE
        units: PERCENT
        nativeUnits: PERCENT
        minimumDelta: 1.0
      - id: Temp
        name: Bearing Temperature
        category: SAMPLE
        units: PERCENT
        nativeUnits: PERCENT
        filterPeriod: 0.3
      - id: Sfault
        name: System Fault
        category: CONDITION
`

func newTestSource(t *testing.T, cfg config.Config) (*Source, *ringbuffer.RingBuffer) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "model.yaml")
	require.NoError(t, writeFile(path, testYAML))
	model, err := devicemodel.Load(path)
	require.NoError(t, err)
	rb, err := ringbuffer.New(64)
	require.NoError(t, err)
	src := NewSource("test", model, rb, cfg, nil)
	t.Cleanup(src.Close)
	return src, rb
}

func writeFile(path, contents string) error {
	return os.WriteFile(path, []byte(contents), 0o644)
}

// TestBasicSampleDelivery is scenario 1 of §8: a single timestamped sample
// line produces exactly one delivered observation with the expected value,
// timestamp, and sequence.
func TestBasicSampleDelivery(t *testing.T) {
	src, rb := newTestSource(t, config.Config{ConversionRequired: true})
	src.ProcessLine("2021-01-22T12:33:45.123Z|Xpos|100.0")

	obs, err := rb.At(1)
	require.NoError(t, err)
	require.Equal(t, "Xpos", obs.DataItemID)
	require.Equal(t, float64(100.0), float64(obs.Value.Double))
	require.Equal(t, uint64(1), obs.Sequence)
	require.Equal(t, 2021, obs.Timestamp.Year())
}

// TestDuplicateFilter is scenario 2: with FilterDuplicates enabled, a
// repeated identical value is dropped, but a changed one passes through.
func TestDuplicateFilter(t *testing.T) {
	src, rb := newTestSource(t, config.Config{FilterDuplicates: true, ConversionRequired: true})
	src.ProcessLine("2021-01-22T12:33:45.000Z|Xpos|100.0")
	src.ProcessLine("2021-01-22T12:33:45.100Z|Xpos|100.0")
	src.ProcessLine("2021-01-22T12:33:45.200Z|Xpos|101.0")

	require.Equal(t, uint64(2), rb.Last(), "the duplicate 100.0 must not advance the sequence")
	first, err := rb.At(1)
	require.NoError(t, err)
	require.Equal(t, float64(100.0), float64(first.Value.Double))
	second, err := rb.At(2)
	require.NoError(t, err)
	require.Equal(t, float64(101.0), float64(second.Value.Double))
}

// TestUpcaseEvent is scenario 3: an Event string value is upcased before
// delivery when UpcaseDataItemValue is set (default true).
func TestUpcaseEvent(t *testing.T) {
	src, rb := newTestSource(t, config.Config{UpcaseDataItemValue: true, ConversionRequired: true})
	src.ProcessLine("2021-01-22T12:33:45.000Z|a01c7f30|active")

	obs, err := rb.At(1)
	require.NoError(t, err)
	require.Equal(t, "ACTIVE", obs.Value.Str)
}

// TestDeltaFilter exercises §4.7: a change below minimumDelta is dropped, a
// change at or above it is delivered.
func TestDeltaFilter(t *testing.T) {
	src, rb := newTestSource(t, config.Config{ConversionRequired: true})
	src.ProcessLine("2021-01-22T12:33:45.000Z|Load|50.0")
	src.ProcessLine("2021-01-22T12:33:45.100Z|Load|50.3")
	src.ProcessLine("2021-01-22T12:33:45.200Z|Load|52.0")

	require.Equal(t, uint64(2), rb.Last(), "the 0.3 change is below minimumDelta=1.0 and must be dropped")
	second, err := rb.At(2)
	require.NoError(t, err)
	require.Equal(t, float64(52.0), float64(second.Value.Double))
}

// TestPeriodFilterBucketAtEnd mirrors scenario 4 of §8 (scaled 3x in both
// period and spacing to give the real timer goroutine comfortable margin):
// for a 300ms period and observations every 90ms carrying values 1..5, only
// the first (delivered immediately) and the most recent observation of each
// subsequent window (delivered by the timer) reach the ring buffer.
func TestPeriodFilterBucketAtEnd(t *testing.T) {
	src, rb := newTestSource(t, config.Config{ConversionRequired: true})

	start := time.Now()
	for i, v := range []string{"1", "2", "3", "4", "5"} {
		src.ProcessLine(shdrLine(start, i*90, "Temp", v))
		if i < 4 {
			time.Sleep(90 * time.Millisecond)
		}
	}

	// The timer holding value 5 (armed at the last line for the end of its
	// window, ~240ms later) must still fire; 700ms leaves a wide margin.
	time.Sleep(700 * time.Millisecond)

	require.Equal(t, uint64(3), rb.Last(), "only 3 of the 5 observations should survive the period filter")

	first, err := rb.At(1)
	require.NoError(t, err)
	require.Equal(t, float64(1), float64(first.Value.Double), "the first observation is always delivered immediately")

	second, err := rb.At(2)
	require.NoError(t, err)
	require.Equal(t, float64(4), float64(second.Value.Double), "the first window's timer must deliver the most recent value seen, not the first")

	third, err := rb.At(3)
	require.NoError(t, err)
	require.Equal(t, float64(5), float64(third.Value.Double), "the second window's timer must deliver the remaining value")
}

// TestConditionChain is scenario 5: Fault(A), Fault(B), Normal(A),
// Normal("") walk the chain [A] -> [B,A] -> [B] -> [] (Normal emitted).
func TestConditionChain(t *testing.T) {
	src, rb := newTestSource(t, config.Config{ConversionRequired: true})

	src.ProcessLine("2021-01-22T12:33:45.000Z|Sfault|FAULT|A|1||")
	src.ProcessLine("2021-01-22T12:33:45.100Z|Sfault|FAULT|B|1||")
	src.ProcessLine("2021-01-22T12:33:45.200Z|Sfault|NORMAL|A|||")
	src.ProcessLine("2021-01-22T12:33:45.300Z|Sfault|NORMAL||||")

	require.Equal(t, uint64(4), rb.Last())

	o1, _ := rb.At(1)
	require.Len(t, o1.Condition.Chain.Handles, 1)

	o2, _ := rb.At(2)
	require.Len(t, o2.Condition.Chain.Handles, 2)

	o3, _ := rb.At(3)
	require.Len(t, o3.Condition.Chain.Handles, 1)
	require.Equal(t, observation.ConditionFault, o3.Condition.Level, "removing A must surface the remaining head (B, still Fault), not a bare Normal(A)")
	require.Equal(t, "B", o3.Condition.NativeCode)

	o4, _ := rb.At(4)
	require.Len(t, o4.Condition.Chain.Handles, 0)
	require.Equal(t, 0, int(o4.Condition.Level))
}

// shdrLine builds an SHDR data line whose timestamp is offsetMS
// milliseconds after start, converted to UTC wall-clock so the period
// filter's real timer delays line up with the synthetic timestamp deltas
// the test is asserting against.
func shdrLine(start time.Time, offsetMS int, dataItemID, value string) string {
	ts := start.UTC().Add(time.Duration(offsetMS) * time.Millisecond)
	return ts.Format("2006-01-02T15:04:05.000Z") + "|" + dataItemID + "|" + value
}
