package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInitAppliesDefaultsAndOverrides(t *testing.T) {
	raw := []byte(`{"filter-duplicates": true, "buffer-size": 256}`)
	cfg, err := Init(raw)
	require.NoError(t, err)
	require.True(t, cfg.FilterDuplicates)
	require.Equal(t, 256, cfg.BufferSize)
	require.True(t, cfg.UpcaseDataItemValue, "unset keys must keep their documented default")
}

func TestInitRejectsUnknownField(t *testing.T) {
	raw := []byte(`{"not-a-real-key": true}`)
	_, err := Init(raw)
	require.Error(t, err)
}

func TestReconnectDurationFallsBackOnGarbage(t *testing.T) {
	cfg := Config{ReconnectInterval: "not-a-duration"}
	require.Equal(t, defaultReconnectFallback, cfg.ReconnectDuration())
}
