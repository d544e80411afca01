package devicemodel

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const sampleYAML = `
defaultDevice: mill01
devices:
  - id: mill01
    dataItems:
      - id: Xpos
        name: X Position
        category: SAMPLE
        units: MILLIMETER
        nativeUnits: INCH
        filterPeriod: 0.1
      - id: a01c7f30
        name: Execution
        category: EVENT
`

func loadSample(t *testing.T) DeviceModel {
	t.Helper()
	var doc documentSpec
	require.NoError(t, yaml.Unmarshal([]byte(sampleYAML), &doc))
	return build(doc)
}

func TestResolveWithDefaultDevice(t *testing.T) {
	m := loadSample(t)
	di, ok := m.Resolve("", "Xpos")
	require.True(t, ok)
	require.Equal(t, "MILLIMETER", di.Units)
	require.True(t, di.NeedsConversion())
}

func TestResolveUnknownDataItem(t *testing.T) {
	m := loadSample(t)
	_, ok := m.Resolve("", "nonexistent")
	require.False(t, ok)
}

func TestAllListsEveryDataItem(t *testing.T) {
	m := loadSample(t)
	require.Len(t, m.All(), 2)
}
