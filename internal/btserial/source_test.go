package btserial

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceInitialize(t *testing.T) {
	port := NewMockPort()
	source := NewSource(port)
	defer source.Close()

	require.NoError(t, source.Initialize())
	assert.Equal(t, []string{"PASSIVE ON", "REPORT ADV", "DEDUP OFF"}, port.Commands())
}

func TestSourceSampleCollectsWindow(t *testing.T) {
	port := NewMockPort()
	port.OnCommand = func(command string) {
		if command != "SCAN ON" {
			return
		}
		go func() {
			port.EmitLine("OK SCAN ON")
			port.EmitLine("ADV|AA:BB:CC:DD:EE:01|-55|Headset|audio")
			port.EmitLine("ADV|AA:BB:CC:DD:EE:02|-80")
			port.EmitLine("ADV|AA:BB:CC:DD:EE:01|-52|Headset|audio")
		}()
	}

	source := NewSource(port)
	defer source.Close()

	readings, err := source.Sample(context.Background(), 100*time.Millisecond)
	require.NoError(t, err)

	// Raw readings: dedup is the scheduler's job, so the repeat sighting of
	// :01 must survive here.
	require.Len(t, readings, 3)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", readings[0].Address)
	assert.Equal(t, -55, readings[0].RSSI)
	assert.Equal(t, "AA:BB:CC:DD:EE:01", readings[2].Address)
	assert.Equal(t, -52, readings[2].RSSI)

	commands := port.Commands()
	assert.Contains(t, commands, "SCAN ON")
	assert.Contains(t, commands, "SCAN OFF")
}

func TestSourceSampleEmptyWindow(t *testing.T) {
	port := NewMockPort()
	source := NewSource(port)
	defer source.Close()

	readings, err := source.Sample(context.Background(), 20*time.Millisecond)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestSourceSampleCancelled(t *testing.T) {
	port := NewMockPort()
	source := NewSource(port)
	defer source.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := source.Sample(ctx, time.Second)
	assert.Error(t, err)
}

func TestSourceCloseIdempotent(t *testing.T) {
	source := NewSource(NewMockPort())
	require.NoError(t, source.Close())
	require.NoError(t, source.Close())
}
