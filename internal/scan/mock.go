package scan

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// MockSource is a scripted observation source for tests and for --dev runs
// without radio hardware. Each Sample call pops the next scripted pass; when
// the script is exhausted it repeats the last entry, or synthesizes readings
// if no script was provided.
type MockSource struct {
	mu      sync.Mutex
	script  []MockPass
	index   int
	calls   int
	blockFn func(d time.Duration) // overridable wait, nil means no wait
}

// MockPass is one scripted Sample result.
type MockPass struct {
	Devices []Device
	Err     error
}

// NewMockSource creates a source that plays back the given passes in order.
func NewMockSource(script ...MockPass) *MockSource {
	return &MockSource{script: script}
}

// NewSyntheticSource creates a dev-mode source that fabricates a small
// neighbourhood of devices with jittered signal strengths, honouring the
// sample duration so cadence behaviour matches a real adapter.
func NewSyntheticSource() *MockSource {
	return &MockSource{
		blockFn: func(d time.Duration) { time.Sleep(d) },
	}
}

// Calls returns the number of Sample invocations so far.
func (m *MockSource) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Sample implements Source.
func (m *MockSource) Sample(ctx context.Context, d time.Duration) ([]Device, error) {
	m.mu.Lock()
	m.calls++
	var pass MockPass
	switch {
	case len(m.script) == 0:
		pass = MockPass{Devices: syntheticReadings()}
	case m.index < len(m.script):
		pass = m.script[m.index]
		m.index++
	default:
		pass = m.script[len(m.script)-1]
	}
	blockFn := m.blockFn
	m.mu.Unlock()

	if blockFn != nil {
		blockFn(d)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pass.Err != nil {
		return nil, pass.Err
	}
	out := make([]Device, len(pass.Devices))
	copy(out, pass.Devices)
	return out, nil
}

var syntheticFleet = []Device{
	{Address: "AA:BB:CC:DD:EE:01", Name: "kitchen-speaker", DeviceType: "audio"},
	{Address: "AA:BB:CC:DD:EE:02", Name: "fitness-band", DeviceType: "wearable"},
	{Address: "AA:BB:CC:DD:EE:03", Name: "", DeviceType: ""},
	{Address: "AA:BB:CC:DD:EE:04", Name: "tile-tracker", DeviceType: "beacon"},
}

func syntheticReadings() []Device {
	n := 1 + rand.Intn(len(syntheticFleet))
	out := make([]Device, 0, n)
	for _, d := range syntheticFleet[:n] {
		d.RSSI = -40 - rand.Intn(55)
		out = append(out, d)
	}
	return out
}
