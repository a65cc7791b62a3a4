// Package scan implements the continuous sensing pipeline: an observation
// source samples nearby wireless devices, a scheduler drives repeated sampling
// passes, and completed passes fan out to registered sinks and live
// subscribers.
package scan

import (
	"fmt"
	"time"
)

// DefaultDeviceType is used when a source cannot classify a device.
const DefaultDeviceType = "unknown"

// Device is a single observation of a nearby wireless device within one scan
// pass. Devices are immutable once published: the scheduler assigns ObservedAt
// at the pass boundary and the record is never modified afterwards.
type Device struct {
	Address    string    `json:"address"`
	Name       string    `json:"name"`
	RSSI       int       `json:"rssi"`
	DeviceType string    `json:"device_type"`
	ObservedAt time.Time `json:"observed_at"`
}

// DisplayName returns the advertised name, falling back to the address when
// the device did not advertise one.
func (d Device) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	return d.Address
}

func (d Device) String() string {
	return fmt.Sprintf("Device(name=%q, address=%q, rssi=%d)", d.DisplayName(), d.Address, d.RSSI)
}

// collapsePass applies the per-pass dedup policy: multiple readings for the
// same address collapse to the last reading observed in the pass
// (last-write-wins), while the pass keeps the order in which addresses were
// first seen. Every surviving device is stamped with the pass timestamp and
// given the default type when the source left it blank.
func collapsePass(readings []Device, observedAt time.Time) []Device {
	byAddress := make(map[string]int, len(readings))
	pass := make([]Device, 0, len(readings))
	for _, r := range readings {
		r.ObservedAt = observedAt
		if r.DeviceType == "" {
			r.DeviceType = DefaultDeviceType
		}
		if i, ok := byAddress[r.Address]; ok {
			pass[i] = r
			continue
		}
		byAddress[r.Address] = len(pass)
		pass = append(pass, r)
	}
	return pass
}
