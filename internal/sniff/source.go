//go:build pcap
// +build pcap

// Package sniff implements a passive observation source that watches a
// network segment for hardware addresses instead of driving a scanner
// module. Built only with the pcap tag since it depends on libpcap.
package sniff

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/banshee-data/presence.report/internal/scan"
)

// snapshotLen only needs to cover link-layer headers; payloads are never
// inspected.
const snapshotLen = 128

// Source observes source MAC addresses on a capture interface for the
// duration of each sample window.
type Source struct {
	device string
}

// NewSource creates a capture-backed source for the named interface.
func NewSource(device string) *Source {
	return &Source{device: device}
}

// Sample implements scan.Source: open a capture handle, read frames for
// roughly duration d, and report one raw reading per frame source address.
// The scheduler collapses repeat sightings.
func (s *Source) Sample(ctx context.Context, d time.Duration) ([]scan.Device, error) {
	handle, err := pcap.OpenLive(s.device, snapshotLen, true, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture on %s: %w", s.device, err)
	}
	defer handle.Close()

	packetSource := gopacket.NewPacketSource(handle, handle.LinkType())
	window := time.NewTimer(d)
	defer window.Stop()

	var readings []scan.Device
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-window.C:
			return readings, nil
		case packet, ok := <-packetSource.Packets():
			if !ok {
				return readings, nil
			}
			if layer := packet.Layer(layers.LayerTypeEthernet); layer != nil {
				eth := layer.(*layers.Ethernet)
				readings = append(readings, scan.Device{
					Address:    strings.ToUpper(eth.SrcMAC.String()),
					DeviceType: "ethernet",
				})
			}
		}
	}
}
