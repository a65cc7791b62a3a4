//go:build !pcap
// +build !pcap

// Package sniff implements a passive observation source that watches a
// network segment for hardware addresses instead of driving a scanner
// module. Built only with the pcap tag since it depends on libpcap; this
// stub keeps the --source=sniff flag wired in default builds.
package sniff

import (
	"context"
	"errors"
	"time"

	"github.com/banshee-data/presence.report/internal/scan"
)

// ErrUnavailable is returned by stub sources in builds without pcap support.
var ErrUnavailable = errors.New("sniff: built without pcap support (rebuild with -tags pcap)")

// Source is the stub used when the binary was built without the pcap tag.
type Source struct {
	device string
}

// NewSource creates a stub source; every Sample fails with ErrUnavailable.
func NewSource(device string) *Source {
	return &Source{device: device}
}

// Sample implements scan.Source.
func (s *Source) Sample(ctx context.Context, d time.Duration) ([]scan.Device, error) {
	return nil, ErrUnavailable
}
