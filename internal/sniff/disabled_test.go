//go:build !pcap
// +build !pcap

package sniff

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStubSourceReportsUnavailable(t *testing.T) {
	source := NewSource("eth0")
	_, err := source.Sample(context.Background(), time.Second)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Sample error = %v, want ErrUnavailable", err)
	}
}
