package btserial

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/scan"
)

var ErrWriteFailed = fmt.Errorf("failed to write to serial port")

// Source drives a UART BLE scanner module. A background goroutine reads
// report lines off the port continuously; Sample opens a discovery window,
// collects advertisement lines for the window, and closes it again.
type Source struct {
	port  Porter
	logf  func(format string, v ...interface{})
	lines chan string

	commandMu sync.Mutex

	closeMu sync.Mutex
	closed  bool
}

// NewSource wraps an open port. Callers own the port's lifetime through
// Source.Close.
func NewSource(port Porter) *Source {
	s := &Source{
		port:  port,
		logf:  monitoring.Prefixed("btserial"),
		lines: make(chan string, 256),
	}
	go s.readLoop()
	return s
}

// readLoop scans lines off the port for the life of the source. Lines
// arriving while no sample window is draining the channel are dropped so the
// reader never blocks on the port.
func (s *Source) readLoop() {
	scanner := bufio.NewScanner(s.port)
	for scanner.Scan() {
		select {
		case s.lines <- scanner.Text():
		default:
			// no open sample window; discard
		}
	}
	if err := scanner.Err(); err != nil {
		s.closeMu.Lock()
		closed := s.closed
		s.closeMu.Unlock()
		if !closed {
			s.logf("serial read loop terminated: %v", err)
		}
	}
}

// Initialize puts the module in passive advertisement-report mode. Host-side
// dedup is used, so per-window duplicate reports are requested from the
// module.
func (s *Source) Initialize() error {
	for _, command := range []string{
		"PASSIVE ON", // observe only, never connect
		"REPORT ADV", // emit ADV| lines for each advertisement
		"DEDUP OFF",  // host collapses duplicates per pass
	} {
		if err := s.sendCommand(command); err != nil {
			return fmt.Errorf("failed to send setup command %q: %w", command, err)
		}
	}
	return nil
}

// sendCommand writes a single command line to the module.
func (s *Source) sendCommand(command string) error {
	s.commandMu.Lock()
	defer s.commandMu.Unlock()
	if !bytes.HasSuffix([]byte(command), []byte("\n")) {
		command += "\n"
	}
	n, err := s.port.Write([]byte(command))
	if err != nil {
		return err
	}
	if n != len(command) {
		return ErrWriteFailed
	}
	return nil
}

// Sample implements scan.Source: open a discovery window of roughly duration
// d, collect every advertisement reported in the window, and close it.
func (s *Source) Sample(ctx context.Context, d time.Duration) ([]scan.Device, error) {
	// Discard reports left over from a previous window.
	for {
		select {
		case <-s.lines:
			continue
		default:
		}
		break
	}

	if err := s.sendCommand("SCAN ON"); err != nil {
		return nil, fmt.Errorf("failed to open discovery window: %w", err)
	}

	window := time.NewTimer(d)
	defer window.Stop()

	var readings []scan.Device
collect:
	for {
		select {
		case <-ctx.Done():
			s.endWindow()
			return nil, ctx.Err()
		case <-window.C:
			break collect
		case line := <-s.lines:
			if dev, ok := parseAdvertisement(line); ok {
				readings = append(readings, dev)
			}
		}
	}

	s.endWindow()
	return readings, nil
}

func (s *Source) endWindow() {
	if err := s.sendCommand("SCAN OFF"); err != nil {
		s.logf("failed to close discovery window: %v", err)
	}
}

// Close shuts the discovery window and releases the port. The read loop
// exits when the port read fails after close.
func (s *Source) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	s.closeMu.Unlock()

	s.endWindow()
	return s.port.Close()
}
