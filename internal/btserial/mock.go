package btserial

import (
	"io"
	"strings"
	"sync"
)

// MockPort implements Porter for testing and --dev runs without scanner
// hardware. Written commands are recorded, and report lines can be injected
// into the read side with EmitLine.
type MockPort struct {
	mu       sync.Mutex
	commands []string
	closed   bool

	// OnCommand, when set, is invoked with each command line written to the
	// port. Tests use it to script module responses to SCAN ON.
	OnCommand func(command string)

	pr *io.PipeReader
	pw *io.PipeWriter
}

// NewMockPort creates a MockPort with an empty read stream.
func NewMockPort() *MockPort {
	pr, pw := io.Pipe()
	return &MockPort{pr: pr, pw: pw}
}

// Read serves injected report lines.
func (m *MockPort) Read(p []byte) (int, error) {
	return m.pr.Read(p)
}

// Write records the command and triggers the OnCommand hook.
func (m *MockPort) Write(p []byte) (int, error) {
	command := strings.TrimSuffix(string(p), "\n")
	m.mu.Lock()
	m.commands = append(m.commands, command)
	hook := m.OnCommand
	m.mu.Unlock()
	if hook != nil {
		hook(command)
	}
	return len(p), nil
}

// EmitLine injects one report line into the read stream. It blocks until the
// source's read loop has consumed the line.
func (m *MockPort) EmitLine(line string) {
	m.pw.Write([]byte(line + "\n"))
}

// Commands returns a copy of every command line written so far.
func (m *MockPort) Commands() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.commands))
	copy(out, m.commands)
	return out
}

// Close closes both ends of the mock stream.
func (m *MockPort) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.pw.Close()
	return m.pr.Close()
}
