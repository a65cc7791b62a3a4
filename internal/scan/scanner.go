package scan

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/presence.report/internal/monitoring"
	"github.com/banshee-data/presence.report/internal/timeutil"
)

// Cadence is the live-tunable timing of the scheduler: how long each pass
// listens, how long the scheduler rests between passes, and how often the
// latest snapshot is pushed to live subscribers.
type Cadence struct {
	SampleDuration  time.Duration
	PassInterval    time.Duration
	PublishInterval time.Duration
}

// normalize guards against non-positive durations reaching timers. Config
// validation rejects these before they get here; this is the scheduler's own
// floor so a zero-value Cadence cannot wedge the loop.
func (c Cadence) normalize() Cadence {
	if c.SampleDuration <= 0 {
		c.SampleDuration = 5 * time.Second
	}
	if c.PassInterval <= 0 {
		c.PassInterval = 3 * time.Second
	}
	if c.PublishInterval <= 0 {
		c.PublishInterval = time.Second
	}
	return c
}

// SinkFunc consumes one completed scan pass. A sink returning an error (or
// panicking) is logged and isolated; it never affects other sinks or the
// scheduler.
type SinkFunc func(devices []Device) error

type sinkEntry struct {
	id string
	fn SinkFunc
}

// Scanner drives the sample→rest cycle on a dedicated goroutine. It owns the
// shared observation state (the latest pass), the sink fan-out, and the live
// subscriber channels. Exactly one loop runs at a time: Start is idempotent
// while running, and Stop blocks until the current cycle iteration exits.
type Scanner struct {
	source Source
	clock  timeutil.Clock
	logf   func(format string, v ...interface{})

	cadenceMu sync.Mutex
	cadence   Cadence

	stateMu  sync.RWMutex
	latest   []Device
	lastPass time.Time

	sinkMu sync.Mutex
	sinks  []sinkEntry

	subMu sync.Mutex
	subs  map[string]chan []Device

	runMu   sync.Mutex
	running bool
	stop    chan struct{}
	runWG   *sync.WaitGroup
}

// NewScanner creates a scanner over the given observation source. The
// scanner is idle until Start is called.
func NewScanner(source Source, cadence Cadence) *Scanner {
	return &Scanner{
		source:  source,
		clock:   timeutil.RealClock{},
		logf:    monitoring.Prefixed("scan"),
		cadence: cadence.normalize(),
		subs:    make(map[string]chan []Device),
	}
}

// Cadence returns the currently configured cadence.
func (s *Scanner) Cadence() Cadence {
	s.cadenceMu.Lock()
	defer s.cadenceMu.Unlock()
	return s.cadence
}

// SetCadence swaps the cadence as one unit. The loop reads the cadence at the
// start of each iteration, so new values take effect on the next pass; an
// in-flight sample keeps its original duration.
func (s *Scanner) SetCadence(c Cadence) {
	c = c.normalize()
	s.cadenceMu.Lock()
	s.cadence = c
	s.cadenceMu.Unlock()
}

// Running reports whether the scheduler loop is active.
func (s *Scanner) Running() bool {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.running
}

// Start launches the scheduler loop and the subscriber publisher. Calling
// Start while already running is a no-op: a second concurrent loop is never
// spawned.
func (s *Scanner) Start() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stop = make(chan struct{})
	s.runWG = &sync.WaitGroup{}
	s.runWG.Add(2)
	go s.loop(s.stop, s.runWG)
	go s.publishLoop(s.stop, s.runWG)
}

// Stop requests shutdown and blocks until the scheduler loop has exited. The
// stop request is observed at cycle boundaries: an in-flight sample is never
// preempted, so the wait is bounded by that sample's remaining duration, not
// by the rest interval.
func (s *Scanner) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	close(s.stop)
	wg := s.runWG
	s.runMu.Unlock()
	wg.Wait()
}

// Devices returns a copy of the latest published pass.
func (s *Scanner) Devices() []Device {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	out := make([]Device, len(s.latest))
	copy(out, s.latest)
	return out
}

// DeviceByAddress looks up a device in the latest pass by its address.
func (s *Scanner) DeviceByAddress(address string) (Device, bool) {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	for _, d := range s.latest {
		if d.Address == address {
			return d, true
		}
	}
	return Device{}, false
}

// DeviceCount returns the number of devices in the latest pass.
func (s *Scanner) DeviceCount() int {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return len(s.latest)
}

// LastPass returns the completion time of the most recent pass, zero if no
// pass has completed yet.
func (s *Scanner) LastPass() time.Time {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.lastPass
}

// AddSink registers a consumer for completed passes and returns its
// registration ID. Sinks are notified in registration order once per pass.
func (s *Scanner) AddSink(fn SinkFunc) string {
	id := uuid.NewString()
	s.sinkMu.Lock()
	s.sinks = append(s.sinks, sinkEntry{id: id, fn: fn})
	s.sinkMu.Unlock()
	return id
}

// RemoveSink deregisters a sink. Safe to call while a notification is in
// flight; the sink receives no further passes once removed.
func (s *Scanner) RemoveSink(id string) {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	for i, e := range s.sinks {
		if e.id == id {
			s.sinks = append(s.sinks[:i], s.sinks[i+1:]...)
			return
		}
	}
}

// Subscribe creates a channel that receives the latest device snapshot once
// per publish interval. Slow subscribers miss snapshots rather than blocking
// the publisher.
func (s *Scanner) Subscribe() (string, <-chan []Device) {
	id := uuid.NewString()
	ch := make(chan []Device, 1)
	s.subMu.Lock()
	s.subs[id] = ch
	s.subMu.Unlock()
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (s *Scanner) Unsubscribe(id string) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if ch, ok := s.subs[id]; ok {
		close(ch)
		delete(s.subs, id)
	}
}

// loop is the sample→publish→fan-out→rest cycle. It exits only when stop is
// closed, and only at a cycle boundary.
func (s *Scanner) loop(stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		select {
		case <-stop:
			return
		default:
		}

		cad := s.Cadence()
		readings, err := s.source.Sample(context.Background(), cad.SampleDuration)
		if err != nil {
			// A failed pass yields an empty result; the cycle continues.
			s.logf("scan pass failed: %v", err)
			readings = nil
		}

		now := s.clock.Now()
		pass := collapsePass(readings, now)

		s.stateMu.Lock()
		s.latest = pass
		s.lastPass = now
		s.stateMu.Unlock()

		s.notify(pass)

		timer := s.clock.NewTimer(cad.PassInterval)
		select {
		case <-timer.C():
		case <-stop:
			timer.Stop()
			return
		}
	}
}

// notify fans the pass out to a snapshot of the sink list. Registration
// during fan-out cannot corrupt iteration; a sink removed mid-notification is
// skipped if its turn has not come yet.
func (s *Scanner) notify(pass []Device) {
	s.sinkMu.Lock()
	snapshot := make([]sinkEntry, len(s.sinks))
	copy(snapshot, s.sinks)
	s.sinkMu.Unlock()

	for _, e := range snapshot {
		if !s.hasSink(e.id) {
			continue
		}
		s.deliver(e, pass)
	}
}

func (s *Scanner) hasSink(id string) bool {
	s.sinkMu.Lock()
	defer s.sinkMu.Unlock()
	for _, e := range s.sinks {
		if e.id == id {
			return true
		}
	}
	return false
}

// deliver invokes one sink, containing both error returns and panics so a
// misbehaving consumer cannot take down the scheduler or starve its peers.
func (s *Scanner) deliver(e sinkEntry, pass []Device) {
	defer func() {
		if r := recover(); r != nil {
			s.logf("sink %s panicked: %v", e.id, r)
		}
	}()
	if err := e.fn(pass); err != nil {
		s.logf("sink %s: %v", e.id, err)
	}
}

// publishLoop pushes the latest snapshot to subscribers once per publish
// interval, resetting its ticker when the interval is reconfigured.
func (s *Scanner) publishLoop(stop <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	interval := s.Cadence().PublishInterval
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			if next := s.Cadence().PublishInterval; next != interval {
				interval = next
				ticker.Reset(interval)
			}
			s.publish(s.Devices())
		}
	}
}

func (s *Scanner) publish(snapshot []Device) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			// subscriber has not drained the previous snapshot; skip
		}
	}
}
