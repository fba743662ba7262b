package meter

import (
	"strings"
	"sync"
	"time"

	"github.com/itohio/thruststand/pkg/clock"
)

// Command is an operator command received from an observer.
type Command int

const (
	StartTest Command = iota + 1
	StopTest
)

// String returns the wire form of the command.
func (c Command) String() string {
	switch c {
	case StartTest:
		return "START_TEST"
	case StopTest:
		return "STOP_TEST"
	default:
		return "UNKNOWN"
	}
}

// ParseCommand parses the wire form of a command. Surrounding whitespace and
// letter case are ignored.
func ParseCommand(s string) (Command, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "START_TEST":
		return StartTest, true
	case "STOP_TEST":
		return StopTest, true
	default:
		return 0, false
	}
}

// CommandSink accepts operator commands.
type CommandSink interface {
	Apply(cmd Command)
}

var _ CommandSink = (*TestSession)(nil)

// TestSession is the operator-controlled test timer. Commands arrive from
// network goroutines while the control loop reads the status, so all state
// is guarded by mu.
type TestSession struct {
	clock clock.Clock

	mu           sync.Mutex
	running      bool
	start        time.Time
	lastDuration time.Duration
}

// NewTestSession creates a stopped session.
func NewTestSession(clk clock.Clock) *TestSession {
	return &TestSession{clock: clk}
}

// Apply executes cmd. Starting a running session or stopping a stopped one
// does nothing.
func (s *TestSession) Apply(cmd Command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd {
	case StartTest:
		if !s.running {
			s.running = true
			s.start = s.clock.Now()
		}
	case StopTest:
		if s.running {
			s.running = false
			s.lastDuration = s.clock.Since(s.start)
		}
	}
}

// Status returns whether a test is running together with its elapsed time,
// or the duration of the last test when stopped.
func (s *TestSession) Status() (running bool, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return true, s.clock.Since(s.start)
	}
	return false, s.lastDuration
}
