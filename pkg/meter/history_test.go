package meter

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHistory(t *testing.T) {
	h := NewHistory(10 * time.Second)
	assert.NotNil(t, h)
	assert.Empty(t, h.Snapshots())
	_, ok := h.Latest()
	assert.False(t, ok)
}

func TestHistory_Add(t *testing.T) {
	h := NewHistory(10 * time.Second)
	now := time.Now()

	s := Snapshot{Timestamp: now, Thrust: 1.5, Height: 0.2}
	h.Add(s)

	snaps := h.Snapshots()
	require.Len(t, snaps, 1)
	assert.Equal(t, s, snaps[0])

	latest, ok := h.Latest()
	assert.True(t, ok)
	assert.Equal(t, s, latest)
}

func TestHistory_WindowRemoval(t *testing.T) {
	h := NewHistory(time.Second)
	now := time.Now()

	h.Add(Snapshot{Timestamp: now, Thrust: 1})
	h.Add(Snapshot{Timestamp: now.Add(500 * time.Millisecond), Thrust: 2})
	h.Add(Snapshot{Timestamp: now.Add(1500 * time.Millisecond), Thrust: 3})

	snaps := h.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, 2.0, snaps[0].Thrust)
	assert.Equal(t, 3.0, snaps[1].Thrust)
}

func TestHistory_WindowEdgeInclusive(t *testing.T) {
	h := NewHistory(time.Second)
	now := time.Now()

	h.Add(Snapshot{Timestamp: now, Thrust: 1})
	h.Add(Snapshot{Timestamp: now.Add(time.Second), Thrust: 2})
	require.Len(t, h.Snapshots(), 2)

	h.Add(Snapshot{Timestamp: now.Add(time.Second + time.Millisecond), Thrust: 3})
	snaps := h.Snapshots()
	require.Len(t, snaps, 2)
	assert.Equal(t, 2.0, snaps[0].Thrust)
}

func TestHistory_Peak(t *testing.T) {
	h := NewHistory(200 * time.Millisecond)
	now := time.Now()

	for i, thrust := range []float64{0, 3, 9, 4, 1, 0} {
		h.Add(Snapshot{Timestamp: now.Add(time.Duration(i) * 100 * time.Millisecond), Thrust: thrust})
	}

	// The peak survives after it has left the window.
	assert.Equal(t, 9.0, h.Peak().Thrust)

	h.Reset()
	assert.Equal(t, 0.0, h.Peak().Thrust)
	assert.Empty(t, h.Snapshots())
}

func TestHistory_OnUpdate(t *testing.T) {
	h := NewHistory(10 * time.Second)

	var got [][]Snapshot
	h.OnUpdate(func(snaps []Snapshot) {
		got = append(got, snaps)
	})

	now := time.Now()
	h.Add(Snapshot{Timestamp: now, Thrust: 1})
	h.Add(Snapshot{Timestamp: now.Add(100 * time.Millisecond), Thrust: 2})

	require.Len(t, got, 2)
	assert.Len(t, got[0], 1)
	assert.Len(t, got[1], 2)

	// Callbacks receive copies.
	got[1][0].Thrust = 99
	assert.Equal(t, 1.0, h.Snapshots()[0].Thrust)
}

// TestHistory_NoCallbacksAfterClose tests that callbacks stop once the input
// channel closes and resume after Reset.
func TestHistory_NoCallbacksAfterClose(t *testing.T) {
	h := NewHistory(10 * time.Second)

	var mu sync.Mutex
	count := 0
	h.OnUpdate(func([]Snapshot) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	calls := func() int {
		mu.Lock()
		defer mu.Unlock()
		return count
	}

	input := make(chan Snapshot, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		h.ProcessSnapshots(input)
	}()

	now := time.Now()
	for i := range 3 {
		input <- Snapshot{Timestamp: now.Add(time.Duration(i) * time.Second)}
	}
	close(input)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ProcessSnapshots did not finish within timeout")
	}
	assert.Equal(t, 3, calls())

	h.Add(Snapshot{Timestamp: now.Add(4 * time.Second)})
	assert.Equal(t, 3, calls(), "no callbacks after the input closed")

	h.Reset()
	h.Add(Snapshot{Timestamp: now.Add(5 * time.Second)})
	assert.Equal(t, 4, calls(), "callbacks resume after Reset")
}
