package telemetry

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/itohio/thruststand/pkg/meter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() meter.Snapshot {
	return meter.Snapshot{
		Time:         1234 * time.Millisecond,
		Thrust:       9.81,
		Height:       0.35,
		Pressure:     100812.5,
		Temperature:  21.4,
		Stability:    0.72,
		TestTime:     5500 * time.Millisecond,
		TestRunning:  true,
		Burning:      true,
		BurnDuration: 1300 * time.Millisecond,
		MaxHeight:    1.2,
	}
}

func TestNewCodec(t *testing.T) {
	c, err := NewCodec("json")
	require.NoError(t, err)
	assert.Equal(t, EncodingJSON, c.Encoding())
	assert.Equal(t, websocket.TextMessage, c.FrameType())

	c, err = NewCodec("cbor")
	require.NoError(t, err)
	assert.Equal(t, EncodingCBOR, c.Encoding())
	assert.Equal(t, websocket.BinaryMessage, c.FrameType())

	_, err = NewCodec("xml")
	assert.Error(t, err)
}

func TestCodec_JSONFieldNames(t *testing.T) {
	c, err := NewCodec(EncodingJSON)
	require.NoError(t, err)

	data, err := c.Marshal(FromSnapshot(testSnapshot()))
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))

	assert.Equal(t, map[string]any{
		"time":        1234.0,
		"thrust":      9.81,
		"height":      0.35,
		"pressure":    100812.5,
		"temperature": 21.4,
		"stability":   0.72,
		"testtime":    5500.0,
		"testRunning": true,
		"burning":     true,
		"burnTime":    1300.0,
		"maxHeight":   1.2,
	}, fields)
}

func TestCodec_CBORDeterministic(t *testing.T) {
	c, err := NewCodec(EncodingCBOR)
	require.NoError(t, err)

	m := FromSnapshot(testSnapshot())
	a, err := c.Marshal(m)
	require.NoError(t, err)
	b, err := c.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var got Message
	require.NoError(t, c.Unmarshal(a, &got))
	assert.Equal(t, m, got)
}

func TestDecodeFrame(t *testing.T) {
	m := FromSnapshot(testSnapshot())

	for _, enc := range []string{EncodingJSON, EncodingCBOR} {
		t.Run(enc, func(t *testing.T) {
			c, err := NewCodec(enc)
			require.NoError(t, err)
			data, err := c.Marshal(m)
			require.NoError(t, err)

			got, err := DecodeFrame(c.FrameType(), data)
			require.NoError(t, err)
			assert.Equal(t, m, got)
		})
	}

	_, err := DecodeFrame(websocket.TextMessage, []byte("START_TEST"))
	assert.Error(t, err)
	_, err = DecodeFrame(websocket.PingMessage, nil)
	assert.Error(t, err)
}

func TestMessage_SnapshotRoundTrip(t *testing.T) {
	snap := testSnapshot()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	snap.Timestamp = at

	assert.Equal(t, snap, FromSnapshot(snap).Snapshot(at))
}
