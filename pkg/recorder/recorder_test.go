package recorder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/itohio/thruststand/pkg/clock"
	"github.com/itohio/thruststand/pkg/meter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClock() *clock.Manual {
	return clock.NewManual(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
}

func TestOpen_WritesHeader(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, "flight_data_", newClock(), time.Second)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	assert.Equal(t, filepath.Join(dir, "flight_data_0.csv"), r.Name())
	data, err := os.ReadFile(r.Name())
	require.NoError(t, err)
	assert.Equal(t, "Time,Thrust,Height,Pressure,Temperature,Stability\n", string(data))
}

func TestOpen_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "flight_data_0.csv")
	require.NoError(t, os.WriteFile(existing, []byte("keep me"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flight_data_2.csv"), []byte("me too"), 0o644))

	clk := newClock()
	r1, err := Open(dir, "flight_data_", clk, time.Second)
	require.NoError(t, err)
	defer r1.Close()
	r2, err := Open(dir, "flight_data_", clk, time.Second)
	require.NoError(t, err)
	defer r2.Close()

	assert.Equal(t, filepath.Join(dir, "flight_data_1.csv"), r1.Name())
	assert.Equal(t, filepath.Join(dir, "flight_data_3.csv"), r2.Name())

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(data))
}

func TestOpen_BadDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := Open(filepath.Join(blocker, "logs"), "flight_data_", newClock(), time.Second)
	assert.Error(t, err)
}

func TestRecorder_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, "flight_data_", newClock(), time.Second)
	require.NoError(t, err)

	snaps := []meter.Snapshot{
		{Time: 0, Thrust: 0, Height: 0, Pressure: 101325, Temperature: 21.5, Stability: 0},
		{Time: 100 * time.Millisecond, Thrust: 12.3456789012345, Height: -0.0421, Pressure: 100812.51, Temperature: 21.53, Stability: 3.7032},
		{Time: 1300 * time.Millisecond, Thrust: 1e-9, Height: 123.456, Pressure: 99999.999999, Temperature: -4.25, Stability: 0.1 + 0.2},
		{Time: 65*time.Second + 7*time.Millisecond, Thrust: 49.987789987789985, Height: 3.0000000000000004, Pressure: 1.2e5, Temperature: 0, Stability: 15.123},
	}
	for _, s := range snaps {
		require.NoError(t, r.Append(s))
	}
	require.NoError(t, r.Close())

	rows, err := ReadFile(r.Name())
	require.NoError(t, err)

	want := make([]Row, len(snaps))
	for i, s := range snaps {
		want[i] = Row{
			Time:        s.Time,
			Thrust:      s.Thrust,
			Height:      s.Height,
			Pressure:    s.Pressure,
			Temperature: s.Temperature,
			Stability:   s.Stability,
		}
	}
	if diff := cmp.Diff(want, rows, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestRecorder_TimeTruncatedToMillis(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, "f", newClock(), time.Second)
	require.NoError(t, err)
	require.NoError(t, r.Append(meter.Snapshot{Time: 1234567 * time.Microsecond}))
	require.NoError(t, r.Close())

	rows, err := ReadFile(r.Name())
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1234*time.Millisecond, rows[0].Time)
}

func TestRecorder_FlushInterval(t *testing.T) {
	dir := t.TempDir()
	clk := newClock()
	r, err := Open(dir, "flight_data_", clk, time.Second)
	require.NoError(t, err)
	defer r.Close()

	lines := func() int {
		data, err := os.ReadFile(r.Name())
		require.NoError(t, err)
		return strings.Count(string(data), "\n")
	}

	for range 9 {
		clk.Advance(100 * time.Millisecond)
		require.NoError(t, r.Append(meter.Snapshot{Thrust: 1}))
	}
	assert.Equal(t, 1, lines(), "rows stay buffered within the flush interval")

	clk.Advance(100 * time.Millisecond)
	require.NoError(t, r.Append(meter.Snapshot{Thrust: 1}))
	assert.Equal(t, 11, lines())

	clk.Advance(100 * time.Millisecond)
	require.NoError(t, r.Append(meter.Snapshot{Thrust: 1}))
	assert.Equal(t, 11, lines())

	require.NoError(t, r.Flush())
	assert.Equal(t, 12, lines())
}

func TestRecorder_AppendAfterClose(t *testing.T) {
	r, err := Open(t.TempDir(), "f", newClock(), time.Second)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	assert.Error(t, r.Append(meter.Snapshot{}))
	assert.NoError(t, r.Flush())
}

func TestRecorder_NameAfterClose(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir, "f", newClock(), time.Second)
	require.NoError(t, err)
	name := r.Name()
	require.NoError(t, r.Close())

	assert.NotPanics(t, func() { name = r.Name() })
	assert.Equal(t, filepath.Join(dir, "f0.csv"), name)
}

func TestParseRow_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		record []string
	}{
		{"too few fields", []string{"0", "1", "2"}},
		{"bad time", []string{"1.5", "1", "2", "3", "4", "5"}},
		{"bad thrust", []string{"0", "x", "2", "3", "4", "5"}},
		{"bad stability", []string{"0", "1", "2", "3", "4", ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRow(tt.record)
			assert.Error(t, err)
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
