package sensor

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    RawFrame
		wantErr bool
	}{
		{
			name: "valid line - all channels",
			line: "1234567890123,2048,100812.5,21.37",
			want: RawFrame{
				DeviceMicros:  1234567890123,
				Thrust:        2048,
				Pressure:      100812.5,
				PressureOK:    true,
				Temperature:   21.37,
				TemperatureOK: true,
			},
		},
		{
			name: "valid line - barometer failed",
			line: "1234567890123,12,,",
			want: RawFrame{
				DeviceMicros: 1234567890123,
				Thrust:       12,
			},
		},
		{
			name: "valid line - only temperature missing",
			line: "5,4095,101325,",
			want: RawFrame{
				DeviceMicros: 5,
				Thrust:       4095,
				Pressure:     101325,
				PressureOK:   true,
			},
		},
		{
			name:    "invalid - wrong number of fields",
			line:    "1234567890123,2048,100812.5",
			wantErr: true,
		},
		{
			name:    "invalid - too many fields",
			line:    "1234567890123,2048,100812.5,21.0,extra",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric timestamp",
			line:    "abc,2048,100812.5,21.0",
			wantErr: true,
		},
		{
			name:    "invalid - thrust out of range",
			line:    "1234567890123,5000,100812.5,21.0",
			wantErr: true,
		},
		{
			name:    "invalid - negative thrust",
			line:    "1234567890123,-1,100812.5,21.0",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric pressure",
			line:    "1234567890123,2048,high,21.0",
			wantErr: true,
		},
		{
			name:    "invalid - non-numeric temperature",
			line:    "1234567890123,2048,100812.5,warm",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScan_SkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		"1,100,101325,20.5",
		"",
		"garbage",
		"2,200,,",
		"3,300,101300,20.6",
	}, "\n")

	out := make(chan RawFrame, 10)
	scan(context.Background(), strings.NewReader(input), out)
	close(out)

	var got []RawFrame
	for f := range out {
		got = append(got, f)
	}

	require.Len(t, got, 3)
	assert.Equal(t, uint16(100), got[0].Thrust)
	assert.False(t, got[1].PressureOK)
	assert.Equal(t, int64(3), got[2].DeviceMicros)
	for _, f := range got {
		assert.False(t, f.Timestamp.IsZero())
	}
}

func TestScan_DropsWhenFull(t *testing.T) {
	input := "1,1,1,1\n2,2,2,2\n3,3,3,3\n"
	out := make(chan RawFrame, 1)
	scan(context.Background(), strings.NewReader(input), out)

	f := <-out
	assert.Equal(t, int64(1), f.DeviceMicros)
	assert.Empty(t, out)
}

func TestNew(t *testing.T) {
	dev := New("/dev/ttyACM0", 57600, 10)
	assert.NotNil(t, dev)
	assert.Equal(t, "/dev/ttyACM0", dev.port)
	assert.Equal(t, 57600, dev.baudRate)
	assert.Equal(t, 10, dev.bufSize)
	assert.NotNil(t, dev.frames)
	assert.False(t, dev.IsConnected())
}

func TestNew_Defaults(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0)
	assert.Equal(t, DefaultBaudRate, dev.baudRate)
	assert.Equal(t, DefaultBufferSize, dev.bufSize)
}

func TestSerial_CloseNotConnected(t *testing.T) {
	dev := New("/dev/ttyACM0", 0, 0)
	assert.NoError(t, dev.Close())
}

func TestSerial_ConnectMissingPort(t *testing.T) {
	dev := New("/dev/does-not-exist-thruststand", 0, 0)
	err := dev.Connect()
	assert.Error(t, err)
	assert.False(t, dev.IsConnected())
}
