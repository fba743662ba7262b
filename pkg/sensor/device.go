package sensor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the baud rate the acquisition firmware uses.
	DefaultBaudRate = 115200
	// DefaultBufferSize is the default size for the frames channel buffer.
	DefaultBufferSize = 100
	// ADCMax is the full-scale reading of the 12-bit thrust ADC.
	ADCMax = 4095
)

// RawFrame is one measurement frame from the acquisition board.
type RawFrame struct {
	Timestamp     time.Time // Host receive time
	DeviceMicros  int64     // Board clock, unix microseconds
	Thrust        uint16    // 12-bit load cell ADC reading (0-4095)
	Pressure      float64   // Pa
	PressureOK    bool      // False when the barometer read failed
	Temperature   float64   // °C
	TemperatureOK bool      // False when the barometer read failed
}

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the acquisition board.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      serial.Port
	frames    chan RawFrame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		frames:   make(chan RawFrame, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{Name: name, Description: name})
	}
	return result, nil
}

// Connect opens the serial port and starts reading frames.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return fmt.Errorf("already connected")
	}

	port, err := serial.Open(d.port, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.conn = port
	d.connected = true

	go d.readFrames()

	return nil
}

// Close closes the connection and stops reading frames.
func (d *Serial) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.connected {
		return nil
	}

	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false

	return nil
}

// Frames returns the channel of received frames. It is closed once the
// reader stops.
func (d *Serial) Frames() <-chan RawFrame {
	return d.frames
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

// readFrames reads lines from the serial port and parses them into RawFrame.
func (d *Serial) readFrames() {
	defer close(d.frames)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic in readFrames: %v", r)
		}
	}()

	d.mu.RLock()
	conn := d.conn
	d.mu.RUnlock()

	scan(d.ctx, conn, d.frames)
}

// scan parses lines from r into frames until r fails or ctx is done. Frames
// are dropped when out is full so a stalled consumer never blocks the port.
func scan(ctx context.Context, r io.Reader, out chan<- RawFrame) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		frame, err := parseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}
		frame.Timestamp = time.Now()

		select {
		case out <- frame:
		case <-ctx.Done():
			return
		default:
			log.Printf("Frames channel full, dropping frame")
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF && ctx.Err() == nil {
		log.Printf("Error reading from serial port: %v", err)
	}
}

// parseLine parses a line from the acquisition board into a RawFrame.
// Format: unix_micros,thrust_adc,pressure_pa,temperature_c
// Example: 1234567890123,2048,100812.5,21.37
// Empty pressure or temperature fields mark a failed barometer read.
func parseLine(line string) (RawFrame, error) {
	parts := strings.Split(line, ",")
	if len(parts) != 4 {
		return RawFrame{}, fmt.Errorf("invalid line format: expected 4 comma-separated values, got %d", len(parts))
	}

	micros, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return RawFrame{}, fmt.Errorf("invalid timestamp: %w", err)
	}

	thrust, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return RawFrame{}, fmt.Errorf("invalid thrust reading: %w", err)
	}
	if thrust > ADCMax {
		return RawFrame{}, fmt.Errorf("thrust reading out of range: %d (max %d)", thrust, ADCMax)
	}

	frame := RawFrame{
		DeviceMicros: micros,
		Thrust:       uint16(thrust),
	}

	if parts[2] != "" {
		frame.Pressure, err = strconv.ParseFloat(parts[2], 64)
		if err != nil {
			return RawFrame{}, fmt.Errorf("invalid pressure: %w", err)
		}
		frame.PressureOK = true
	}

	if parts[3] != "" {
		frame.Temperature, err = strconv.ParseFloat(parts[3], 64)
		if err != nil {
			return RawFrame{}, fmt.Errorf("invalid temperature: %w", err)
		}
		frame.TemperatureOK = true
	}

	return frame, nil
}
