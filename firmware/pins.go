//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 1  // Load cell ADC read interval in milliseconds
	NUM_SAMPLES        = 20 // Number of load cell samples averaged per frame

	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// Load cell amplifier output
	PIN_THRUST_ADC = machine.A1

	// Serial configuration
	// Format "unix_micros,thrust_adc,pressure_pa,temperature_c\n"
	// Example: "1234567890123456,4095,101325.000,-12.345\n" = ~42 bytes max per line
	// 50 frames/sec * 42 bytes/line = 2,100 bytes/sec
	// 115200 baud 8N1 provides ~5.5x headroom (11,520 bytes/sec)
	UART_BAUD_RATE = 115200
)
