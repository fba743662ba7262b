//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"machine"
	"strconv"
	"time"

	"tinygo.org/x/drivers/bmp280"
)

var (
	adcThrust machine.ADC
	uart      = machine.UART0
	baro      bmp280.Device
	baroOK    bool

	// Load cell averaging
	thrustSum   uint32
	thrustCount int

	lastADCRead time.Time

	line []byte
)

func main() {
	PIN_THRUST_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})
	adcThrust = machine.ADC{Pin: PIN_THRUST_ADC}
	adcThrust.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	machine.I2C0.Configure(machine.I2CConfig{})
	baro = bmp280.New(machine.I2C0)
	baroOK = baro.Connected()
	if baroOK {
		baro.Configure(bmp280.STANDBY_125MS, bmp280.FILTER_4X, bmp280.SAMPLING_16X, bmp280.SAMPLING_16X, bmp280.MODE_NORMAL)
	}

	line = make([]byte, 0, 64)
	lastADCRead = time.Now()

	for {
		now := time.Now()

		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			thrustSum += uint32(adcThrust.Get())
			thrustCount++
			lastADCRead = now
		}

		if thrustCount >= NUM_SAMPLES {
			outputFrame()
			thrustSum = 0
			thrustCount = 0
		}

		time.Sleep(100 * time.Microsecond)
	}
}

// outputFrame writes one "unix_micros,thrust_adc,pressure_pa,temperature_c"
// line. Barometer fields are left empty when the read fails.
func outputFrame() {
	// Get() returns 16-bit left-aligned samples.
	thrust := uint16(thrustSum/uint32(thrustCount)) >> (16 - ADC_RESOLUTION)

	line = line[:0]
	line = strconv.AppendInt(line, time.Now().UnixNano()/1000, 10)
	line = append(line, ',')
	line = strconv.AppendUint(line, uint64(thrust), 10)
	line = append(line, ',')

	var pressure, temperature int32
	var perr, terr error = errNoBaro, errNoBaro
	if baroOK {
		pressure, perr = baro.ReadPressure()       // milli-Pa
		temperature, terr = baro.ReadTemperature() // milli-°C
	}
	if perr == nil {
		line = appendMilli(line, pressure)
	}
	line = append(line, ',')
	if terr == nil {
		line = appendMilli(line, temperature)
	}
	line = append(line, '\n')

	uart.Write(line)
}

// appendMilli appends v/1000 with three decimals.
func appendMilli(b []byte, v int32) []byte {
	if v < 0 {
		b = append(b, '-')
		v = -v
	}
	b = strconv.AppendInt(b, int64(v/1000), 10)
	b = append(b, '.')
	frac := v % 1000
	if frac < 100 {
		b = append(b, '0')
	}
	if frac < 10 {
		b = append(b, '0')
	}
	return strconv.AppendInt(b, int64(frac), 10)
}

type baroError struct{}

func (baroError) Error() string { return "barometer not connected" }

var errNoBaro error = baroError{}
