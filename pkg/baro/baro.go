// Package baro converts between barometric pressure and altitude using the
// international barometric formula, the same approximation BMP280 vendor
// libraries use.
package baro

import "github.com/chewxy/math32"

const (
	// StandardSeaLevelHPa is the ISA sea level pressure.
	StandardSeaLevelHPa = 1013.25

	scaleHeight = 44330.0 // meters
	exponent    = 0.1903
)

// Altitude returns the altitude in meters for pressurePa given the sea level
// reference pressure in hPa.
func Altitude(pressurePa, seaLevelHPa float32) float32 {
	hpa := pressurePa / 100
	return scaleHeight * (1 - math32.Pow(hpa/seaLevelHPa, exponent))
}

// Pressure is the inverse of Altitude: it returns the pressure in Pa at
// altitudeM meters for the given sea level reference in hPa.
func Pressure(altitudeM, seaLevelHPa float32) float32 {
	return seaLevelHPa * 100 * math32.Pow(1-altitudeM/scaleHeight, 1/exponent)
}
