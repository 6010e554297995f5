// Package units provides pure unit and physics conversions for weather telemetry.
package units

// CToF converts a temperature from Celsius to Fahrenheit
func CToF(tempC float64) float64 {
	return (tempC * 1.8) + 32
}

// MSToMPH converts a speed from meters/second to miles/hour
func MSToMPH(speedMS float64) float64 {
	return speedMS * 2.237
}

// KnotsCorrection corrects a wind speed that the sensor reports in knots
func KnotsCorrection(speed float64) float64 {
	return speed * (1 / 0.868976)
}

// KPHToMPH converts a speed from kilometers/hour to miles/hour
func KPHToMPH(speedKPH float64) float64 {
	return speedKPH * 0.621371
}

// PaToInHg converts a pressure from Pascals to inches of mercury
func PaToInHg(pressurePa float64) float64 {
	return pressurePa * 0.02953
}

// MMToInches converts a length from millimeters to inches
func MMToInches(mm float64) float64 {
	return mm * 0.0393701
}

// DewPoint approximates the dew point from temperature and relative humidity
// using a linear fit. Temperature and result are in the same unit.
func DewPoint(temp, rh float64) float64 {
	return temp - 0.36*(100-rh)
}

// CorrectWindDirection rotates a raw bearing by the given correction in
// degrees and normalizes the result into [0, 360).
func CorrectWindDirection(deg, correction float64) float64 {
	corrected := deg + correction
	for corrected < 0 {
		corrected += 360
	}
	for corrected >= 360 {
		corrected -= 360
	}
	return corrected
}
