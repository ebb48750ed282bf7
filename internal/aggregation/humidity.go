package aggregation

import "math"

// magnusRH computes relative humidity as a percentage from temperature
// and dewpoint in °C using the Magnus formula (spec.md §4.B):
//
//	RH = 100 * exp(17.625*Td/(243.04+Td)) / exp(17.625*T/(243.04+T))
func magnusRH(temperatureC, dewpointC float64) float64 {
	num := math.Exp(17.625 * dewpointC / (243.04 + dewpointC))
	den := math.Exp(17.625 * temperatureC / (243.04 + temperatureC))
	return 100 * num / den
}
