package tlefit

import "math"

// Piecewise exponential atmosphere, cf. Vallado table 8-4. Each band holds the
// base altitude (km), the nominal density at that base (kg/m³) and the scale
// height (km).
var expAtmBands = []struct {
	h0 float64
	ρ0 float64
	H  float64
}{
	{0, 1.225, 7.249},
	{25, 3.899e-2, 6.349},
	{30, 1.774e-2, 6.682},
	{40, 3.972e-3, 7.554},
	{50, 1.057e-3, 8.382},
	{60, 3.206e-4, 7.714},
	{70, 8.770e-5, 6.549},
	{80, 1.905e-5, 5.799},
	{90, 3.396e-6, 5.382},
	{100, 5.297e-7, 5.877},
	{110, 9.661e-8, 7.263},
	{120, 2.438e-8, 9.473},
	{130, 8.484e-9, 12.636},
	{140, 3.845e-9, 16.149},
	{150, 2.070e-9, 22.523},
	{180, 5.464e-10, 29.740},
	{200, 2.789e-10, 37.105},
	{250, 7.248e-11, 45.546},
	{300, 2.418e-11, 53.628},
	{350, 9.518e-12, 53.298},
	{400, 3.725e-12, 58.515},
	{450, 1.585e-12, 60.828},
	{500, 6.967e-13, 63.822},
	{600, 1.454e-13, 71.835},
	{700, 3.614e-14, 88.667},
	{800, 1.170e-14, 124.64},
	{900, 5.245e-15, 181.05},
	{1000, 3.019e-15, 268.00},
}

// atmDensity returns the atmospheric density in kg/m³ at the given altitude
// (km), scaled by the solar flux. The flux scaling is a crude linear proxy
// around the 150 sfu mean so that quiet and active Sun conditions bracket the
// nominal table.
func atmDensity(altitude, f107 float64) float64 {
	if altitude < 0 {
		altitude = 0
	}
	band := expAtmBands[0]
	for _, b := range expAtmBands {
		if altitude < b.h0 {
			break
		}
		band = b
	}
	ρ := band.ρ0 * math.Exp(-(altitude-band.h0)/band.H)
	if f107 > 0 {
		ρ *= 1 + 0.3*(f107-150)/150
	}
	return ρ
}
