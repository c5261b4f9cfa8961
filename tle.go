package tlefit

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TLE is a two-line mean element set. Values are stored the way the text
// format encodes them: angles in degrees, mean motion in rev/day, the
// derivative fields already divided by their conventional factors (ṅ/2, n̈/6)
// and B* in 1/Earth-radii. TLEs are immutable by convention: operate on copies.
type TLE struct {
	SatelliteIdentity
	Epoch          time.Time
	MeanMotion     float64 // rev/day
	MeanMotionDot  float64 // rev/day², already halved per the format
	MeanMotionDDot float64 // rev/day³, already divided by six
	Eccentricity   float64
	Inclination    float64 // deg
	RAAN           float64 // deg
	ArgPerigee     float64 // deg
	MeanAnomaly    float64 // deg
	BStar          float64 // 1/Earth radii
}

// NewTLEFromElements builds a mean element set directly from Keplerian
// elements (a in km, angles in degrees, M the mean anomaly), the usual way to
// seed the differential correction. The osculating elements are used verbatim
// as mean elements; only the mean motion is derived, from √(μ/a³).
func NewTLEFromElements(id SatelliteIdentity, epoch time.Time, a, e, i, Ω, ω, M, bstar float64, body CelestialObject) TLE {
	n := math.Sqrt(body.GM()/math.Pow(a, 3)) * 86400 / (2 * math.Pi)
	return TLE{
		SatelliteIdentity: id,
		Epoch:             epoch.UTC(),
		MeanMotion:        n,
		Eccentricity:      e,
		Inclination:       i,
		RAAN:              Ω,
		ArgPerigee:        ω,
		MeanAnomaly:       M,
		BStar:             bstar,
	}
}

// Lines renders the two 69-column lines, checksums included.
func (t TLE) Lines() (string, string) {
	epoch := t.Epoch.UTC()
	secs := float64(epoch.Hour()*3600+epoch.Minute()*60+epoch.Second()) + float64(epoch.Nanosecond())*1e-9
	doy := float64(epoch.YearDay()) + secs/86400
	intl := fmt.Sprintf("%02d%03d%s", t.LaunchYear%100, t.LaunchNumber, t.LaunchPiece)
	l1 := fmt.Sprintf("1 %05d%s %-8s %02d%012.8f %s %s %s %d %4d",
		t.Number, t.Classification, intl, epoch.Year()%100, doy,
		fmtMeanMotionDot(t.MeanMotionDot), fmtExpField(t.MeanMotionDDot), fmtExpField(t.BStar),
		t.EphemerisType, t.ElementNumber)
	l1 += strconv.Itoa(tleChecksum(l1))
	l2 := fmt.Sprintf("2 %05d %8.4f %8.4f %07.0f %8.4f %8.4f %11.8f%5d",
		t.Number, t.Inclination, t.RAAN, t.Eccentricity*1e7, t.ArgPerigee, t.MeanAnomaly, t.MeanMotion, t.RevolutionNum)
	l2 += strconv.Itoa(tleChecksum(l2))
	return l1, l2
}

// String implements the Stringer interface.
func (t TLE) String() string {
	l1, l2 := t.Lines()
	return l1 + "\n" + l2
}

// ParseTLE parses a two-line element set, validating line lengths and
// checksums. It is the strict inverse of Lines.
func ParseTLE(line1, line2 string) (TLE, error) {
	var t TLE
	if len(line1) != 69 || len(line2) != 69 {
		return t, ConfigurationError{"tle", "lines must be 69 columns"}
	}
	if line1[0] != '1' || line2[0] != '2' {
		return t, ConfigurationError{"tle", "bad line numbers"}
	}
	for lno, line := range []string{line1, line2} {
		if got, want := tleChecksum(line[:68]), int(line[68]-'0'); got != want {
			return t, ConfigurationError{"tle", fmt.Sprintf("line %d checksum %d != %d", lno+1, got, want)}
		}
	}
	var err error
	if t.Number, err = atoiCols(line1[2:7]); err != nil {
		return t, err
	}
	t.Classification = line1[7:8]
	launchYY, err := atoiCols(line1[9:11])
	if err != nil {
		return t, err
	}
	t.LaunchYear = fullYear(launchYY)
	if t.LaunchNumber, err = atoiCols(line1[11:14]); err != nil {
		return t, err
	}
	t.LaunchPiece = strings.TrimSpace(line1[14:17])
	epochYY, err := atoiCols(line1[18:20])
	if err != nil {
		return t, err
	}
	doy, err := parseFloatCols(line1[20:32])
	if err != nil {
		return t, err
	}
	t.Epoch = epochFromYearDoy(fullYear(epochYY), doy)
	if t.MeanMotionDot, err = parseFloatCols(line1[33:43]); err != nil {
		return t, err
	}
	if t.MeanMotionDDot, err = parseExpField(line1[44:52]); err != nil {
		return t, err
	}
	if t.BStar, err = parseExpField(line1[53:61]); err != nil {
		return t, err
	}
	if t.EphemerisType, err = atoiCols(line1[62:63]); err != nil {
		return t, err
	}
	if t.ElementNumber, err = atoiCols(line1[64:68]); err != nil {
		return t, err
	}

	if t.Inclination, err = parseFloatCols(line2[8:16]); err != nil {
		return t, err
	}
	if t.RAAN, err = parseFloatCols(line2[17:25]); err != nil {
		return t, err
	}
	eccDigits, err := atoiCols(line2[26:33])
	if err != nil {
		return t, err
	}
	t.Eccentricity = float64(eccDigits) / 1e7
	if t.ArgPerigee, err = parseFloatCols(line2[34:42]); err != nil {
		return t, err
	}
	if t.MeanAnomaly, err = parseFloatCols(line2[43:51]); err != nil {
		return t, err
	}
	if t.MeanMotion, err = parseFloatCols(line2[52:63]); err != nil {
		return t, err
	}
	if t.RevolutionNum, err = atoiCols(line2[63:68]); err != nil {
		return t, err
	}
	return t, nil
}

// tleChecksum is the modulo-10 sum of the digits in the line, minus signs
// counting one.
func tleChecksum(line string) int {
	sum := 0
	for _, c := range line {
		switch {
		case c >= '0' && c <= '9':
			sum += int(c - '0')
		case c == '-':
			sum++
		}
	}
	return sum % 10
}

// fmtMeanMotionDot renders the ten-column first derivative field, e.g.
// "-.00002182".
func fmtMeanMotionDot(v float64) string {
	s := " "
	if v < 0 {
		s = "-"
	}
	return fmt.Sprintf("%s.%08d", s, int64(math.Round(math.Abs(v)*1e8)))
}

// fmtExpField renders the eight-column ±DDDDD±D exponent notation, with an
// implied leading "0." on the mantissa (e.g. 0.34518e-4 -> " 34518-4").
func fmtExpField(v float64) string {
	s := " "
	if v < 0 {
		s = "-"
	}
	av := math.Abs(v)
	if av < 1e-10 {
		// Below the smallest magnitude a single-digit exponent can encode;
		// flush to the zero field to keep the line at 69 columns.
		return s + "00000-0"
	}
	exp := int(math.Floor(math.Log10(av))) + 1
	digits := int64(math.Round(av / math.Pow(10, float64(exp)) * 1e5))
	if digits >= 100000 {
		// Rounding pushed the mantissa to 1.0.
		digits = 10000
		exp++
	}
	return fmt.Sprintf("%s%05d%+d", s, digits, exp)
}

func parseExpField(field string) (float64, error) {
	if len(field) != 8 {
		return 0, ConfigurationError{"tle", fmt.Sprintf("bad exponent field %q", field)}
	}
	digits, err := atoiCols(field[1:6])
	if err != nil {
		return 0, err
	}
	exp, err := strconv.Atoi(strings.TrimPrefix(field[6:8], "+"))
	if err != nil {
		return 0, ConfigurationError{"tle", fmt.Sprintf("bad exponent in %q", field)}
	}
	v := float64(digits) / 1e5 * math.Pow(10, float64(exp))
	if field[0] == '-' {
		v = -v
	}
	return v, nil
}

func atoiCols(cols string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(cols))
	if err != nil {
		return 0, ConfigurationError{"tle", fmt.Sprintf("bad integer field %q", cols)}
	}
	return v, nil
}

func parseFloatCols(cols string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(cols), 64)
	if err != nil {
		return 0, ConfigurationError{"tle", fmt.Sprintf("bad float field %q", cols)}
	}
	return v, nil
}

// fullYear expands the two-digit TLE year: 57 and above belong to the
// twentieth century.
func fullYear(yy int) int {
	if yy < 57 {
		return 2000 + yy
	}
	return 1900 + yy
}

func epochFromYearDoy(year int, doy float64) time.Time {
	t0 := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t0.Add(time.Duration(math.Round((doy - 1) * 86400 * 1e9)))
}
