package tlefit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"
)

// SpaceWeather provides daily solar activity readings to the drag model. It is
// injected explicitly into AtmosphericDrag rather than registered in a
// process-global store, so tests can swap in a constant provider.
type SpaceWeather interface {
	// Activity returns the F10.7 solar flux (sfu) and the planetary Ap index
	// applicable at the given date.
	Activity(dt time.Time) (f107, ap float64, err error)
}

// ConstantSpaceWeather returns the same readings for any date.
type ConstantSpaceWeather struct {
	F107 float64
	Ap   float64
}

// Activity implements the SpaceWeather interface.
func (c ConstantSpaceWeather) Activity(dt time.Time) (float64, float64, error) {
	return c.F107, c.Ap, nil
}

type bulletinEntry struct {
	day  time.Time
	f107 float64
	ap   float64
}

// BulletinArchive is a read-only archive of daily solar activity bulletins,
// loaded once at startup. Records are CSV lines `YYYY-MM-DD,f107,ap`.
type BulletinArchive struct {
	entries []bulletinEntry
}

// LoadBulletinArchive loads every bulletin file matching the file-name pattern
// in the given directory. The archive covers historical days and, usually, a
// predicted tail; dates past the last record reuse it.
func LoadBulletinArchive(dir, pattern string) (*BulletinArchive, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, ConfigurationError{"spaceweather", fmt.Sprintf("bad pattern %q: %s", pattern, err)}
	}
	if len(matches) == 0 {
		return nil, ConfigurationError{"spaceweather", fmt.Sprintf("no bulletin matches %q in %s", pattern, dir)}
	}
	arch := &BulletinArchive{}
	for _, name := range matches {
		if err := arch.loadFile(name); err != nil {
			return nil, err
		}
	}
	sort.Slice(arch.entries, func(i, j int) bool { return arch.entries[i].day.Before(arch.entries[j].day) })
	return arch, nil
}

// LoadBulletins loads the archive from the configured data directory.
func LoadBulletins(pattern string) (*BulletinArchive, error) {
	return LoadBulletinArchive(tlefitConfig().dataDir, pattern)
}

func (b *BulletinArchive) loadFile(name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return ConfigurationError{"spaceweather", err.Error()}
	}
	defer fh.Close()
	rdr := csv.NewReader(fh)
	rdr.Comment = '#'
	rdr.FieldsPerRecord = 3
	records, err := rdr.ReadAll()
	if err != nil {
		return ConfigurationError{"spaceweather", fmt.Sprintf("%s: %s", name, err)}
	}
	for _, rec := range records {
		day, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			return ConfigurationError{"spaceweather", fmt.Sprintf("%s: bad date %q", name, rec[0])}
		}
		f107, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return ConfigurationError{"spaceweather", fmt.Sprintf("%s: bad f10.7 %q", name, rec[1])}
		}
		ap, err := strconv.ParseFloat(rec[2], 64)
		if err != nil {
			return ConfigurationError{"spaceweather", fmt.Sprintf("%s: bad ap %q", name, rec[2])}
		}
		b.entries = append(b.entries, bulletinEntry{day.UTC(), f107, ap})
	}
	return nil
}

// Activity implements the SpaceWeather interface. Dates before the first
// bulletin are an error; dates after the last reuse the final (predicted)
// record.
func (b *BulletinArchive) Activity(dt time.Time) (float64, float64, error) {
	if len(b.entries) == 0 {
		return 0, 0, ConfigurationError{"spaceweather", "empty bulletin archive"}
	}
	dt = dt.UTC()
	if dt.Before(b.entries[0].day) {
		return 0, 0, ConfigurationError{"spaceweather", fmt.Sprintf("no bulletin covers %s", dt)}
	}
	// Index of the first entry strictly after dt.
	idx := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].day.After(dt) })
	e := b.entries[idx-1]
	return e.f107, e.ap, nil
}
