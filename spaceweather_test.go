package tlefit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConstantSpaceWeather(t *testing.T) {
	w := ConstantSpaceWeather{F107: 150, Ap: 15}
	f107, ap, err := w.Activity(time.Now())
	if err != nil || f107 != 150 || ap != 15 {
		t.Fatalf("constant weather: %f %f %v", f107, ap, err)
	}
}

func TestBulletinArchive(t *testing.T) {
	dir := t.TempDir()
	bulletin := `# daily solar activity
2019-01-01,150.0,12
2019-01-02,155.5,15
2019-01-03,148.2,9
`
	if err := os.WriteFile(filepath.Join(dir, "sw-2019.csv"), []byte(bulletin), 0644); err != nil {
		t.Fatal(err)
	}
	arch, err := LoadBulletinArchive(dir, "sw-*.csv")
	if err != nil {
		t.Fatal(err)
	}

	// Mid-day lookup reuses the daily record.
	f107, ap, err := arch.Activity(time.Date(2019, 1, 2, 13, 37, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if f107 != 155.5 || ap != 15 {
		t.Fatalf("2019-01-02: f10.7=%f ap=%f", f107, ap)
	}

	// A date before the first bulletin is an error.
	if _, _, err = arch.Activity(time.Date(2018, 12, 31, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("accepted a date before the archive")
	}

	// Dates past the end reuse the last (predicted) record.
	f107, ap, err = arch.Activity(time.Date(2019, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatal(err)
	}
	if f107 != 148.2 || ap != 9 {
		t.Fatalf("predicted tail: f10.7=%f ap=%f", f107, ap)
	}
}

func TestBulletinArchiveErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := LoadBulletinArchive(dir, "sw-*.csv"); err == nil {
		t.Fatal("accepted an empty directory")
	}
	if err := os.WriteFile(filepath.Join(dir, "sw-bad.csv"), []byte("not-a-date,150,12\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadBulletinArchive(dir, "sw-*.csv"); err == nil {
		t.Fatal("accepted a malformed bulletin")
	}
}
