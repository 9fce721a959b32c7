package storage

import (
	"fmt"
	"path"
	"regexp"
	"time"
)

var pathComponentPattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,127}$`)

// BuildArchivePath returns the object key for one page of raw FDIC records,
// partitioned by dataset and run date so downstream scans can prune by day.
func BuildArchivePath(dataset string, runTime time.Time, page int) (string, error) {
	if err := validatePathComponent(dataset, "dataset"); err != nil {
		return "", err
	}
	if page < 0 {
		return "", fmt.Errorf("page must be >= 0")
	}

	ts := runTime.UTC()
	return path.Join(
		dataset,
		fmt.Sprintf("date=%04d-%02d-%02d", ts.Year(), ts.Month(), ts.Day()),
		fmt.Sprintf("page-%05d.parquet", page),
	), nil
}

// BuildStatePath returns the object key for a snapshot of the ingest
// watermark taken after a successful run.
func BuildStatePath(runTime time.Time) (string, error) {
	ts := runTime.UTC()
	return path.Join(
		"state",
		fmt.Sprintf("run-%s.json", ts.Format("20060102T150405Z")),
	), nil
}

func validatePathComponent(value, field string) error {
	if !pathComponentPattern.MatchString(value) {
		return fmt.Errorf("invalid %s: %q", field, value)
	}
	return nil
}
