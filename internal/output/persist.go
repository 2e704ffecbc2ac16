package output

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/girste/cyberaudit/internal/errors"
	"github.com/girste/cyberaudit/internal/report"
)

const (
	filenamePrefix = "cyberaudit_report_"
	timestampFmt   = "2006-01-02_15-04-05"

	// Reports may hold environment secrets
	reportFileMode = 0o600
)

// ReportFilename returns the file name a report taken at t is saved under
func ReportFilename(t time.Time) string {
	return filenamePrefix + t.Format(timestampFmt) + ".json"
}

// SaveReport writes rep as indented JSON into dir and returns the path
func SaveReport(dir string, rep *report.Report, now time.Time) (string, error) {
	data, err := rep.MarshalIndent()
	if err != nil {
		return "", errors.Wrap(errors.ErrFileOperation, "encode report: %v", err)
	}

	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ReportFilename(now))
	if err := os.WriteFile(path, data, reportFileMode); err != nil {
		return "", errors.Wrap(errors.ErrFileOperation, "write %s: %v", path, err)
	}
	return path, nil
}

// PrintJSON writes rep as indented JSON followed by a newline
func PrintJSON(w io.Writer, rep *report.Report) error {
	data, err := rep.MarshalIndent()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}
