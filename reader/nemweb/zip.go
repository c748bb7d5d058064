package nemweb

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

var errNoCSVEntry = errors.New("no CSV entry in archive")

// firstCSV extracts the first CSV entry from a report ZIP. Report archives
// carry exactly one CSV each.
func firstCSV(rawZip []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(rawZip), int64(len(rawZip)))
	if err != nil {
		return nil, err
	}
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToUpper(f.Name), ".CSV") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, errNoCSVEntry
}

// innerZipsByDate extracts nested ZIP entries whose names contain any of the
// given date substrings (YYYYMMDD). Monthly archives nest one daily ZIP per
// day; recursion is bounded to this single level.
func innerZipsByDate(rawZip []byte, dateSubstrings ...string) ([][]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(rawZip), int64(len(rawZip)))
	if err != nil {
		return nil, err
	}

	var inner [][]byte
	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".zip") {
			continue
		}
		if len(dateSubstrings) > 0 && !nameContainsAny(f.Name, dateSubstrings) {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		inner = append(inner, content)
	}
	return inner, nil
}

// csvFromNestedZip returns CSV content from an archive that is either a plain
// report ZIP or a container of daily ZIPs, unwrapping at most one level.
func csvFromNestedZip(rawZip []byte, dateSubstring string) ([]byte, error) {
	csv, err := firstCSV(rawZip)
	if err == nil {
		return csv, nil
	}
	if !errors.Is(err, errNoCSVEntry) {
		return nil, err
	}

	inner, err := innerZipsByDate(rawZip, dateSubstring)
	if err != nil {
		return nil, err
	}
	for _, nested := range inner {
		if csv, err := firstCSV(nested); err == nil {
			return csv, nil
		}
	}
	return nil, fmt.Errorf("no CSV for %s in nested archive", dateSubstring)
}

func nameContainsAny(name string, substrings []string) bool {
	for _, s := range substrings {
		if strings.Contains(name, s) {
			return true
		}
	}
	return false
}
