package common

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// ParseCSVRows parses delimited data into one map per row, keyed by the
// trimmed header names. Upstream files disagree on column spellings, so
// rows are kept as raw string maps and callers resolve fields through
// ordered candidate-name lists.
func ParseCSVRows(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV record: %w", err)
		}
		row := make(map[string]string, len(header))
		for i, value := range record {
			if i >= len(header) || header[i] == "" {
				continue
			}
			row[header[i]] = value
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ParseZipCSVRows extracts the first entry of a zip archive and parses it
// as CSV. Exchange bulk files ship as a compressed archive containing
// exactly one tabular file.
func ParseZipCSVRows(data []byte) ([]map[string]string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}
	if len(archive.File) == 0 {
		return nil, fmt.Errorf("empty zip archive")
	}

	entry, err := archive.File[0].Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open zip entry %s: %w", archive.File[0].Name, err)
	}
	defer entry.Close()

	rows, err := ParseCSVRows(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", archive.File[0].Name, err)
	}
	return rows, nil
}
