package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
)

// Row is one data record keyed by header name, the same observable shape a
// CSV parser hands a browser client.
type Row map[string]string

// ParsedFile is the outcome of parsing one uploaded delimited file.
type ParsedFile struct {
	Headers []string
	Rows    []Row
}

// Parse reads a delimited file: first row is the header, later rows are
// records keyed by those headers. Blank lines are skipped and a fixed column
// count is not assumed: short rows leave the missing fields empty, long
// rows drop the excess.
func Parse(r io.Reader) (*ParsedFile, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	var headers []string
	var rows []Row
	for _, record := range records {
		if isBlank(record) {
			continue
		}
		if headers == nil {
			headers = make([]string, len(record))
			for i, h := range record {
				headers[i] = strings.TrimSpace(h)
			}
			continue
		}
		row := make(Row, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	if headers == nil {
		return nil, fmt.Errorf("parse csv: file has no header row")
	}
	return &ParsedFile{Headers: headers, Rows: rows}, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// DetectPhoneColumn finds the phone-number column by matching header names
// case-insensitively against well-known substrings. First match wins.
func DetectPhoneColumn(headers []string) (string, bool) {
	for _, header := range headers {
		lower := strings.ToLower(header)
		if strings.Contains(lower, "phone") ||
			strings.Contains(lower, "number") ||
			strings.Contains(lower, "mobile") {
			return header, true
		}
	}
	return "", false
}
