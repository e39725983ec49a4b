package normalize

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	dErrors "certgen/pkg/domain-errors"
)

const bom = "\ufeff"

// ReadCSV reads a roster with a header row. Empty cells are left out of the
// row so they normalize as absent. Malformed input is a validation error.
func ReadCSV(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, dErrors.New(dErrors.CodeValidation, "roster is empty: a header row is required")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "roster is not valid CSV")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}

	var rows []RawRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeValidation, "roster is not valid CSV")
		}
		row := make(RawRow, len(header))
		blank := true
		for i, cell := range rec {
			if i >= len(header) || header[i] == "" || strings.TrimSpace(cell) == "" {
				continue
			}
			if _, dup := row[header[i]]; dup {
				continue
			}
			row[header[i]] = cell
			blank = false
		}
		if blank {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}
