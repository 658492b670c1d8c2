// Package export writes views out of the process.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"OAIHealthCheck/internal/domain"
)

// WriteCSV writes the view with a header row in column order.
// Missing cells are written as empty strings.
func WriteCSV(w io.Writer, view domain.View) error {
	cw := csv.NewWriter(w)
	columns := view.Columns()

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(columns))
	for i, row := range view.Rows() {
		for j, col := range columns {
			record[j] = row.Get(col).Or("")
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row %d: %w", i, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses a file produced by WriteCSV. Two things do not survive the
// round trip: empty cells come back missing, so a present empty string is
// lost, and a "\r\n" inside a cell comes back as "\n". A lone "\r" is kept.
func ReadCSV(r io.Reader) (domain.View, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.View{}, nil
		}
		return domain.View{}, fmt.Errorf("read csv header: %w", err)
	}

	var rows []domain.Row
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.View{}, fmt.Errorf("read csv row %d: %w", len(rows), err)
		}

		cells := make(map[string]string, len(header))
		for i, col := range header {
			if record[i] != "" {
				cells[col] = record[i]
			}
		}
		rows = append(rows, domain.NewRow(cells))
	}

	return domain.NewView(header, rows), nil
}
