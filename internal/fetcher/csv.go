package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures CSV parsing.
type CSVOptions struct {
	Delimiter  rune // default ','
	LazyQuotes bool
	TrimSpace  bool
	// Dedupe drops rows identical to an earlier row.
	Dedupe bool
}

// StreamCSV reads r and sends every row, header included, on the row
// channel. Both channels are closed when reading completes; at most one
// error is sent.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		reader := csv.NewReader(r)
		if opts.Delimiter != 0 {
			reader.Comma = opts.Delimiter
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1

		seen := make(map[string]struct{})
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}
			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}
			if opts.Dedupe {
				k := strings.Join(record, "\x1f")
				if _, dup := seen[k]; dup {
					continue
				}
				seen[k] = struct{}{}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// Record is one data row keyed by header name.
type Record map[string]string

// ReadCSVRecords reads a CSV with a header row and returns the data rows
// keyed by column name. Short rows leave the missing columns empty.
func ReadCSVRecords(ctx context.Context, r io.Reader, opts CSVOptions) ([]Record, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)

	var header []string
	var out []Record
	for row := range rowCh {
		if header == nil {
			header = row
			continue
		}
		rec := make(Record, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		out = append(out, rec)
	}
	if err := <-errCh; err != nil {
		return out, err
	}
	if header == nil {
		return nil, eris.New("csv: missing header row")
	}
	return out, nil
}
