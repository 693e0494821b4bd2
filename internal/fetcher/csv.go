package fetcher

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter rune // default ','
	Comment   rune // 0 = none
	TrimSpace bool
}

// StreamCSV reads CSV rows and sends them to a channel, header included.
// Both channels are closed when processing completes.
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
		reader.Comment = opts.Comment
		reader.FieldsPerRecord = -1
		reader.ReuseRecord = false

		for {
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

// CSVTable is a header plus its data rows.
type CSVTable struct {
	Header []string
	Rows   [][]string
}

// Column returns the index of the named header column, or -1.
func (t *CSVTable) Column(name string) int {
	for i, h := range t.Header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

// CollectCSV drains StreamCSV, treating the first row as the header.
func CollectCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*CSVTable, error) {
	rowCh, errCh := StreamCSV(ctx, r, opts)
	table := &CSVTable{}
	for row := range rowCh {
		if table.Header == nil {
			table.Header = row
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return table, nil
}
