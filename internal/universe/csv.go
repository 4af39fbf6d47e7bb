package universe

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/canslim/pkg/httputil"
)

// CSVSource reads the symbol column of a remote CSV file
type CSVSource struct {
	http   *httputil.Client
	url    string
	column string
}

func (c *CSVSource) Tickers(ctx context.Context) ([]string, error) {
	body, err := c.http.Get(ctx, c.url)
	if err != nil {
		return nil, err
	}
	return parseCSV(body, c.column)
}

func parseCSV(data []byte, column string) ([]string, error) {
	if column == "" {
		column = "Symbol"
	}
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	col := -1
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), column) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("csv column %q not found", column)
	}

	var tickers []string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if col < len(rec) {
			tickers = append(tickers, rec[col])
		}
	}
	return tickers, nil
}
