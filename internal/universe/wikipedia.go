package universe

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/canslim/pkg/httputil"
)

// WikipediaSource scrapes the symbol column of a constituents table
type WikipediaSource struct {
	http   *httputil.Client
	url    string
	table  string
	column string
}

func (w *WikipediaSource) Tickers(ctx context.Context) ([]string, error) {
	body, err := w.http.Get(ctx, w.url)
	if err != nil {
		return nil, err
	}
	return parseConstituents(body, w.table, w.column)
}

// parseConstituents reads one column of the first matching table
// Falls back to the first column when the header is not found
func parseConstituents(html []byte, selector, column string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	if selector == "" {
		selector = "table.wikitable"
	}

	table := doc.Find(selector).First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("table %q not found", selector)
	}

	col := 0
	table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		if column != "" && strings.EqualFold(strings.TrimSpace(th.Text()), column) {
			col = i
			return false
		}
		return true
	})

	var tickers []string
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Children()
		if cells.Length() <= col || cells.Eq(col).Is("th") {
			return
		}
		symbol := strings.TrimSpace(cells.Eq(col).Text())
		if symbol != "" {
			tickers = append(tickers, symbol)
		}
	})
	return tickers, nil
}
