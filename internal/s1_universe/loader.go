package s1_universe

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/valuescreen/pkg/httputil"
	"github.com/wonny/valuescreen/pkg/logger"
)

// tickerHeaders are accepted column names for the ticker column
var tickerHeaders = map[string]bool{"ticker": true, "symbol": true}

// Loader reads the list of tickers to screen
// ⭐ SSOT: 티커 목록 입력은 여기서만
type Loader struct {
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewLoader creates a loader. httpClient may be nil when only local files are used.
func NewLoader(httpClient *httputil.Client, log *logger.Logger) *Loader {
	return &Loader{
		httpClient: httpClient,
		logger:     log.WithField("module", "universe_loader"),
	}
}

// Load reads tickers from a CSV, HTML or plain text file, or from an http(s) URL.
// Output is upper-cased, de-duplicated and in source order.
func (l *Loader) Load(ctx context.Context, source string) ([]string, error) {
	data, kind, err := l.read(ctx, source)
	if err != nil {
		return nil, err
	}

	var tickers []string
	switch kind {
	case "csv":
		tickers, err = ParseCSV(bytes.NewReader(data))
	case "html":
		tickers, err = ParseHTML(bytes.NewReader(data))
	default:
		tickers, err = ParseText(bytes.NewReader(data))
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	l.logger.WithFields(map[string]interface{}{
		"source":  source,
		"format":  kind,
		"tickers": len(tickers),
	}).Info("Ticker list loaded")

	return tickers, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		if l.httpClient == nil {
			return nil, "", errors.New("remote ticker source requires an http client")
		}
		resp, err := l.httpClient.Get(ctx, source)
		if err != nil {
			return nil, "", fmt.Errorf("fetch %s: %w", source, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("fetch %s: unexpected status code %d", source, resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", fmt.Errorf("read %s: %w", source, err)
		}
		kind := kindOf(source)
		if kind == "txt" && strings.Contains(resp.Header.Get("Content-Type"), "html") {
			kind = "html"
		}
		return data, kind, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, "", fmt.Errorf("read ticker file: %w", err)
	}
	return data, kindOf(source), nil
}

func kindOf(source string) string {
	if i := strings.IndexAny(source, "?#"); i >= 0 {
		source = source[:i]
	}
	switch strings.ToLower(filepath.Ext(source)) {
	case ".csv":
		return "csv"
	case ".html", ".htm":
		return "html"
	default:
		return "txt"
	}
}

// ParseCSV reads the Ticker/Symbol column of a CSV with a header row.
// A single-column file without a recognised header is read as a bare list.
func ParseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}

	col := -1
	for i, h := range rows[0] {
		if tickerHeaders[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] {
			col = i
			break
		}
	}

	body := rows[1:]
	if col < 0 {
		if len(rows[0]) != 1 {
			return nil, errors.New("no Ticker or Symbol column")
		}
		col, body = 0, rows
	}

	tickers := make([]string, 0, len(body))
	for _, row := range body {
		if col < len(row) {
			tickers = append(tickers, row[col])
		}
	}
	return Normalize(tickers), nil
}

// ParseHTML extracts tickers from the first constituents table
// (Wikipedia "List of S&P 500 companies" layout: table#constituents, Symbol column)
func ParseHTML(r io.Reader) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	var tickers []string
	doc.Find("table#constituents, table.wikitable").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		col := -1
		table.Find("tr").First().Find("th, td").Each(func(i int, cell *goquery.Selection) {
			if col < 0 && tickerHeaders[strings.ToLower(strings.TrimSpace(cell.Text()))] {
				col = i
			}
		})
		if col < 0 {
			return true
		}

		table.Find("tr").Slice(1, goquery.ToEnd).Each(func(_ int, row *goquery.Selection) {
			cell := row.Find("td").Eq(col)
			if cell.Length() > 0 {
				tickers = append(tickers, cell.Text())
			}
		})
		return len(tickers) == 0
	})

	if len(tickers) == 0 {
		return nil, errors.New("no constituents table with a Symbol column")
	}
	return Normalize(tickers), nil
}

// ParseText reads one ticker per line; blank lines and # comments are ignored
func ParseText(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	tickers := make([]string, 0)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		tickers = append(tickers, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return Normalize(tickers), nil
}

// ParseList splits a comma or whitespace separated ticker list (CLI --tickers)
func ParseList(s string) []string {
	return Normalize(strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	}))
}

// Normalize upper-cases, trims and de-duplicates, preserving first occurrence
func Normalize(tickers []string) []string {
	seen := make(map[string]struct{}, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
