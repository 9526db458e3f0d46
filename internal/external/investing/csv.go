// Package investing parses historical index exports downloaded from Investing.com.
package investing

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/mfatlas/internal/contracts"
)

var (
	dateColumns  = []string{"Date", "date"}
	priceColumns = []string{"Price", "price", "Close", "close"}

	// 숫자, 소수점, 부호 외 문자 제거 ("23,448.50")
	nonNumeric = regexp.MustCompile(`[^0-9.\-]+`)

	dateLayouts = []string{
		"02-01-2006",
		"02/01/2006",
		"Jan 02, 2006",
		"Jan 2, 2006",
		"2006-01-02",
	}
)

const utf8BOM = "\xef\xbb\xbf"

// ErrMissingColumns is returned when the header has no date or price column
var ErrMissingColumns = errors.New("csv must have Date and Price columns")

// ParseFile opens and parses an Investing.com CSV export
func ParseFile(path string) ([]contracts.HistoryPoint, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads an Investing.com CSV export.
// Returns closes (2 decimals) sorted oldest first and the number of rows skipped.
// A repeated date keeps the last row read.
func Parse(r io.Reader) ([]contracts.HistoryPoint, int, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == utf8BOM {
		br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, ErrMissingColumns
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}

	dateIdx, priceIdx := columnIndex(header, dateColumns), columnIndex(header, priceColumns)
	if dateIdx < 0 || priceIdx < 0 {
		return nil, 0, ErrMissingColumns
	}

	byDate := make(map[time.Time]float64)
	skipped := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, skipped, fmt.Errorf("read row: %w", err)
		}
		if dateIdx >= len(row) || priceIdx >= len(row) {
			skipped++
			continue
		}

		date, ok := ParseDate(row[dateIdx])
		if !ok {
			skipped++
			continue
		}
		price, ok := ParsePrice(row[priceIdx])
		if !ok {
			skipped++
			continue
		}
		byDate[date] = price
	}

	points := make([]contracts.HistoryPoint, 0, len(byDate))
	for d, v := range byDate {
		points = append(points, contracts.HistoryPoint{Date: d, Value: v})
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Date.Before(points[j].Date)
	})
	return points, skipped, nil
}

func columnIndex(header []string, names []string) int {
	for i, h := range header {
		h = strings.TrimSpace(h)
		for _, n := range names {
			if h == n {
				return i
			}
		}
	}
	return -1
}

// ParseDate accepts DD-MM-YYYY, DD/MM/YYYY, "Feb 26, 2026" and ISO dates
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ParsePrice strips thousands separators and other symbols, rounding to 2 decimals
func ParsePrice(s string) (float64, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return contracts.Round(v, contracts.PercentPlaces), true
}
