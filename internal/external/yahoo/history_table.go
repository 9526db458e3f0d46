package yahoo

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/mfatlas/internal/contracts"
)

const tableDateLayout = "Jan 2, 2006"

// parseHistoryTable reads the daily rows of the Yahoo history page.
// Columns: Date, Open, High, Low, Close, Adj Close, Volume.
// Dividend/split rows have fewer cells and are skipped.
func parseHistoryTable(html string, since time.Time) ([]contracts.HistoryPoint, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("history table not found")
	}

	byDate := make(map[time.Time]float64)
	table.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		date, err := time.Parse(tableDateLayout, strings.TrimSpace(cells.Eq(0).Text()))
		if err != nil || date.Before(since) {
			return
		}

		closeText := strings.ReplaceAll(strings.TrimSpace(cells.Eq(4).Text()), ",", "")
		closeVal, err := strconv.ParseFloat(closeText, 64)
		if err != nil || closeVal <= 0 {
			return
		}

		byDate[date] = contracts.Round(closeVal, contracts.PercentPlaces)
	})

	return sortedPoints(byDate), nil
}
