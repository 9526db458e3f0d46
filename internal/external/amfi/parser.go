package amfi

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the NAV date format used in NAVAll.txt (e.g. 26-Feb-2026)
const DateLayout = "02-Jan-2006"

const headerPrefix = "Scheme Code;ISIN"

// NAVRecord is one scheme line of NAVAll.txt
type NAVRecord struct {
	SchemeCode       string
	ISINGrowth       string // empty when AMFI reports "-"
	ISINReinvestment string
	SchemeName       string
	NAV              float64
	Date             time.Time
}

// Parse reads NAVAll.txt.
//
// The file is ';'-separated: Scheme Code;ISIN growth;ISIN reinvestment;Scheme Name;NAV;Date.
// Section headings ("Open Ended Schemes(...)") and fund-house names carry no ';'
// and are skipped. Rows before the column header are ignored.
// Returns the parsed records and the number of malformed data rows.
func Parse(r io.Reader) ([]NAVRecord, int, error) {
	var (
		records []NAVRecord
		skipped int
		inData  bool
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.Contains(line, ";") {
			continue
		}
		if strings.Contains(line, "Open Ended Schemes") || strings.Contains(line, "Close Ended Schemes") {
			continue
		}
		if strings.HasPrefix(line, headerPrefix) {
			inData = true
			continue
		}
		if !inData {
			continue
		}

		rec, ok := parseLine(line)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		return nil, skipped, err
	}
	return records, skipped, nil
}

func parseLine(line string) (NAVRecord, bool) {
	fields := strings.Split(line, ";")
	if len(fields) < 6 {
		return NAVRecord{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	code, name, navStr, dateStr := fields[0], fields[3], fields[4], fields[5]
	if code == "" || name == "" || navStr == "" || dateStr == "" {
		return NAVRecord{}, false
	}

	nav, err := strconv.ParseFloat(navStr, 64)
	if err != nil || nav <= 0 {
		// N.A. 등
		return NAVRecord{}, false
	}

	date, err := time.Parse(DateLayout, dateStr)
	if err != nil {
		return NAVRecord{}, false
	}

	return NAVRecord{
		SchemeCode:       code,
		ISINGrowth:       isin(fields[1]),
		ISINReinvestment: isin(fields[2]),
		SchemeName:       name,
		NAV:              nav,
		Date:             date,
	}, true
}

func isin(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

// ByISIN indexes records by growth ISIN. Records without one are dropped.
func ByISIN(records []NAVRecord) map[string]NAVRecord {
	out := make(map[string]NAVRecord, len(records))
	for _, r := range records {
		if r.ISINGrowth == "" {
			continue
		}
		out[r.ISINGrowth] = r
	}
	return out
}
