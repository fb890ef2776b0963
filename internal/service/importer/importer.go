// internal/service/importer/importer.go

// Package importer parses the spreadsheet files operators upload:
// subscriber sheets for bulk import and payment sheets for renewals.
// Parsing is strict per row and lenient per file: a bad row is
// collected as an error and the rest of the sheet still goes through.
package importer

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"timesoffice-service/internal/domain/subscriber"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// Column headers recognized in uploaded sheets. Matching is
// case-insensitive and ignores surrounding whitespace.
const (
	colAgentName    = "AGENT_NAME"
	colCustomerName = "CUSTOMER_NAME"
	colAgentCode    = "CODE"
	colPhone        = "PHONE_NUMBER"
	colCard         = "CARD"
	colOpenDate     = "OPEN_DATE"
	colStatus       = "STATUS"
	colDuration     = "DURATION"
	colAmount       = "AMOUNT"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
	"2006-01-02 15:04:05",
}

// excelEpoch is day zero of the 1900 date system.
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// RowError ties a parse failure to the sheet row that caused it. Row
// numbers are 1-based as shown in a spreadsheet UI.
type RowError struct {
	Row int    `json:"row"`
	Err string `json:"error"`
}

// ParseSubscriberSheet reads the first sheet of an xlsx stream into
// import rows. The header row decides column positions, so column
// order in the sheet does not matter.
func ParseSubscriberSheet(r io.Reader) ([]subscriber.ImportRow, []RowError, error) {
	rows, header, err := openSheet(r)
	if err != nil {
		return nil, nil, err
	}
	for _, required := range []string{colAgentName, colCustomerName, colAgentCode, colCard, colOpenDate} {
		if _, ok := header[required]; !ok {
			return nil, nil, fmt.Errorf("sheet is missing required column %s", required)
		}
	}

	var out []subscriber.ImportRow
	var rowErrs []RowError
	for i, cells := range rows {
		rowNum := i + 2
		if blankRow(cells) {
			continue
		}

		row, err := parseSubscriberRow(cells, header)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Err: err.Error()})
			continue
		}
		out = append(out, row)
	}
	return out, rowErrs, nil
}

// ParseRenewalSheet reads a payments sheet: card number, renewal open
// date and the amount paid.
func ParseRenewalSheet(r io.Reader) ([]subscriber.RenewalRow, []RowError, error) {
	rows, header, err := openSheet(r)
	if err != nil {
		return nil, nil, err
	}
	for _, required := range []string{colCard, colOpenDate, colAmount} {
		if _, ok := header[required]; !ok {
			return nil, nil, fmt.Errorf("sheet is missing required column %s", required)
		}
	}

	var out []subscriber.RenewalRow
	var rowErrs []RowError
	for i, cells := range rows {
		rowNum := i + 2
		if blankRow(cells) {
			continue
		}

		card, err := parseInt64(cell(cells, header, colCard))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Err: fmt.Sprintf("card: %s", err)})
			continue
		}
		openDate, err := parseDate(cell(cells, header, colOpenDate))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Err: fmt.Sprintf("open date: %s", err)})
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(cell(cells, header, colAmount)))
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: rowNum, Err: fmt.Sprintf("amount: %s", err)})
			continue
		}

		out = append(out, subscriber.RenewalRow{
			Card:     card,
			OpenDate: openDate,
			Amount:   amount,
		})
	}
	return out, rowErrs, nil
}

// openSheet returns the data rows of the first sheet plus a header
// name to column index map.
func openSheet(r io.Reader) ([][]string, map[string]int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %s is empty", sheets[0])
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToUpper(strings.TrimSpace(name))] = i
	}
	return rows[1:], header, nil
}

func parseSubscriberRow(cells []string, header map[string]int) (subscriber.ImportRow, error) {
	var row subscriber.ImportRow

	row.AgentName = strings.TrimSpace(cell(cells, header, colAgentName))
	if row.AgentName == "" {
		return row, fmt.Errorf("agent name is empty")
	}
	row.CustomerName = strings.TrimSpace(cell(cells, header, colCustomerName))

	code, err := parseInt64(cell(cells, header, colAgentCode))
	if err != nil {
		return row, fmt.Errorf("agent code: %w", err)
	}
	row.AgentCode = int(code)

	if raw := strings.TrimSpace(cell(cells, header, colPhone)); raw != "" {
		phone, err := parseInt64(raw)
		if err != nil {
			return row, fmt.Errorf("phone: %w", err)
		}
		row.Phone = phone
	}

	row.Card, err = parseInt64(cell(cells, header, colCard))
	if err != nil {
		return row, fmt.Errorf("card: %w", err)
	}

	row.OpenDate, err = parseDate(cell(cells, header, colOpenDate))
	if err != nil {
		return row, fmt.Errorf("open date: %w", err)
	}

	if raw := strings.TrimSpace(cell(cells, header, colStatus)); raw != "" {
		row.Status = subscriber.Status(strings.ToUpper(raw))
	}
	if raw := strings.TrimSpace(cell(cells, header, colDuration)); raw != "" {
		duration, err := strconv.Atoi(raw)
		if err != nil {
			return row, fmt.Errorf("duration: %w", err)
		}
		row.Duration = duration
	}
	return row, nil
}

func cell(cells []string, header map[string]int, name string) string {
	i, ok := header[name]
	if !ok || i >= len(cells) {
		return ""
	}
	return cells[i]
}

func blankRow(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseInt64(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, fmt.Errorf("value is empty")
	}
	// Long numbers sometimes come back from the cell as floats.
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return int64(f), nil
}

// parseDate accepts the common text layouts plus a raw excel serial
// number.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("value is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil && serial > 0 {
		return excelEpoch.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", raw)
}
