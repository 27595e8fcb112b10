// Package dataset parses historical temperature observations from uploaded
// CSV and XLSX files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xuri/excelize/v2"

	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrMissingColumn     = errors.New("missing required column")
	ErrEmptyFile         = errors.New("file has no header row")
)

var validate = validator.New()

var requiredColumns = []string{"city", "timestamp", "temperature", "season"}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// RowError reports a malformed data row. Line is 1-based and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// Read parses observations from r, choosing the format from name's extension.
func Read(name string, r io.Reader) ([]models.Observation, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return ReadCSV(r)
	case ".xlsx":
		return ReadXLSX(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

// ReadCSV parses comma separated observations with a header row naming the
// city, timestamp, temperature and season columns in any order.
func ReadCSV(r io.Reader) ([]models.Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	return parseRows(records, parseTimestamp)
}

// ReadXLSX parses observations from the first sheet of a workbook. Timestamps
// may be text or Excel serial dates.
func ReadXLSX(r io.Reader) ([]models.Observation, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return parseRows(rows, parseSpreadsheetTimestamp)
}

func parseRows(rows [][]string, parseTime func(string) (time.Time, error)) ([]models.Observation, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	columns, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	obs := make([]models.Observation, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		if blank(row) {
			continue
		}

		o, err := parseRow(row, columns, parseTime)
		if err != nil {
			return nil, &RowError{Line: line, Err: err}
		}
		obs = append(obs, o)
	}
	return obs, nil
}

func headerIndex(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := columns[name]; !dup {
			columns[name] = i
		}
	}

	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return columns, nil
}

func parseRow(row []string, columns map[string]int, parseTime func(string) (time.Time, error)) (models.Observation, error) {
	field := func(name string) string {
		i := columns[name]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var o models.Observation
	o.City = field("city")
	o.Season = models.Season(strings.ToLower(field("season")))

	rawTS := field("timestamp")
	if rawTS == "" {
		return o, errors.New("missing timestamp")
	}
	ts, err := parseTime(rawTS)
	if err != nil {
		return o, err
	}
	o.Timestamp = ts

	raw := field("temperature")
	temp, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(temp) || math.IsInf(temp, 0) {
		return o, fmt.Errorf("invalid temperature %q", raw)
	}
	o.Temperature = temp

	if err := validate.Struct(o); err != nil {
		return o, err
	}
	return o, nil
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseSpreadsheetTimestamp(s string) (time.Time, error) {
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return excelize.ExcelDateToTime(serial, false)
	}
	return parseTimestamp(s)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
