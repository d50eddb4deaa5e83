package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ChartSelection names one document and the sheets (or, for CSV, columns)
// to chart from it.
type ChartSelection struct {
	ID     uint     `json:"id" binding:"required"`
	Sheets []string `json:"sheets" binding:"required"`
}

// ChartPoint is one label/value pair of a chart series.
type ChartPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// SheetNames returns the sheet names of an XLSX document or the column
// names of a CSV one. Listings are cached in Redis because the charting
// UI asks for them repeatedly while building a dashboard.
func (s *Service) SheetNames(ctx context.Context, id uint) ([]string, error) {
	doc, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("categorizar:sheets:%d:%s", doc.ID, doc.ContentHash)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var names []string
			if json.Unmarshal([]byte(cached), &names) == nil {
				return names, nil
			}
		}
	}

	data, err := s.ReadDocumentFile(ctx, doc)
	if err != nil {
		return nil, err
	}

	var names []string
	switch doc.FileExtension {
	case "xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("opening workbook: %w", err)
		}
		defer f.Close()
		names = f.GetSheetList()

	case "csv":
		header, err := csvHeader(data)
		if err != nil {
			return nil, err
		}
		names = header

	default:
		return nil, fmt.Errorf("file type '%s' has no sheets to chart", doc.FileExtension)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(names); err == nil {
			ttl := time.Duration(s.cfg.Archive.SheetCacheTTL) * time.Second
			if err := s.cache.Set(ctx, cacheKey, encoded, ttl).Err(); err != nil {
				s.log.WithError(err).Warn("sheet listing cache write failed")
			}
		}
	}
	return names, nil
}

// ChartData builds label/value series for the selected documents and
// sheets. A document or sheet that cannot be charted contributes an empty
// series rather than failing the whole request.
func (s *Service) ChartData(ctx context.Context, selections []ChartSelection) (map[string][]ChartPoint, error) {
	result := make(map[string][]ChartPoint)

	for _, sel := range selections {
		doc, err := s.store.GetByID(ctx, sel.ID)
		if err != nil {
			continue
		}
		data, err := s.ReadDocumentFile(ctx, doc)
		if err != nil {
			s.log.WithField("document_id", doc.ID).WithError(err).Warn("chart source read failed")
			continue
		}

		for _, sheet := range sel.Sheets {
			points, err := chartSeries(data, doc.FileExtension, sheet)
			if err != nil {
				s.log.WithField("sheet", sheet).WithError(err).Warn("chart series build failed")
				continue
			}
			result[fmt.Sprintf("%s - %s", doc.OriginalName, sheet)] = points
		}
	}
	return result, nil
}

// chartSeries extracts one series from a tabular file. For XLSX the sheet
// is charted with its first column as labels and second as values; for
// CSV the named column is charted against the row index.
func chartSeries(data []byte, ext, sheet string) ([]ChartPoint, error) {
	switch ext {
	case "xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer f.Close()
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		return seriesFromRows(rows), nil

	case "csv":
		rows, err := csvRows(data)
		if err != nil {
			return nil, err
		}
		return seriesFromColumn(rows, sheet)

	default:
		return nil, fmt.Errorf("file type '%s' is not chartable", ext)
	}
}

// seriesFromRows charts a sheet: labels from the first column, values from
// the second. A single-column sheet is charted against the row index.
// Unparseable values chart as zero.
func seriesFromRows(rows [][]string) []ChartPoint {
	var points []ChartPoint
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue // skip header
		}
		if len(row) >= 2 {
			points = append(points, ChartPoint{Label: row[0], Value: parseFloat(row[1])})
		} else {
			points = append(points, ChartPoint{Label: strconv.Itoa(i), Value: parseFloat(row[0])})
		}
	}
	return points
}

// seriesFromColumn charts one named CSV column against the row index.
func seriesFromColumn(rows [][]string, column string) ([]ChartPoint, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("empty table")
	}
	col := -1
	for i, name := range rows[0] {
		if name == column {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("column '%s' not found", column)
	}

	var points []ChartPoint
	for i, row := range rows[1:] {
		value := ""
		if col < len(row) {
			value = row[col]
		}
		points = append(points, ChartPoint{Label: strconv.Itoa(i), Value: parseFloat(value)})
	}
	return points, nil
}

// Chartable reports whether an uploaded tabular file has enough shape to
// chart: at least two data rows, at least two non-empty columns, one
// text-like label column and one numeric column.
func Chartable(data []byte, ext string) (bool, error) {
	switch ext {
	case "xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return false, err
		}
		defer f.Close()
		for _, sheet := range f.GetSheetList() {
			rows, err := f.GetRows(sheet)
			if err != nil {
				continue
			}
			if tableIsChartable(rows) {
				return true, nil
			}
		}
		return false, nil

	case "csv":
		rows, err := csvRows(data)
		if err != nil {
			return false, err
		}
		return tableIsChartable(rows), nil

	default:
		return false, fmt.Errorf("only xlsx and csv files can be charted")
	}
}

// tableIsChartable evaluates the chartability rules against one table.
func tableIsChartable(rows [][]string) bool {
	if len(rows) < 3 { // header plus at least two data rows
		return false
	}
	header := rows[0]
	data := rows[1:]

	type colKind int
	const (
		colEmpty colKind = iota
		colNumeric
		colText
	)

	kinds := make([]colKind, len(header))
	for c := range header {
		kind := colEmpty
		numeric := true
		for _, row := range data {
			if c >= len(row) || strings.TrimSpace(row[c]) == "" {
				continue
			}
			kind = colNumeric
			if _, err := strconv.ParseFloat(strings.TrimSpace(row[c]), 64); err != nil {
				numeric = false
			}
		}
		if kind != colEmpty && !numeric {
			kind = colText
		}
		kinds[c] = kind
	}

	nonEmpty, hasNumeric, hasLabel := 0, false, false
	for _, k := range kinds {
		switch k {
		case colNumeric:
			nonEmpty++
			hasNumeric = true
		case colText:
			nonEmpty++
			hasLabel = true
		}
	}
	return nonEmpty >= 2 && hasNumeric && hasLabel
}

func csvRows(data []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	return reader.ReadAll()
}

func csvHeader(data []byte) ([]string, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	return header, nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}
