// Package ingest는 bulk 업로드 파일을 저장 가능한 항목으로 변환
//
// 확장자별 처리:
//   - .json: 배열이면 항목 목록, 그 외는 단일 항목
//   - .csv / .xlsx: 헤더 기준 행 map 목록 (숫자 셀은 숫자로 변환)
//   - .yaml / .yml: .json과 동일
//   - 그 외: UTF-8 텍스트 전체를 단일 항목으로
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

var ErrUnsupportedFormat = errors.New("unsupported or malformed file")

// Parse - 파일 내용을 bulk 저장용 데이터로 변환
func Parse(filename string, content []byte) (any, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".xlsx" {
		return parseXLSX(content)
	}
	if ext == ".xls" {
		return nil, fmt.Errorf("%w: legacy .xls is not supported, convert to .xlsx", ErrUnsupportedFormat)
	}
	if !utf8.Valid(content) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFormat, filename)
	}

	switch ext {
	case ".json":
		var data any
		if err := json.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("%w: json: %v", ErrUnsupportedFormat, err)
		}
		return data, nil
	case ".yaml", ".yml":
		var data any
		if err := yaml.Unmarshal(content, &data); err != nil {
			return nil, fmt.Errorf("%w: yaml: %v", ErrUnsupportedFormat, err)
		}
		return normalize(data), nil
	case ".csv":
		return parseCSV(content)
	default:
		return string(content), nil
	}
}

// Count - 저장 대상 항목 수 (목록이면 길이, 그 외 1)
func Count(data any) int {
	switch v := data.(type) {
	case nil:
		return 0
	case []any:
		return len(v)
	case []map[string]any:
		return len(v)
	default:
		return 1
	}
}

func parseCSV(content []byte) (any, error) {
	r := csv.NewReader(bytes.NewReader(content))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: csv header: %v", ErrUnsupportedFormat, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	rows := []any{}
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: csv: %v", ErrUnsupportedFormat, err)
		}
		if row := rowMap(header, record); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

func parseXLSX(content []byte) (any, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []any{}, nil
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: xlsx sheet %s: %v", ErrUnsupportedFormat, sheets[0], err)
	}
	if len(records) == 0 {
		return []any{}, nil
	}

	rows := []any{}
	for _, record := range records[1:] {
		if row := rowMap(records[0], record); len(row) > 0 {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// rowMap - 헤더와 셀을 묶어 map으로. 빈 셀과 이름 없는 컬럼은 제외
func rowMap(header, record []string) map[string]any {
	row := make(map[string]any, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || i >= len(record) {
			continue
		}
		cell := strings.TrimSpace(record[i])
		if cell == "" {
			continue
		}
		row[name] = cellValue(cell)
	}
	return row
}

func cellValue(cell string) any {
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(cell, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return cell
}

// normalize - yaml의 map[any]any를 JSON 직렬화 가능한 map[string]any로
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = normalize(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = normalize(t[i])
		}
		return t
	default:
		return v
	}
}
