package compare

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/sdejongh/filerecon/pkg/models"
)

var utf8BOM = []byte("\xef\xbb\xbf")

// Table is a decoded tabular file
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// Column returns the index of name in the header, or -1
func (t *Table) Column(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Field returns row[i], or "" when the row is shorter than the header
func (t *Table) Field(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

// LoadTable decodes data in the given format
func LoadTable(path string, data []byte, format models.TableFormat) (*Table, error) {
	switch format {
	case models.FormatCSV:
		return loadDelimited(path, data, ',')
	case models.FormatTSV:
		return loadDelimited(path, data, '\t')
	case models.FormatJSONL:
		return loadJSONLines(path, data)
	}
	return nil, &models.ParseError{Path: path, Err: fmt.Errorf("unsupported table format %q", format)}
}

func loadDelimited(path string, data []byte, comma rune) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	r.Comma = comma
	r.FieldsPerRecord = -1
	if comma == '\t' {
		r.LazyQuotes = true
	}

	t := &Table{Path: path}
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &models.ParseError{Path: path, Line: pe.Line, Err: pe.Err}
			}
			return nil, &models.ParseError{Path: path, Err: err}
		}
		if t.Header == nil {
			t.Header = make([]string, len(record))
			for i, h := range record {
				t.Header[i] = strings.TrimSpace(h)
			}
			continue
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}

// loadJSONLines reads one JSON object per line. The header is the union of
// object keys in first-seen order.
func loadJSONLines(path string, data []byte) (*Table, error) {
	t := &Table{Path: path}
	columns := make(map[string]int)
	var records []map[string]string

	lineNo := 0
	for len(data) > 0 {
		var raw []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			raw, data = data[:i], data[i+1:]
		} else {
			raw, data = data, nil
		}
		lineNo++

		raw = bytes.TrimSpace(raw)
		if len(raw) == 0 {
			continue
		}
		if !gjson.ValidBytes(raw) {
			return nil, &models.ParseError{Path: path, Line: lineNo, Err: errors.New("invalid JSON")}
		}
		obj := gjson.ParseBytes(raw)
		if !obj.IsObject() {
			return nil, &models.ParseError{Path: path, Line: lineNo, Err: errors.New("line is not a JSON object")}
		}

		record := make(map[string]string)
		obj.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			if _, ok := columns[name]; !ok {
				columns[name] = len(t.Header)
				t.Header = append(t.Header, name)
			}
			record[name] = jsonValue(value)
			return true
		})
		records = append(records, record)
	}

	t.Rows = make([][]string, len(records))
	for i, record := range records {
		row := make([]string, len(t.Header))
		for name, value := range record {
			row[columns[name]] = value
		}
		t.Rows[i] = row
	}
	return t, nil
}

func jsonValue(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Null:
		return ""
	case gjson.True:
		return "true"
	case gjson.False:
		return "false"
	default:
		return v.Raw
	}
}
