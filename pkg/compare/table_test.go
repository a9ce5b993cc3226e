package compare

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/filerecon/pkg/models"
)

func TestLoadTable_CSV(t *testing.T) {
	data := []byte("\xef\xbb\xbfid, name ,note\n1,apple,\"has, comma\"\n2,pear\n")

	tbl, err := LoadTable("fruit.csv", data, models.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "note"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"1", "apple", "has, comma"}, tbl.Rows[0])
	assert.Equal(t, "", tbl.Field(tbl.Rows[1], 2))
	assert.Equal(t, 1, tbl.Column("name"))
	assert.Equal(t, -1, tbl.Column("missing"))
}

func TestLoadTable_TSV(t *testing.T) {
	data := []byte("id\tvalue\n1\tsay \"hi\"\n")

	tbl, err := LoadTable("data.tsv", data, models.FormatTSV)
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "say \"hi\"", tbl.Rows[0][1])
}

func TestLoadTable_CSVParseError(t *testing.T) {
	data := []byte("id,v\n1,\"unterminated\n")

	_, err := LoadTable("bad.csv", data, models.FormatCSV)
	require.Error(t, err)

	var pe *models.ParseError
	require.True(t, errors.As(err, &pe), "error should be a ParseError, got %T", err)
	assert.Equal(t, "bad.csv", pe.Path)
}

func TestLoadTable_JSONLines(t *testing.T) {
	data := []byte(`{"id": 1, "name": "apple", "tags": ["a"]}

{"id": 2, "price": 1.50, "ok": true, "name": null}
`)

	tbl, err := LoadTable("rows.jsonl", data, models.FormatJSONL)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "tags", "price", "ok"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, []string{"1", "apple", `["a"]`, "", ""}, tbl.Rows[0])
	assert.Equal(t, []string{"2", "", "", "1.50", "true"}, tbl.Rows[1])
}

func TestLoadTable_JSONLinesErrors(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		wantLine int
	}{
		{"invalid JSON", "{\"id\": 1}\n{\"id\": \n", 2},
		{"not an object", "[1, 2]\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadTable("rows.jsonl", []byte(tt.data), models.FormatJSONL)
			var pe *models.ParseError
			require.True(t, errors.As(err, &pe), "error should be a ParseError, got %v", err)
			assert.Equal(t, tt.wantLine, pe.Line)
		})
	}
}

func TestLoadTable_UnsupportedFormat(t *testing.T) {
	_, err := LoadTable("x.bin", nil, models.FormatNone)
	assert.Error(t, err)
}
