package compare

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdejongh/filerecon/pkg/models"
)

func table(path string, header []string, rows ...[]string) *Table {
	return &Table{Path: path, Header: header, Rows: rows}
}

// ============== Structured Comparison Tests ==============

func TestStructuredCompare_ValueMismatch(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}})
	a := table("a.csv", []string{"id", "value"}, []string{"1", "x"})
	b := table("b.csv", []string{"id", "value"}, []string{"1", "y"})

	res, err := c.Compare(a, b)
	require.NoError(t, err)

	assert.Equal(t, 0, res.CommonRecords)
	assert.Equal(t, 1, res.MatchedRecords)
	assert.Equal(t, 0.0, res.SimilarityScore)
	assert.False(t, res.Identical)
	require.Contains(t, res.FieldMismatches, "value")
	assert.Equal(t, 1, res.FieldMismatches["value"].Count)
	assert.Equal(t, []string{"1"}, res.FieldMismatches["value"].SampleKeys)
}

func TestStructuredCompare_Identity(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}})
	a := table("a.csv", []string{"id", "name", "qty"},
		[]string{"1", "apple", "3"},
		[]string{"2", "pear", "5"},
	)

	res, err := c.Compare(a, a)
	require.NoError(t, err)

	assert.True(t, res.Identical)
	assert.Equal(t, 1.0, res.SimilarityScore)
	assert.Equal(t, 2, res.CommonRecords)
	assert.Empty(t, res.FieldMismatches)
	assert.Equal(t, []string{"name", "qty"}, res.ComparedColumns)
}

func TestStructuredCompare_OnlyIn(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}})
	a := table("a.csv", []string{"id", "v"}, []string{"1", "a"}, []string{"2", "b"}, []string{"3", "c"})
	b := table("b.csv", []string{"id", "v"}, []string{"2", "b"}, []string{"4", "d"})

	res, err := c.Compare(a, b)
	require.NoError(t, err)

	assert.Equal(t, 1, res.CommonRecords)
	assert.Equal(t, 2, res.OnlyIn1)
	assert.Equal(t, 1, res.OnlyIn2)
	assert.InDelta(t, 0.25, res.SimilarityScore, 1e-12)
}

func TestStructuredCompare_EmptyTables(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}})
	a := table("a.csv", []string{"id", "v"})
	b := table("b.csv", []string{"id", "v"})

	res, err := c.Compare(a, b)
	require.NoError(t, err)

	assert.True(t, res.Identical)
	assert.Equal(t, 1.0, res.SimilarityScore)
}

func TestStructuredCompare_NumericTolerance(t *testing.T) {
	tests := []struct {
		name      string
		tol       float64
		a, b      string
		wantEqual bool
	}{
		{"exact text", 0, "1.50", "1.50", true},
		{"same number different text without tolerance", 0, "1.5", "1.50", true},
		{"within tolerance", 0.01, "1.00", "1.005", true},
		{"difference exactly at tolerance", 0.5, "1", "1.5", true},
		{"just beyond tolerance", 0.5, "1", "1.5000001", false},
		{"non-numeric", 10, "abc", "abd", false},
		{"one side non-numeric", 10, "1", "one", false},
		{"decimal difference exactly at tolerance", 0.1, "1.0", "1.1", true},
		{"decimal just beyond tolerance", 0.1, "1.0", "1.1000000000000001", false},
		{"integers above 2^53", 0, "9007199254740993", "9007199254740992", false},
		{"integers above 2^64", 0, "12345678901234567890", "12345678901234567891", false},
		{"large integers within tolerance", 1, "12345678901234567890", "12345678901234567891", true},
		{"exponent form", 0, "1e3", "1000", true},
		{"matching infinities", 0, "inf", "+Inf", true},
		{"opposite infinities", 10, "inf", "-inf", false},
		{"infinity against number", 10, "inf", "1e308", false},
		{"nan never matches numerically", 10, "NaN", "nan", false},
		{"out of range is compared as text", 10, "1e400", "1e401", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}, NumericTolerance: tt.tol})
			a := table("a.csv", []string{"id", "amount"}, []string{"k", tt.a})
			b := table("b.csv", []string{"id", "amount"}, []string{"k", tt.b})

			res, err := c.Compare(a, b)
			require.NoError(t, err)
			if res.Identical != tt.wantEqual {
				t.Errorf("Identical = %v, want %v (mismatches %v)", res.Identical, tt.wantEqual, res.FieldMismatches)
			}
		})
	}
}

func TestStructuredCompare_Symmetry(t *testing.T) {
	opts := StructuredOptions{KeyColumns: []string{"id"}}
	a := table("a.csv", []string{"id", "name", "qty"},
		[]string{"1", "apple", "3"},
		[]string{"2", "pear", "5"},
		[]string{"3", "plum", "1"},
	)
	b := table("b.csv", []string{"id", "name", "qty"},
		[]string{"1", "apple", "3"},
		[]string{"2", "pear", "6"},
		[]string{"4", "fig", "2"},
		[]string{"5", "kiwi", "9"},
	)

	ab, err := CompareTables(a, b, opts)
	require.NoError(t, err)
	ba, err := CompareTables(b, a, opts)
	require.NoError(t, err)

	assert.Equal(t, ab.SimilarityScore, ba.SimilarityScore)
	assert.Equal(t, ab.CommonRecords, ba.CommonRecords)
	assert.Equal(t, ab.MatchedRecords, ba.MatchedRecords)
	assert.Equal(t, ab.OnlyIn1, ba.OnlyIn2)
	assert.Equal(t, ab.OnlyIn2, ba.OnlyIn1)
	assert.Equal(t, 1, ab.OnlyIn1)
	assert.Equal(t, 2, ab.OnlyIn2)

	require.Len(t, ba.FieldMismatches, len(ab.FieldMismatches))
	for col, stat := range ab.FieldMismatches {
		require.Contains(t, ba.FieldMismatches, col)
		assert.Equal(t, stat.Count, ba.FieldMismatches[col].Count, "column %s", col)
	}
	assert.Equal(t, 1, ab.FieldMismatches["qty"].Count)
}

func TestStructuredCompare_MissingKeyColumn(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id", "region"}})
	a := table("a.csv", []string{"id", "region", "v"})
	b := table("b.csv", []string{"id", "v"})

	_, err := c.Compare(a, b)
	require.Error(t, err)

	var se *models.SchemaError
	require.True(t, errors.As(err, &se), "error should be a SchemaError, got %T", err)
	assert.Equal(t, "region", se.Column)
	assert.Equal(t, "b.csv", se.Path)
}

func TestStructuredCompare_DuplicateKeysLastRowWins(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}})
	a := table("a.csv", []string{"id", "v"},
		[]string{"1", "old"},
		[]string{"2", "b"},
		[]string{"1", "new"},
	)
	b := table("b.csv", []string{"id", "v"}, []string{"1", "new"}, []string{"2", "b"})

	res, err := c.Compare(a, b)
	require.NoError(t, err)

	assert.True(t, res.Identical, "the last row for key 1 should be compared")
	assert.Equal(t, 1, res.DuplicateKeys1)
	assert.Equal(t, 0, res.DuplicateKeys2)
	assert.Equal(t, 2, res.CommonRecords)
}

func TestStructuredCompare_CompositeKey(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id", "region"}})
	a := table("a.csv", []string{"region", "id", "v"},
		[]string{"eu", "1", "a"},
		[]string{"us", "1", "b"},
	)
	b := table("b.csv", []string{"id", "region", "v"},
		[]string{"1", "us", "b"},
		[]string{"1", "eu", "z"},
	)

	res, err := c.Compare(a, b)
	require.NoError(t, err)

	assert.Equal(t, 1, res.CommonRecords)
	assert.Equal(t, 2, res.MatchedRecords)
	require.Contains(t, res.FieldMismatches, "v")
	assert.Equal(t, []string{"1|eu"}, res.FieldMismatches["v"].SampleKeys)
}

func TestStructuredCompare_SampleLimit(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}, SampleLimit: 3})
	var rowsA, rowsB [][]string
	for _, id := range []string{"a", "b", "c", "d", "e", "f"} {
		rowsA = append(rowsA, []string{id, "1"})
		rowsB = append(rowsB, []string{id, "2"})
	}
	a := table("a.csv", []string{"id", "v"}, rowsA...)
	b := table("b.csv", []string{"id", "v"}, rowsB...)

	res, err := c.Compare(a, b)
	require.NoError(t, err)

	stat := res.FieldMismatches["v"]
	require.NotNil(t, stat)
	assert.Equal(t, 6, stat.Count)
	assert.Equal(t, []string{"a", "b", "c"}, stat.SampleKeys)
}

func TestStructuredCompare_SchemaDrift(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}})
	a := table("a.csv", []string{"id", "v", "legacy"}, []string{"1", "x", "old"})
	b := table("b.csv", []string{"id", "added", "v"}, []string{"1", "new", "x"})

	res, err := c.Compare(a, b)
	require.NoError(t, err)

	if !reflect.DeepEqual(res.ComparedColumns, []string{"v"}) {
		t.Errorf("ComparedColumns = %v, want [v]", res.ComparedColumns)
	}
	if !reflect.DeepEqual(res.SchemaDrift, []string{"legacy", "added"}) {
		t.Errorf("SchemaDrift = %v, want [legacy added]", res.SchemaDrift)
	}
	assert.True(t, res.Identical, "columns outside the shared schema are not compared")
}

func TestStructuredCompare_ShortRows(t *testing.T) {
	c := NewStructuredComparator(StructuredOptions{KeyColumns: []string{"id"}})
	a := table("a.csv", []string{"id", "v", "w"}, []string{"1", "x"})
	b := table("b.csv", []string{"id", "v", "w"}, []string{"1", "x", ""})

	res, err := c.Compare(a, b)
	require.NoError(t, err)
	assert.True(t, res.Identical, "missing trailing fields read as empty")
}
