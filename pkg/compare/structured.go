package compare

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/sdejongh/filerecon/pkg/models"
)

// DefaultSampleLimit is the number of mismatching keys kept per column
const DefaultSampleLimit = 5

// keySeparator joins composite key parts; it cannot appear in decoded text fields by accident
const keySeparator = "\x1f"

// StructuredOptions configures key-based table comparison
type StructuredOptions struct {
	// KeyColumns identify a row; their values form the composite key
	KeyColumns []string

	// NumericTolerance is the largest absolute difference treated as equal for numeric fields
	NumericTolerance float64

	// SampleLimit bounds the mismatching keys reported per column
	SampleLimit int
}

// StructuredComparator compares tables row by row on a composite key
type StructuredComparator struct {
	opts StructuredOptions
	tol  *big.Rat // nil when the tolerance is infinite
}

// NewStructuredComparator creates a structured comparator
func NewStructuredComparator(opts StructuredOptions) *StructuredComparator {
	if opts.SampleLimit <= 0 {
		opts.SampleLimit = DefaultSampleLimit
	}
	c := &StructuredComparator{opts: opts}
	if !math.IsInf(opts.NumericTolerance, 1) {
		c.tol, _ = new(big.Rat).SetString(strconv.FormatFloat(math.Abs(opts.NumericTolerance), 'g', -1, 64))
		if c.tol == nil {
			c.tol = new(big.Rat)
		}
	}
	return c
}

// CompareTables diffs a and b with a one-off comparator
func CompareTables(a, b *Table, opts StructuredOptions) (*models.StructuredResult, error) {
	return NewStructuredComparator(opts).Compare(a, b)
}

// keyedRows indexes a table by composite key. Later rows replace earlier
// rows with the same key; order keeps the first-seen position of each key.
type keyedRows struct {
	rows       map[string][]string
	order      []string
	duplicates int
}

// Compare diffs two tables.
// It fails with a SchemaError when a key column is missing from either header.
func (c *StructuredComparator) Compare(a, b *Table) (*models.StructuredResult, error) {
	keysA, err := keyIndexes(a, c.opts.KeyColumns)
	if err != nil {
		return nil, err
	}
	keysB, err := keyIndexes(b, c.opts.KeyColumns)
	if err != nil {
		return nil, err
	}

	columns, drift := comparedColumns(a, b, c.opts.KeyColumns)
	rowsA := indexRows(a, keysA)
	rowsB := indexRows(b, keysB)

	res := &models.StructuredResult{
		FieldMismatches: make(map[string]*models.MismatchStat),
		DuplicateKeys1:  rowsA.duplicates,
		DuplicateKeys2:  rowsB.duplicates,
		ComparedColumns: columns,
		SchemaDrift:     drift,
	}

	colA := make([]int, len(columns))
	colB := make([]int, len(columns))
	for i, name := range columns {
		colA[i] = a.Column(name)
		colB[i] = b.Column(name)
	}

	mismatchedRows := 0
	for _, key := range rowsA.order {
		rowA := rowsA.rows[key]
		rowB, ok := rowsB.rows[key]
		if !ok {
			res.OnlyIn1++
			continue
		}
		res.MatchedRecords++

		clean := true
		for i, name := range columns {
			if c.fieldsEqual(a.Field(rowA, colA[i]), b.Field(rowB, colB[i])) {
				continue
			}
			clean = false
			stat := res.FieldMismatches[name]
			if stat == nil {
				stat = &models.MismatchStat{}
				res.FieldMismatches[name] = stat
			}
			stat.Count++
			if len(stat.SampleKeys) < c.opts.SampleLimit {
				stat.SampleKeys = append(stat.SampleKeys, displayKey(key))
			}
		}
		if clean {
			res.CommonRecords++
		} else {
			mismatchedRows++
		}
	}

	for _, key := range rowsB.order {
		if _, ok := rowsA.rows[key]; !ok {
			res.OnlyIn2++
		}
	}

	total := res.CommonRecords + res.OnlyIn1 + res.OnlyIn2 + mismatchedRows
	if total == 0 {
		res.SimilarityScore = 1
	} else {
		res.SimilarityScore = float64(res.CommonRecords) / float64(total)
	}
	res.Identical = res.CommonRecords == total

	return res, nil
}

// fieldsEqual compares exactly, then numerically when both sides parse as
// numbers. The numeric check runs in exact rational arithmetic so distinct
// values never collapse to the same float.
func (c *StructuredComparator) fieldsEqual(a, b string) bool {
	if a == b {
		return true
	}
	na, ok := parseNumber(a)
	if !ok {
		return false
	}
	nb, ok := parseNumber(b)
	if !ok {
		return false
	}

	// Infinities only match an infinity of the same sign
	if na.inf != 0 || nb.inf != 0 {
		return na.inf == nb.inf
	}
	if c.tol == nil {
		return true
	}
	diff := new(big.Rat).Sub(na.value, nb.value)
	return diff.Abs(diff).Cmp(c.tol) <= 0
}

// number is a parsed numeric field: an exact value, or an infinity when inf is ±1
type number struct {
	value *big.Rat
	inf   int
}

// parseNumber accepts the float syntax of strconv.ParseFloat within float64
// range. NaN and out-of-range values are not numbers, so only exact text
// equality can match them.
func parseNumber(s string) (number, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return number{}, false
	}
	if math.IsInf(f, 0) {
		if f > 0 {
			return number{inf: 1}, true
		}
		return number{inf: -1}, true
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return number{}, false
	}
	return number{value: r}, true
}

func keyIndexes(t *Table, keys []string) ([]int, error) {
	idx := make([]int, len(keys))
	for i, k := range keys {
		idx[i] = t.Column(k)
		if idx[i] < 0 {
			return nil, &models.SchemaError{Path: t.Path, Column: k}
		}
	}
	return idx, nil
}

// comparedColumns returns non-key columns present in both headers, in the
// order of a, plus the columns present in only one of them
func comparedColumns(a, b *Table, keys []string) ([]string, []string) {
	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}
	inB := make(map[string]bool, len(b.Header))
	for _, h := range b.Header {
		inB[h] = true
	}
	inA := make(map[string]bool, len(a.Header))

	var columns, drift []string
	for _, h := range a.Header {
		inA[h] = true
		if isKey[h] {
			continue
		}
		if inB[h] {
			columns = append(columns, h)
		} else {
			drift = append(drift, h)
		}
	}
	for _, h := range b.Header {
		if !isKey[h] && !inA[h] {
			drift = append(drift, h)
		}
	}
	return columns, drift
}

func indexRows(t *Table, keyIdx []int) *keyedRows {
	kr := &keyedRows{rows: make(map[string][]string, len(t.Rows))}
	parts := make([]string, len(keyIdx))
	for _, row := range t.Rows {
		for i, idx := range keyIdx {
			parts[i] = t.Field(row, idx)
		}
		key := strings.Join(parts, keySeparator)
		if _, seen := kr.rows[key]; seen {
			kr.duplicates++
		} else {
			kr.order = append(kr.order, key)
		}
		kr.rows[key] = row
	}
	return kr
}

func displayKey(key string) string {
	return strings.ReplaceAll(key, keySeparator, "|")
}
