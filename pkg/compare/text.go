package compare

import (
	"bytes"
	"math"
	"strings"
	"unicode"

	"github.com/xrash/smetrics"

	"github.com/sdejongh/filerecon/pkg/models"
)

// DefaultJaroMaxBytes bounds the text size scored with char-jaro
const DefaultJaroMaxBytes = 64 * 1024

// TextOptions configures line normalization and scoring
type TextOptions struct {
	// IgnoreEOL treats CRLF, LF and a missing final newline as equal
	IgnoreEOL bool

	// IgnoreTrailingWS drops trailing spaces and tabs from each line
	IgnoreTrailingWS bool

	// IgnoreAllWS removes every whitespace character from each line
	IgnoreAllWS bool

	// IgnoreCase compares lines case-insensitively
	IgnoreCase bool

	// SkipEmptyLines drops lines that are empty or whitespace-only
	SkipEmptyLines bool

	// ScoreMode selects diff or char-jaro scoring
	ScoreMode models.ScoreMode

	// JaroMaxBytes is the largest combined normalized size scored with char-jaro
	JaroMaxBytes int
}

// TextComparator performs line-based comparisons
type TextComparator struct {
	opts TextOptions
}

// NewTextComparator creates a text comparator
func NewTextComparator(opts TextOptions) *TextComparator {
	if opts.ScoreMode == "" {
		opts.ScoreMode = models.ScoreDiff
	}
	if opts.JaroMaxBytes <= 0 {
		opts.JaroMaxBytes = DefaultJaroMaxBytes
	}
	return &TextComparator{opts: opts}
}

// Options returns the effective options
func (c *TextComparator) Options() TextOptions {
	return c.opts
}

// line is a normalized line and its 0-based position in the original file
type line struct {
	key   string
	index int
}

// Compare diffs a and b line by line.
// The returned ScoreMode is ScoreDiff when char-jaro was requested but the input was too large.
func (c *TextComparator) Compare(a, b []byte) *models.TextResult {
	la := c.split(a)
	lb := c.split(b)

	ia, ib := intern(la, lb)
	keepA, keepB := diffLines(ia, ib)

	common := 0
	for _, k := range keepA {
		if k {
			common++
		}
	}

	res := &models.TextResult{
		CommonLines: common,
		OnlyIn1:     len(la) - common,
		OnlyIn2:     len(lb) - common,
		ScoreMode:   models.ScoreDiff,
	}
	res.DiffPositions = append(collapse(1, la, keepA), collapse(2, lb, keepB)...)
	res.Identical = res.OnlyIn1 == 0 && res.OnlyIn2 == 0
	res.SimilarityScore = lineScore(res.CommonLines, res.OnlyIn1, res.OnlyIn2)

	if c.opts.ScoreMode == models.ScoreCharJaro {
		ja, jb := joinKeys(la), joinKeys(lb)
		if len(ja)+len(jb) <= c.opts.JaroMaxBytes {
			res.SimilarityScore = jaro(ja, jb)
			res.ScoreMode = models.ScoreCharJaro
		}
	}

	if !res.Identical && res.SimilarityScore >= 1 {
		res.SimilarityScore = math.Nextafter(1, 0)
	}
	return res
}

// CompareIdentical builds the result for two files known to have equal bytes.
// Score mode follows Compare: char-jaro only within JaroMaxBytes.
func (c *TextComparator) CompareIdentical(data []byte) *models.TextResult {
	lines := c.split(data)
	res := &models.TextResult{
		CommonLines:     len(lines),
		SimilarityScore: 1,
		Identical:       true,
		ScoreMode:       models.ScoreDiff,
	}
	if c.opts.ScoreMode == models.ScoreCharJaro && 2*len(joinKeys(lines)) <= c.opts.JaroMaxBytes {
		res.ScoreMode = models.ScoreCharJaro
	}
	return res
}

// CompareHashOnly builds a verdict from strong hashes alone.
// Each non-empty file counts as a single unit.
func CompareHashOnly(a, b models.Fingerprint, sizeA, sizeB int64) *models.TextResult {
	res := &models.TextResult{HashOnly: true, ScoreMode: models.ScoreHash}
	if a.StrongHash == b.StrongHash {
		if sizeA > 0 {
			res.CommonLines = 1
		}
		res.Identical = true
		res.SimilarityScore = 1
		return res
	}
	if sizeA > 0 {
		res.OnlyIn1 = 1
	}
	if sizeB > 0 {
		res.OnlyIn2 = 1
	}
	res.SimilarityScore = 0
	return res
}

func lineScore(common, only1, only2 int) float64 {
	total := common + only1 + only2
	if total == 0 {
		return 1
	}
	return float64(common) / float64(total)
}

func jaro(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	return smetrics.Jaro(a, b)
}

// split breaks data into normalized lines.
// Unless IgnoreEOL is set the line terminator is part of the line, so CRLF
// and a missing final newline count as differences.
func (c *TextComparator) split(data []byte) []line {
	if len(data) == 0 {
		return nil
	}

	var lines []line
	index := 0
	for len(data) > 0 {
		var raw []byte
		if i := bytes.IndexByte(data, '\n'); i >= 0 {
			raw, data = data[:i+1], data[i+1:]
		} else {
			raw, data = data, nil
		}

		content, term := splitTerminator(string(raw))
		if c.opts.SkipEmptyLines && strings.TrimSpace(content) == "" {
			index++
			continue
		}

		content = c.normalize(content)
		if !c.opts.IgnoreEOL {
			content += term
		}
		lines = append(lines, line{key: content, index: index})
		index++
	}
	return lines
}

func (c *TextComparator) normalize(s string) string {
	switch {
	case c.opts.IgnoreAllWS:
		s = strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	case c.opts.IgnoreTrailingWS:
		s = strings.TrimRightFunc(s, unicode.IsSpace)
	}
	if c.opts.IgnoreCase {
		s = strings.ToLower(s)
	}
	return s
}

func splitTerminator(raw string) (string, string) {
	if strings.HasSuffix(raw, "\r\n") {
		return raw[:len(raw)-2], "\r\n"
	}
	if strings.HasSuffix(raw, "\n") {
		return raw[:len(raw)-1], "\n"
	}
	return raw, ""
}

// intern maps equal line keys to equal integers across both files
func intern(a, b []line) ([]int, []int) {
	ids := make(map[string]int, len(a))
	conv := func(lines []line) []int {
		out := make([]int, len(lines))
		for i, l := range lines {
			id, ok := ids[l.key]
			if !ok {
				id = len(ids)
				ids[l.key] = id
			}
			out[i] = id
		}
		return out
	}
	return conv(a), conv(b)
}

// collapse turns unmatched lines into [start,end) ranges of original line numbers
func collapse(file int, lines []line, keep []bool) []models.DiffRange {
	var ranges []models.DiffRange
	for i, l := range lines {
		if keep[i] {
			continue
		}
		if n := len(ranges); n > 0 && ranges[n-1].End == l.index {
			ranges[n-1].End = l.index + 1
			continue
		}
		ranges = append(ranges, models.DiffRange{File: file, Start: l.index, End: l.index + 1})
	}
	return ranges
}

func joinKeys(lines []line) string {
	keys := make([]string, len(lines))
	for i, l := range lines {
		keys[i] = l.key
	}
	return strings.Join(keys, "\n")
}
