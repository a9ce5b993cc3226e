package compare

import (
	"crypto/sha256"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/sdejongh/filerecon/pkg/models"
)

// ============== Line Diff Tests ==============

func TestTextCompare_Basic(t *testing.T) {
	c := NewTextComparator(TextOptions{})

	res := c.Compare([]byte("a\nb\nc\n"), []byte("a\nx\nc\n"))

	if res.CommonLines != 2 {
		t.Errorf("CommonLines = %d, want 2", res.CommonLines)
	}
	if res.OnlyIn1 != 1 || res.OnlyIn2 != 1 {
		t.Errorf("OnlyIn1/OnlyIn2 = %d/%d, want 1/1", res.OnlyIn1, res.OnlyIn2)
	}
	if res.SimilarityScore != 0.5 {
		t.Errorf("SimilarityScore = %v, want 0.5", res.SimilarityScore)
	}
	if res.Identical {
		t.Error("Identical = true, want false")
	}
	want := []models.DiffRange{{File: 1, Start: 1, End: 2}, {File: 2, Start: 1, End: 2}}
	if !reflect.DeepEqual(res.DiffPositions, want) {
		t.Errorf("DiffPositions = %v, want %v", res.DiffPositions, want)
	}
}

func TestTextCompare_Identity(t *testing.T) {
	c := NewTextComparator(TextOptions{})
	data := []byte("one\ntwo\nthree\n")

	res := c.Compare(data, data)

	if !res.Identical || res.SimilarityScore != 1 {
		t.Errorf("Identical = %v, SimilarityScore = %v, want true, 1", res.Identical, res.SimilarityScore)
	}
	if res.CommonLines != 3 {
		t.Errorf("CommonLines = %d, want 3", res.CommonLines)
	}
	if len(res.DiffPositions) != 0 {
		t.Errorf("DiffPositions = %v, want none", res.DiffPositions)
	}
}

func TestTextCompare_Symmetry(t *testing.T) {
	c := NewTextComparator(TextOptions{})
	a := []byte("alpha\nbeta\ngamma\ndelta\n")
	b := []byte("beta\nalpha\ndelta\nepsilon\nzeta\n")

	ab := c.Compare(a, b)
	ba := c.Compare(b, a)

	if ab.SimilarityScore != ba.SimilarityScore {
		t.Errorf("score(a,b) = %v, score(b,a) = %v, want equal", ab.SimilarityScore, ba.SimilarityScore)
	}
	if ab.CommonLines != ba.CommonLines {
		t.Errorf("CommonLines = %d vs %d, want equal", ab.CommonLines, ba.CommonLines)
	}
	if ab.OnlyIn1 != ba.OnlyIn2 || ab.OnlyIn2 != ba.OnlyIn1 {
		t.Errorf("only-in counts not swapped: %d/%d vs %d/%d", ab.OnlyIn1, ab.OnlyIn2, ba.OnlyIn1, ba.OnlyIn2)
	}
}

func TestTextCompare_EmptyFiles(t *testing.T) {
	c := NewTextComparator(TextOptions{})

	t.Run("BothEmpty", func(t *testing.T) {
		res := c.Compare(nil, []byte{})
		if !res.Identical || res.SimilarityScore != 1 {
			t.Errorf("Identical = %v, SimilarityScore = %v, want true, 1", res.Identical, res.SimilarityScore)
		}
	})

	t.Run("OneEmpty", func(t *testing.T) {
		res := c.Compare(nil, []byte("a\n"))
		if res.SimilarityScore != 0 {
			t.Errorf("SimilarityScore = %v, want 0", res.SimilarityScore)
		}
		if res.OnlyIn2 != 1 {
			t.Errorf("OnlyIn2 = %d, want 1", res.OnlyIn2)
		}
		want := []models.DiffRange{{File: 2, Start: 0, End: 1}}
		if !reflect.DeepEqual(res.DiffPositions, want) {
			t.Errorf("DiffPositions = %v, want %v", res.DiffPositions, want)
		}
	})
}

func TestTextCompare_ContiguousRanges(t *testing.T) {
	c := NewTextComparator(TextOptions{})

	res := c.Compare([]byte("1\n2\n3\n4\n"), []byte("1\n4\n"))

	want := []models.DiffRange{{File: 1, Start: 1, End: 3}}
	if !reflect.DeepEqual(res.DiffPositions, want) {
		t.Errorf("DiffPositions = %v, want %v", res.DiffPositions, want)
	}
	if res.OnlyIn1 != 2 || res.OnlyIn2 != 0 {
		t.Errorf("OnlyIn1/OnlyIn2 = %d/%d, want 2/0", res.OnlyIn1, res.OnlyIn2)
	}
}

// ============== Normalization Tests ==============

func TestTextCompare_Normalization(t *testing.T) {
	tests := []struct {
		name          string
		opts          TextOptions
		a, b          string
		wantIdentical bool
	}{
		{"CRLF differs by default", TextOptions{}, "a\r\nb\r\n", "a\nb\n", false},
		{"CRLF ignored with IgnoreEOL", TextOptions{IgnoreEOL: true}, "a\r\nb\r\n", "a\nb\n", true},
		{"missing final newline differs", TextOptions{}, "a\nb", "a\nb\n", false},
		{"missing final newline ignored", TextOptions{IgnoreEOL: true}, "a\nb", "a\nb\n", true},
		{"trailing whitespace differs", TextOptions{}, "a  \nb\t\n", "a\nb\n", false},
		{"trailing whitespace ignored", TextOptions{IgnoreTrailingWS: true}, "a  \nb\t\n", "a\nb\n", true},
		{"inner whitespace kept by trailing mode", TextOptions{IgnoreTrailingWS: true}, "a b\n", "ab\n", false},
		{"all whitespace ignored", TextOptions{IgnoreAllWS: true}, "a b\tc\n", "abc\n", true},
		{"case differs", TextOptions{}, "Hello\n", "hello\n", false},
		{"case ignored", TextOptions{IgnoreCase: true}, "Hello\n", "hELLo\n", true},
		{"blank lines differ", TextOptions{}, "a\n\n  \nb\n", "a\nb\n", false},
		{"blank lines skipped", TextOptions{SkipEmptyLines: true}, "a\n\n  \nb\n", "a\nb\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewTextComparator(tt.opts).Compare([]byte(tt.a), []byte(tt.b))
			if res.Identical != tt.wantIdentical {
				t.Errorf("Identical = %v, want %v", res.Identical, tt.wantIdentical)
			}
			if !res.Identical && res.SimilarityScore >= 1 {
				t.Errorf("SimilarityScore = %v for non-identical files, want < 1", res.SimilarityScore)
			}
		})
	}
}

func TestTextCompare_SkippedLinesKeepOriginalIndices(t *testing.T) {
	c := NewTextComparator(TextOptions{SkipEmptyLines: true})

	res := c.Compare([]byte("a\n\nx\n"), []byte("a\ny\n"))

	want := []models.DiffRange{{File: 1, Start: 2, End: 3}, {File: 2, Start: 1, End: 2}}
	if !reflect.DeepEqual(res.DiffPositions, want) {
		t.Errorf("DiffPositions = %v, want %v", res.DiffPositions, want)
	}
}

// ============== Scoring Mode Tests ==============

func TestTextCompare_CharJaro(t *testing.T) {
	t.Run("Scored", func(t *testing.T) {
		c := NewTextComparator(TextOptions{ScoreMode: models.ScoreCharJaro})
		res := c.Compare([]byte("martha\n"), []byte("marhta\n"))
		if res.ScoreMode != models.ScoreCharJaro {
			t.Errorf("ScoreMode = %s, want %s", res.ScoreMode, models.ScoreCharJaro)
		}
		if res.SimilarityScore <= 0 || res.SimilarityScore >= 1 {
			t.Errorf("SimilarityScore = %v, want in (0, 1)", res.SimilarityScore)
		}
		// Line counts still come from the diff
		if res.OnlyIn1 != 1 || res.OnlyIn2 != 1 {
			t.Errorf("OnlyIn1/OnlyIn2 = %d/%d, want 1/1", res.OnlyIn1, res.OnlyIn2)
		}
	})

	t.Run("Identical", func(t *testing.T) {
		c := NewTextComparator(TextOptions{ScoreMode: models.ScoreCharJaro})
		res := c.Compare([]byte("same\n"), []byte("same\n"))
		if res.SimilarityScore != 1 {
			t.Errorf("SimilarityScore = %v, want 1", res.SimilarityScore)
		}
	})

	t.Run("FallbackOnLargeInput", func(t *testing.T) {
		c := NewTextComparator(TextOptions{ScoreMode: models.ScoreCharJaro, JaroMaxBytes: 8})
		res := c.Compare([]byte("a\nb\nc\n"), []byte("a\nx\nc\n"))
		if res.ScoreMode != models.ScoreDiff {
			t.Errorf("ScoreMode = %s, want %s", res.ScoreMode, models.ScoreDiff)
		}
		if res.SimilarityScore != 0.5 {
			t.Errorf("SimilarityScore = %v, want 0.5", res.SimilarityScore)
		}
	})
}

func TestCompareIdentical(t *testing.T) {
	c := NewTextComparator(TextOptions{SkipEmptyLines: true})

	res := c.CompareIdentical([]byte("a\n\nb\n"))

	if res.CommonLines != 2 {
		t.Errorf("CommonLines = %d, want 2", res.CommonLines)
	}
	if !res.Identical || res.SimilarityScore != 1 {
		t.Errorf("Identical = %v, SimilarityScore = %v, want true, 1", res.Identical, res.SimilarityScore)
	}
}

func TestCompareIdentical_ScoreMode(t *testing.T) {
	data := []byte("first line here\nsecond line here\n")

	tests := []struct {
		name     string
		opts     TextOptions
		wantMode models.ScoreMode
	}{
		{"diff", TextOptions{}, models.ScoreDiff},
		{"char-jaro within limit", TextOptions{ScoreMode: models.ScoreCharJaro}, models.ScoreCharJaro},
		{"char-jaro over limit", TextOptions{ScoreMode: models.ScoreCharJaro, JaroMaxBytes: 8}, models.ScoreDiff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewTextComparator(tt.opts)
			identical := c.CompareIdentical(data)
			compared := c.Compare(data, data)

			if identical.ScoreMode != tt.wantMode {
				t.Errorf("CompareIdentical() ScoreMode = %s, want %s", identical.ScoreMode, tt.wantMode)
			}
			if identical.ScoreMode != compared.ScoreMode {
				t.Errorf("CompareIdentical() ScoreMode = %s, Compare() = %s", identical.ScoreMode, compared.ScoreMode)
			}
		})
	}
}

func TestCompareHashOnly(t *testing.T) {
	a := models.Fingerprint{StrongHash: sha256.Sum256([]byte("a"))}
	b := models.Fingerprint{StrongHash: sha256.Sum256([]byte("b"))}

	t.Run("Equal", func(t *testing.T) {
		res := CompareHashOnly(a, a, 10, 10)
		if !res.Identical || res.SimilarityScore != 1 || !res.HashOnly {
			t.Errorf("got %+v, want identical hash-only result", res)
		}
		if res.ScoreMode != models.ScoreHash {
			t.Errorf("ScoreMode = %s, want %s", res.ScoreMode, models.ScoreHash)
		}
	})

	t.Run("Different", func(t *testing.T) {
		res := CompareHashOnly(a, b, 10, 20)
		if res.Identical || res.SimilarityScore != 0 {
			t.Errorf("Identical = %v, SimilarityScore = %v, want false, 0", res.Identical, res.SimilarityScore)
		}
		if res.OnlyIn1 != 1 || res.OnlyIn2 != 1 {
			t.Errorf("OnlyIn1/OnlyIn2 = %d/%d, want 1/1", res.OnlyIn1, res.OnlyIn2)
		}
	})
}

// ============== Optimality Tests ==============

func lcsLength(a, b []string) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}
	return dp[len(a)][len(b)]
}

func randomLines(r *rand.Rand, alphabet []string) []string {
	n := r.Intn(40)
	lines := make([]string, n)
	for i := range lines {
		lines[i] = alphabet[r.Intn(len(alphabet))]
	}
	return lines
}

func TestTextCompare_MatchesLCS(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	alphabet := []string{"a", "b", "c", "d"}
	c := NewTextComparator(TextOptions{})

	for i := 0; i < 300; i++ {
		la := randomLines(r, alphabet)
		lb := randomLines(r, alphabet[:2+r.Intn(3)])
		a := strings.Join(la, "\n")
		b := strings.Join(lb, "\n")
		if len(la) > 0 {
			a += "\n"
		}
		if len(lb) > 0 {
			b += "\n"
		}

		res := c.Compare([]byte(a), []byte(b))

		if want := lcsLength(la, lb); res.CommonLines != want {
			t.Fatalf("case %d: CommonLines = %d, want %d\na=%q\nb=%q", i, res.CommonLines, want, a, b)
		}
		if res.OnlyIn1 != len(la)-res.CommonLines || res.OnlyIn2 != len(lb)-res.CommonLines {
			t.Fatalf("case %d: only-in counts %d/%d inconsistent with common %d", i, res.OnlyIn1, res.OnlyIn2, res.CommonLines)
		}
		if res.SimilarityScore < 0 || res.SimilarityScore > 1 {
			t.Fatalf("case %d: SimilarityScore = %v, want in [0, 1]", i, res.SimilarityScore)
		}
	}
}

func TestDiffLines_KeptSequencesAgree(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		a := make([]int, r.Intn(30))
		b := make([]int, r.Intn(30))
		for j := range a {
			a[j] = r.Intn(3)
		}
		for j := range b {
			b[j] = r.Intn(3)
		}

		keepA, keepB := diffLines(a, b)

		var subA, subB []int
		for j, k := range keepA {
			if k {
				subA = append(subA, a[j])
			}
		}
		for j, k := range keepB {
			if k {
				subB = append(subB, b[j])
			}
		}
		if !reflect.DeepEqual(subA, subB) {
			t.Fatalf("case %d: kept subsequences differ: %v vs %v", i, subA, subB)
		}
	}
}
