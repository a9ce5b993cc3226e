package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ResultKind identifies the comparison result variant
type ResultKind string

const (
	// KindText marks a line-based text comparison
	KindText ResultKind = "text"
	// KindStructured marks a key-based tabular comparison
	KindStructured ResultKind = "structured"
)

// ScoreMode selects how a text similarity score is computed
type ScoreMode string

const (
	// ScoreDiff scores by the line diff
	ScoreDiff ScoreMode = "diff"
	// ScoreCharJaro scores by Jaro similarity of the normalized text
	ScoreCharJaro ScoreMode = "char-jaro"
	// ScoreHash is used when only strong hashes were compared
	ScoreHash ScoreMode = "hash"
)

// ComparisonResult is the outcome of comparing one candidate pair
type ComparisonResult interface {
	Kind() ResultKind
	ID() string
	Files() (string, string)
	Score() float64
	IsIdentical() bool
}

// DiffRange is a half-open range of line indices where the files diverge
type DiffRange struct {
	// File is 1 for lines only in the first file, 2 for lines only in the second
	File  int `json:"file"`
	Start int `json:"start"`
	End   int `json:"end"`
}

// TextResult is the outcome of a line-based comparison
type TextResult struct {
	LinkedID        string      `json:"linked_id"`
	File1           string      `json:"file1"`
	File2           string      `json:"file2"`
	SimilarityScore float64     `json:"similarity_score"`
	CommonLines     int         `json:"common_lines"`
	OnlyIn1         int         `json:"only_in_1"`
	OnlyIn2         int         `json:"only_in_2"`
	DiffPositions   []DiffRange `json:"diff_positions"`
	Identical       bool        `json:"identical"`
	HashOnly        bool        `json:"hash_only,omitempty"`
	ScoreMode       ScoreMode   `json:"score_mode"`
}

func (r *TextResult) Kind() ResultKind        { return KindText }
func (r *TextResult) ID() string              { return r.LinkedID }
func (r *TextResult) Files() (string, string) { return r.File1, r.File2 }
func (r *TextResult) Score() float64          { return r.SimilarityScore }
func (r *TextResult) IsIdentical() bool       { return r.Identical }

// MarshalJSON adds the variant discriminator
func (r *TextResult) MarshalJSON() ([]byte, error) {
	type plain TextResult
	return json.Marshal(struct {
		Type ResultKind `json:"type"`
		*plain
	}{KindText, (*plain)(r)})
}

// MismatchStat counts mismatches for one column
type MismatchStat struct {
	Count      int      `json:"count"`
	SampleKeys []string `json:"sample_keys"`
}

// StructuredResult is the outcome of a key-based tabular comparison
type StructuredResult struct {
	LinkedID        string                   `json:"linked_id"`
	File1           string                   `json:"file1"`
	File2           string                   `json:"file2"`
	SimilarityScore float64                  `json:"similarity_score"`
	CommonRecords   int                      `json:"common_records"`
	OnlyIn1         int                      `json:"only_in_1"`
	OnlyIn2         int                      `json:"only_in_2"`
	FieldMismatches map[string]*MismatchStat `json:"field_mismatches"`
	MatchedRecords  int                      `json:"matched_records"`
	DuplicateKeys1  int                      `json:"duplicate_keys_1"`
	DuplicateKeys2  int                      `json:"duplicate_keys_2"`
	ComparedColumns []string                 `json:"compared_columns"`
	SchemaDrift     []string                 `json:"schema_drift,omitempty"`
	Identical       bool                     `json:"identical"`
}

func (r *StructuredResult) Kind() ResultKind        { return KindStructured }
func (r *StructuredResult) ID() string              { return r.LinkedID }
func (r *StructuredResult) Files() (string, string) { return r.File1, r.File2 }
func (r *StructuredResult) Score() float64          { return r.SimilarityScore }
func (r *StructuredResult) IsIdentical() bool       { return r.Identical }

// MarshalJSON adds the variant discriminator
func (r *StructuredResult) MarshalJSON() ([]byte, error) {
	type plain StructuredResult
	return json.Marshal(struct {
		Type ResultKind `json:"type"`
		*plain
	}{KindStructured, (*plain)(r)})
}

var linkNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:filerecon:linked-pair"))

// LinkedID derives a stable identifier for a pair from both strong hashes.
// The result does not depend on argument order.
func LinkedID(a, b Fingerprint) string {
	ha, hb := a.Hex(), b.Hex()
	if hb < ha {
		ha, hb = hb, ha
	}
	return uuid.NewSHA1(linkNamespace, []byte(ha+":"+hb)).String()
}
