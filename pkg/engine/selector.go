package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/sdejongh/filerecon/pkg/compare"
	"github.com/sdejongh/filerecon/pkg/models"
)

// Mode selects the comparator applied to a pair
type Mode string

const (
	// ModeAuto picks structured for tables when key columns are set, text otherwise
	ModeAuto Mode = "auto"
	// ModeText always diffs line by line
	ModeText Mode = "text"
	// ModeStructured always compares tables by key
	ModeStructured Mode = "structured"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeAuto, ModeText, ModeStructured:
		return Mode(s), nil
	}
	return "", &models.ConfigError{Field: "mode", Message: fmt.Sprintf("unknown mode %q (valid: auto, text, structured)", s)}
}

// FingerprintSource returns the cached fingerprint of an entry
type FingerprintSource interface {
	Fingerprint(ctx context.Context, entry models.FileEntry) (models.Fingerprint, error)
}

// SelectorConfig configures mode selection and the comparators
type SelectorConfig struct {
	Mode         Mode
	Text         compare.TextOptions
	Structured   compare.StructuredOptions
	MaxDiffBytes int64
}

// ModeSelector routes each pair to the text, structured or hash-only comparison
type ModeSelector struct {
	config       SelectorConfig
	fingerprints FingerprintSource
	text         *compare.TextComparator
	structured   *compare.StructuredComparator
}

// NewModeSelector creates a selector.
// Structured mode without key columns is a ConfigError.
func NewModeSelector(config SelectorConfig, fingerprints FingerprintSource) (*ModeSelector, error) {
	if config.Mode == "" {
		config.Mode = ModeAuto
	}
	if config.Mode == ModeStructured && len(config.Structured.KeyColumns) == 0 {
		return nil, &models.ConfigError{Field: "key", Message: "structured mode requires at least one key column"}
	}
	return &ModeSelector{
		config:       config,
		fingerprints: fingerprints,
		text:         compare.NewTextComparator(config.Text),
		structured:   compare.NewStructuredComparator(config.Structured),
	}, nil
}

// tableFormat picks the decoder for entry; structured mode reads files with
// an unknown extension as CSV
func (s *ModeSelector) tableFormat(entry models.FileEntry) models.TableFormat {
	format := models.TableFormatOf(entry.Extension)
	if format == models.FormatNone && s.config.Mode == ModeStructured {
		return models.FormatCSV
	}
	return format
}

func (s *ModeSelector) useStructured(pair models.CandidatePair) bool {
	switch s.config.Mode {
	case ModeStructured:
		return true
	case ModeAuto:
		return len(s.config.Structured.KeyColumns) > 0 &&
			models.TableFormatOf(pair.Left.Extension) != models.FormatNone &&
			models.TableFormatOf(pair.Right.Extension) != models.FormatNone
	}
	return false
}

// ComparePair compares one pair. Problems that only affect this pair are
// returned as an error; conditions that alter how the pair was compared
// are returned as warnings alongside the result.
func (s *ModeSelector) ComparePair(ctx context.Context, pair models.CandidatePair) (models.ComparisonResult, []models.Warning, error) {
	fpL, err := s.fingerprints.Fingerprint(ctx, pair.Left)
	if err != nil {
		return nil, nil, err
	}
	fpR, err := s.fingerprints.Fingerprint(ctx, pair.Right)
	if err != nil {
		return nil, nil, err
	}
	linkedID := models.LinkedID(fpL, fpR)

	var warnings []models.Warning
	structured := s.useStructured(pair)

	if oversized := s.oversized(pair); oversized != nil {
		w := models.WarningFromError(oversized.Path, oversized)
		w.Path, w.Path2, w.LinkedID = pair.Left.Path, pair.Right.Path, linkedID
		warnings = append(warnings, w)
		return s.hashOnly(pair, fpL, fpR, linkedID), warnings, nil
	}

	if !structured && (fpL.Binary || fpR.Binary) {
		return s.hashOnly(pair, fpL, fpR, linkedID), nil, nil
	}

	if structured {
		res, warns, err := s.compareTables(ctx, pair, linkedID)
		if err != nil {
			return nil, nil, err
		}
		return res, warns, nil
	}

	var res *models.TextResult
	if fpL.StrongHash == fpR.StrongHash {
		data, err := pair.Left.ReadAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		res = s.text.CompareIdentical(data)
	} else {
		a, err := pair.Left.ReadAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		b, err := pair.Right.ReadAll(ctx)
		if err != nil {
			return nil, nil, err
		}
		res = s.text.Compare(a, b)
	}
	if s.config.Text.ScoreMode == models.ScoreCharJaro && res.ScoreMode != models.ScoreCharJaro {
		warnings = append(warnings, models.Warning{
			Kind:     models.WarnJaroFallback,
			Path:     pair.Left.Path,
			Path2:    pair.Right.Path,
			LinkedID: linkedID,
			Message:  fmt.Sprintf("inputs exceed %d bytes, scored by line diff", s.text.Options().JaroMaxBytes),
		})
	}

	res.LinkedID = linkedID
	res.File1 = pair.Left.Path
	res.File2 = pair.Right.Path
	return res, warnings, nil
}

// oversized returns a ResourceLimitError for the first side above MaxDiffBytes
func (s *ModeSelector) oversized(pair models.CandidatePair) *models.ResourceLimitError {
	if s.config.MaxDiffBytes <= 0 {
		return nil
	}
	for _, e := range []models.FileEntry{pair.Left, pair.Right} {
		if e.Size > s.config.MaxDiffBytes {
			return &models.ResourceLimitError{Path: e.Path, Limit: "max_diff_bytes", Size: e.Size, Max: s.config.MaxDiffBytes}
		}
	}
	return nil
}

func (s *ModeSelector) hashOnly(pair models.CandidatePair, fpL, fpR models.Fingerprint, linkedID string) *models.TextResult {
	res := compare.CompareHashOnly(fpL, fpR, pair.Left.Size, pair.Right.Size)
	res.LinkedID = linkedID
	res.File1 = pair.Left.Path
	res.File2 = pair.Right.Path
	return res
}

func (s *ModeSelector) compareTables(ctx context.Context, pair models.CandidatePair, linkedID string) (*models.StructuredResult, []models.Warning, error) {
	a, err := s.loadTable(ctx, pair.Left)
	if err != nil {
		return nil, nil, err
	}
	b, err := s.loadTable(ctx, pair.Right)
	if err != nil {
		return nil, nil, err
	}

	res, err := s.structured.Compare(a, b)
	if err != nil {
		return nil, nil, err
	}
	res.LinkedID = linkedID
	res.File1 = pair.Left.Path
	res.File2 = pair.Right.Path

	var warnings []models.Warning
	if len(res.SchemaDrift) > 0 {
		warnings = append(warnings, models.Warning{
			Kind:     models.WarnSchemaDrift,
			Path:     pair.Left.Path,
			Path2:    pair.Right.Path,
			LinkedID: linkedID,
			Message:  "columns not present on both sides: " + strings.Join(res.SchemaDrift, ", "),
		})
	}
	if res.DuplicateKeys1 > 0 || res.DuplicateKeys2 > 0 {
		warnings = append(warnings, models.Warning{
			Kind:     models.WarnDuplicateKeys,
			Path:     pair.Left.Path,
			Path2:    pair.Right.Path,
			LinkedID: linkedID,
			Message:  fmt.Sprintf("duplicate keys replaced by their last row: %d left, %d right", res.DuplicateKeys1, res.DuplicateKeys2),
		})
	}
	return res, warnings, nil
}

func (s *ModeSelector) loadTable(ctx context.Context, entry models.FileEntry) (*compare.Table, error) {
	data, err := entry.ReadAll(ctx)
	if err != nil {
		return nil, err
	}
	return compare.LoadTable(entry.Path, data, s.tableFormat(entry))
}
