// Package match generates candidate pairs between two indexed roots.
package match

import (
	"fmt"
	"sort"

	"github.com/sdejongh/filerecon/pkg/models"
)

// Strategy selects how candidate pairs are generated
type Strategy string

const (
	// SamePath pairs files with identical relative paths
	SamePath Strategy = "same-path"
	// SameName pairs files with identical base names
	SameName Strategy = "same-name"
	// AllVsAll considers every left/right combination that survives blocking
	AllVsAll Strategy = "all-vs-all"
)

// ParseStrategy validates a strategy name
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case SamePath, SameName, AllVsAll:
		return Strategy(s), nil
	}
	return "", &models.ConfigError{Field: "pairing", Message: fmt.Sprintf("unknown strategy %q (valid: same-path, same-name, all-vs-all)", s)}
}

// Options tunes candidate generation
type Options struct {
	Strategy Strategy

	// SizeRatio is the minimum smaller/larger size ratio for all-vs-all blocking
	SizeRatio float64

	// TopK is the number of fuzzy candidates kept per left file
	TopK int

	// MaxDistance drops fuzzy candidates farther than this Hamming distance (0 = no bound)
	MaxDistance int

	// MaxPairs caps the total number of pairs (0 = unlimited)
	MaxPairs int

	// MaxFanout caps same-name candidates per left file (0 = unlimited)
	MaxFanout int
}

// DefaultOptions returns the default matcher settings
func DefaultOptions() Options {
	return Options{
		Strategy:  SamePath,
		SizeRatio: 0.5,
		TopK:      3,
		MaxFanout: 8,
	}
}

// Result holds the generated pairs and the files that received none
type Result struct {
	Pairs          []models.CandidatePair
	UnmatchedLeft  []models.FileEntry
	UnmatchedRight []models.FileEntry
	Warnings       []models.Warning
}

// Match generates candidate pairs between left and right.
// prints maps FileEntry.Path to its fingerprint; entries without one never
// take part in hash-based matching.
func Match(left, right []models.FileEntry, prints map[string]models.Fingerprint, opts Options) *Result {
	left = sortedEntries(left)
	right = sortedEntries(right)

	res := &Result{}
	switch opts.Strategy {
	case SameName:
		res.Pairs, res.Warnings = sameName(left, right, opts.MaxFanout)
	case AllVsAll:
		res.Pairs = allVsAll(left, right, prints, opts)
	default:
		res.Pairs = samePath(left, right)
	}

	if opts.MaxPairs > 0 && len(res.Pairs) > opts.MaxPairs {
		dropped := len(res.Pairs) - opts.MaxPairs
		res.Pairs = res.Pairs[:opts.MaxPairs]
		res.Warnings = append(res.Warnings, models.Warning{
			Kind:    models.WarnMaxPairs,
			Message: fmt.Sprintf("max_pairs %d reached, %d candidate pairs dropped", opts.MaxPairs, dropped),
		})
	}

	res.UnmatchedLeft, res.UnmatchedRight = unmatched(left, right, res.Pairs)
	return res
}

func sortedEntries(entries []models.FileEntry) []models.FileEntry {
	out := make([]models.FileEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RelativePath < out[j].RelativePath
	})
	return out
}

func unmatched(left, right []models.FileEntry, pairs []models.CandidatePair) ([]models.FileEntry, []models.FileEntry) {
	pairedLeft := make(map[string]bool, len(pairs))
	pairedRight := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		pairedLeft[p.Left.Path] = true
		pairedRight[p.Right.Path] = true
	}

	var ul, ur []models.FileEntry
	for _, e := range left {
		if !pairedLeft[e.Path] {
			ul = append(ul, e)
		}
	}
	for _, e := range right {
		if !pairedRight[e.Path] {
			ur = append(ur, e)
		}
	}
	return ul, ur
}

// samePath builds a lookup over the smaller side and probes it with the larger one
func samePath(left, right []models.FileEntry) []models.CandidatePair {
	var pairs []models.CandidatePair

	if len(right) <= len(left) {
		byPath := make(map[string]models.FileEntry, len(right))
		for _, r := range right {
			byPath[r.RelativePath] = r
		}
		for _, l := range left {
			if r, ok := byPath[l.RelativePath]; ok {
				pairs = append(pairs, newPair(l, r, 1.0, models.MatchSamePath))
			}
		}
		return pairs
	}

	byPath := make(map[string]models.FileEntry, len(left))
	for _, l := range left {
		byPath[l.RelativePath] = l
	}
	for _, r := range right {
		if l, ok := byPath[r.RelativePath]; ok {
			pairs = append(pairs, newPair(l, r, 1.0, models.MatchSamePath))
		}
	}
	// right is sorted by the same key, so pairs are already in left order
	return pairs
}

// sameName pairs every left file with all right files sharing its base name
func sameName(left, right []models.FileEntry, maxFanout int) ([]models.CandidatePair, []models.Warning) {
	byName := make(map[string][]models.FileEntry)
	for _, r := range right {
		byName[r.Name()] = append(byName[r.Name()], r)
	}

	var pairs []models.CandidatePair
	var warnings []models.Warning
	for _, l := range left {
		group := byName[l.Name()]
		if maxFanout > 0 && len(group) > maxFanout {
			warnings = append(warnings, models.Warning{
				Kind:    models.WarnFanoutTruncated,
				Path:    l.Path,
				Message: fmt.Sprintf("%d same-name candidates, kept first %d", len(group), maxFanout),
			})
			group = group[:maxFanout]
		}
		for _, r := range group {
			pairs = append(pairs, newPair(l, r, 1.0, models.MatchSameName))
		}
	}
	return pairs, warnings
}

func newPair(l, r models.FileEntry, score float64, method models.MatchMethod) models.CandidatePair {
	return models.CandidatePair{Left: l, Right: r, BlockingScore: score, Method: method}
}

// Single pairs two explicitly named files without any matching
func Single(left, right models.FileEntry) *Result {
	return &Result{Pairs: []models.CandidatePair{newPair(left, right, 1.0, models.MatchSingle)}}
}
