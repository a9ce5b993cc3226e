package match

import (
	"sort"

	"github.com/sdejongh/filerecon/pkg/fingerprint"
	"github.com/sdejongh/filerecon/pkg/models"
)

type fuzzyCandidate struct {
	left     int
	right    int
	distance int
	ratio    float64
}

// allVsAll runs blocking, an exact-hash pass and a fuzzy top-K pass.
// The exact pass is greedy: the first unused right file with the same hash
// wins, and both files leave the pool for the fuzzy pass.
func allVsAll(left, right []models.FileEntry, prints map[string]models.Fingerprint, opts Options) []models.CandidatePair {
	usedLeft := make([]bool, len(left))
	usedRight := make([]bool, len(right))

	byHash := make(map[[32]byte][]int)
	for ri, r := range right {
		if fp, ok := prints[r.Path]; ok {
			byHash[fp.StrongHash] = append(byHash[fp.StrongHash], ri)
		}
	}

	var pairs []models.CandidatePair

	// Exact pass
	for li, l := range left {
		fp, ok := prints[l.Path]
		if !ok {
			continue
		}
		for _, ri := range byHash[fp.StrongHash] {
			if usedRight[ri] || !Blocks(l, right[ri], opts.SizeRatio) {
				continue
			}
			usedLeft[li] = true
			usedRight[ri] = true
			pairs = append(pairs, newPair(l, right[ri], 1.0, models.MatchExactHash))
			break
		}
	}

	// Fuzzy pass
	var ranked []fuzzyCandidate
	for li, l := range left {
		if usedLeft[li] {
			continue
		}
		fl, ok := prints[l.Path]
		if !ok || fl.Binary {
			continue
		}

		var cands []fuzzyCandidate
		for ri, r := range right {
			if usedRight[ri] {
				continue
			}
			fr, ok := prints[r.Path]
			if !ok || fr.Binary || !Blocks(l, r, opts.SizeRatio) {
				continue
			}
			d := fingerprint.Hamming(fl.LocalityHash, fr.LocalityHash)
			if opts.MaxDistance > 0 && d > opts.MaxDistance {
				continue
			}
			cands = append(cands, fuzzyCandidate{left: li, right: ri, distance: d, ratio: SizeRatio(l.Size, r.Size)})
		}

		sort.Slice(cands, func(i, j int) bool {
			return lessCandidate(cands[i], cands[j], left, right)
		})
		if opts.TopK > 0 && len(cands) > opts.TopK {
			cands = cands[:opts.TopK]
		}
		ranked = append(ranked, cands...)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return lessCandidate(ranked[i], ranked[j], left, right)
	})
	for _, c := range ranked {
		score := 1 - float64(c.distance)/64
		pairs = append(pairs, newPair(left[c.left], right[c.right], score, models.MatchFuzzy))
	}

	return pairs
}

// lessCandidate orders by distance, then closer size ratio, then left and right path
func lessCandidate(a, b fuzzyCandidate, left, right []models.FileEntry) bool {
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if a.ratio != b.ratio {
		return a.ratio > b.ratio
	}
	if a.left != b.left {
		return left[a.left].RelativePath < left[b.left].RelativePath
	}
	return right[a.right].RelativePath < right[b.right].RelativePath
}

// SizeRatio returns smaller/larger, 1 when both sizes are zero
func SizeRatio(a, b int64) float64 {
	if a == b {
		return 1
	}
	if a > b {
		a, b = b, a
	}
	if b == 0 {
		return 1
	}
	return float64(a) / float64(b)
}

// ExtensionsCompatible reports whether two extensions may describe the same kind of file.
// Extensions are compatible when equal, or when either is unknown to the type registry.
func ExtensionsCompatible(a, b string) bool {
	if a == b {
		return true
	}
	return !models.IsKnownExtension(a) || !models.IsKnownExtension(b)
}

// Blocks reports whether a pair survives all-vs-all blocking
func Blocks(l, r models.FileEntry, threshold float64) bool {
	return SizeRatio(l.Size, r.Size) >= threshold && ExtensionsCompatible(l.Extension, r.Extension)
}
