package fingerprint

import (
	"hash"
	"hash/fnv"
	"math/bits"
)

// maxTokenBytes bounds the bytes of a single token that contribute to its hash
const maxTokenBytes = 64

// simhasher accumulates a 64-bit simhash over lower-cased word tokens.
// Tokens may span Write calls.
type simhasher struct {
	weights [64]int
	token   []byte
	fnv     hash.Hash64
	tokens  int
}

func newSimhasher() *simhasher {
	return &simhasher{
		token: make([]byte, 0, maxTokenBytes),
		fnv:   fnv.New64a(),
	}
}

func (s *simhasher) Write(p []byte) {
	for _, c := range p {
		if !isTokenByte(c) {
			s.flush()
			continue
		}
		if len(s.token) < maxTokenBytes {
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			s.token = append(s.token, c)
		}
	}
}

func (s *simhasher) flush() {
	if len(s.token) == 0 {
		return
	}
	s.fnv.Reset()
	s.fnv.Write(s.token)
	h := s.fnv.Sum64()
	for i := range s.weights {
		if h&(1<<uint(i)) != 0 {
			s.weights[i]++
		} else {
			s.weights[i]--
		}
	}
	s.tokens++
	s.token = s.token[:0]
}

// Sum64 returns the simhash of everything written so far
func (s *simhasher) Sum64() uint64 {
	s.flush()
	var out uint64
	for i, w := range s.weights {
		if w > 0 {
			out |= 1 << uint(i)
		}
	}
	return out
}

// isTokenByte reports whether c belongs to a word token.
// Bytes of multi-byte UTF-8 sequences are kept so non-ASCII words hash as units.
func isTokenByte(c byte) bool {
	return c >= 'a' && c <= 'z' ||
		c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' ||
		c == '_' ||
		c >= 0x80
}

// Hamming returns the number of differing bits between two locality hashes
func Hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Simhash computes the locality hash of an in-memory text
func Simhash(data []byte) uint64 {
	s := newSimhasher()
	s.Write(data)
	return s.Sum64()
}
