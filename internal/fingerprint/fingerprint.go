// Package fingerprint derives a content hash for a manuscript. The
// fingerprint changes if and only if the analyzed text changes, and is the
// cache-validity key for every persisted metrics row.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var wordFinder = regexp.MustCompile(`[a-z0-9']+`)

const shingleSize = 5

// Compute returns a fingerprint of the form "<sha256 prefix>-<shingle sig>".
// The first half is an exact digest of the normalized text; the second folds
// word 5-gram hashes into a similarity signature, so near-identical revisions
// still produce distinct but comparable fingerprints.
func Compute(text string) string {
	normalized := normalize(text)
	sum := sha256.Sum256([]byte(normalized))

	words := wordFinder.FindAllString(normalized, -1)
	var sig uint64
	for i := 0; i+shingleSize <= len(words); i++ {
		h := sha256.Sum256([]byte(strings.Join(words[i:i+shingleSize], " ")))
		sig ^= binary.BigEndian.Uint64(h[:8])
	}
	return fmt.Sprintf("%s-%016x", hex.EncodeToString(sum[:12]), sig)
}

func normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
