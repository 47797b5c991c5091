// Package fingerprint derives deterministic cache keys from generation requests.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"

	"github.com/spigell/interview-rehearsal/internal/interview"
)

// ResumePrefixRunes is how much of the resume participates in the key.
// Resumes that differ only after this prefix share a cache entry.
const ResumePrefixRunes = 5000

// Derive returns a hex digest over the request fields that affect generation.
// Every field is length-prefixed so adjacent values cannot run together.
func Derive(req interview.GenerationRequest) string {
	h := sha256.New()

	writeField(h, resumePrefix(req.ResumeText))
	writeField(h, req.Role)
	writeField(h, req.Count.String())
	writeField(h, string(req.Difficulty))
	writeField(h, req.JobDescription)

	return hex.EncodeToString(h.Sum(nil))
}

func resumePrefix(s string) string {
	runes := []rune(s)
	if len(runes) <= ResumePrefixRunes {
		return s
	}
	return string(runes[:ResumePrefixRunes])
}

func writeField(h hash.Hash, v string) {
	var size [8]byte
	binary.BigEndian.PutUint64(size[:], uint64(len(v)))
	h.Write(size[:])
	h.Write([]byte(v))
}
