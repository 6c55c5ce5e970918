package sample

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// idPayload fixes the field order hashed into a sample ID. Metadata is
// deliberately excluded so annotations never change identity.
type idPayload struct {
	Input []ChatMessage `json:"input"`
	Ideal []string      `json:"ideal"`
}

// ID derives a stable identifier from a sample's input and ideal answers.
// The same (input, ideal) content always produces the same ID across runs
// and processes. 128 bits of a SHA-256 digest, hex encoded.
func (s *Sample) ID() string {
	if s == nil {
		return ""
	}
	return IDFor(s.Input, s.Ideal)
}

// IDFor computes the sample identifier for raw input/ideal content.
func IDFor(input []ChatMessage, ideal []string) string {
	b, err := json.Marshal(idPayload{Input: input, Ideal: ideal})
	if err != nil {
		// Marshal of plain strings cannot fail; keep the signature simple.
		return ""
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:16])
}
