package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters for display
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Fingerprinter accumulates float columns into a dataset fingerprint.
// Column order matters; values are hashed by their IEEE-754 bits.
type Fingerprinter struct {
	buf []byte
}

// AddColumn appends a named column to the fingerprint
func (f *Fingerprinter) AddColumn(name string, values []float64) {
	f.buf = append(f.buf, name...)
	f.buf = append(f.buf, 0)
	var word [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(word[:], math.Float64bits(v))
		f.buf = append(f.buf, word[:]...)
	}
}

// Sum returns the fingerprint hash
func (f *Fingerprinter) Sum() Hash {
	return NewHash(f.buf)
}
