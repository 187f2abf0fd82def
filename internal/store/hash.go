package store

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/roach88/lutgen/internal/lut"
)

// DomainTable prefixes table hashes. The version suffix allows the hashed
// content to change later without colliding with old hashes.
const DomainTable = "lutgen/table/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TableHash fingerprints everything the emitted C code depends on apart from
// the id: start, step, value type and values, as big-endian 64-bit words.
// Runs with equal hashes produce identical lookup arrays.
func TableHash(t *lut.Table) string {
	values := t.Values()
	data := make([]byte, 0, 8*(3+len(values)))
	data = binary.BigEndian.AppendUint64(data, uint64(t.Start()))
	data = binary.BigEndian.AppendUint64(data, uint64(t.Step()))
	data = binary.BigEndian.AppendUint64(data, uint64(t.ValueType()))
	for _, v := range values {
		data = binary.BigEndian.AppendUint64(data, uint64(v))
	}
	return hashWithDomain(DomainTable, data)
}
