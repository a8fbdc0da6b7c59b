package normalize

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// RowHashFromValues computes a stable SHA-256 over the identifying
// fields of one record. Consumers use it for cross-run deduplication;
// this pipeline itself never dedupes.
func RowHashFromValues(rowNum int64, values ...string) []byte {
	h := sha256.New()
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(rowNum))
	h.Write(buf)
	for _, v := range values {
		h.Write([]byte(strings.TrimSpace(v)))
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}
