package meta

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// IDLength is the number of hex characters kept from the content hash.
const IDLength = 32

// ContentID derives the identifier of an instantiation from its native code
// expression. Equal expressions always yield equal identifiers.
func ContentID(nativeCode string) string {
	sum := blake3.Sum256([]byte(nativeCode))
	return hex.EncodeToString(sum[:])[:IDLength]
}
