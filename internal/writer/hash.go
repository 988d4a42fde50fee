package writer

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// rowHash identifies a compared value independently of the report it was
// exported with, so re-exporting the same comparison replaces the old rows
func rowHash(left, right string, parts ...string) string {
	h := sha256.New()

	fmt.Fprintf(h, "%s|", filepath.ToSlash(left))
	fmt.Fprintf(h, "%s|", filepath.ToSlash(right))
	for _, p := range parts {
		fmt.Fprintf(h, "%s|", p)
	}

	return hex.EncodeToString(h.Sum(nil))
}
