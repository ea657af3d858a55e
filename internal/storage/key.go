package storage

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// ImageKey builds the storage key for a product image. Keys are namespaced
// by product ID and carry a random component so repeated uploads of the
// same filename never overwrite each other.
//
// Example:
//
//	productID: "0b0e...", filename: "front view.PNG"
//	result:    "products/0b0e.../8f2a...-front-view.png"
func ImageKey(productID, filename string) string {
	return path.Join("products", productID, uuid.NewString()+"-"+sanitizeFilename(filename))
}

// sanitizeFilename reduces a client-supplied filename to a safe key
// component: the base name only, lowercased, with whitespace collapsed to
// hyphens and path separators stripped.
func sanitizeFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.ToLower(strings.TrimSpace(base))

	var b strings.Builder
	b.Grow(len(base))
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}

	if b.Len() == 0 {
		return "image"
	}
	return b.String()
}
