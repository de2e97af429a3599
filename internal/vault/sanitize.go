package vault

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// maxTagFilenameLen bounds the sanitized stem before the hash suffix.
const maxTagFilenameLen = 100

// TagFilename derives the listing filename stem for a tag name: lower-cased,
// spaces replaced with dashes, path-unsafe characters stripped, truncated.
//
// Sanitization is lossy, so two distinct tag names can produce the same
// stem. To keep the mapping collision-free, any name that is altered by
// sanitization gets a deterministic hash suffix derived from the exact
// original name. Names that are already clean keep their natural filename.
func TagFilename(name string) string {
	sanitized := sanitizeTag(name)
	if sanitized == name {
		return sanitized
	}
	return fmt.Sprintf("%s-%08x", sanitized, hashTag(name))
}

func sanitizeTag(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			// Path-unsafe, stripped.
		case ' ':
			b.WriteRune('-')
		default:
			b.WriteRune(unicode.ToLower(r))
		}
	}
	runes := []rune(b.String())
	if len(runes) > maxTagFilenameLen {
		runes = runes[:maxTagFilenameLen]
	}
	return string(runes)
}

func hashTag(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}
