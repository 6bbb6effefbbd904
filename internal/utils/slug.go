package utils

import (
	"github.com/gosimple/slug"
)

const maxSlugLen = 200

// Slugify turns a title or name into a lower-case, URL-safe slug.
func Slugify(s string) string {
	out := slug.Make(s)
	if len(out) > maxSlugLen {
		out = out[:maxSlugLen]
	}
	return out
}
