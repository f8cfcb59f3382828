// internal/catalog/slug.go
//
// Field slug helper.
//
// Custom fields created without an explicit slug get one derived from the
// display name, and that slug is what mappings reference.
//
// Rules (MakeSlug)
// ----------------
// 1. Lower-case everything.
// 2. Convert any run of non-[a-z0-9] characters to one “-”.
// 3. Trim leading / trailing “-”.
// 4. If the result is empty, return "field".
// 5. Cap at 64 bytes, trimming a trailing “-” left by the cut.
//
// A slug that collides with a well-known attribute name shadows the
// attribute for that kind, since custom fields are resolved first.

package catalog

import (
	"strconv"
	"strings"
)

const maxSlugLen = 64

// MakeSlug converts a display name into a lower-kebab ASCII slug.
func MakeSlug(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	lastWasDash := false
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastWasDash = false
		default:
			if !lastWasDash {
				b.WriteRune('-')
				lastWasDash = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "field"
	}
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	return slug
}

// UniqueSlugs assigns slugs to fields that lack one and suffixes
// duplicates with -2, -3, and so on.
func UniqueSlugs(fields []Field) []Field {
	taken := make(map[string]struct{}, len(fields))
	out := make([]Field, len(fields))
	for i, f := range fields {
		if f.Slug == "" {
			f.Slug = MakeSlug(f.Name)
		}
		slug := f.Slug
		for n := 2; ; n++ {
			if _, dup := taken[slug]; !dup {
				break
			}
			slug = f.Slug + "-" + strconv.Itoa(n)
		}
		f.Slug = slug
		taken[slug] = struct{}{}
		out[i] = f
	}
	return out
}
