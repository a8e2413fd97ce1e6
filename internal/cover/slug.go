package cover

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackSlug = "event"

// Slugify turns an event name into a lowercase ASCII slug.
// Accents are stripped ("Café Noturno" -> "cafe-noturno").
func Slugify(name string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(stripper, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	slug := b.String()
	const maxSlugLen = 80
	if len(slug) > maxSlugLen {
		slug = strings.TrimRight(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// CoverSlug names a cover after its event. The key is appended after the name
// is truncated, so long titles sharing a prefix still get distinct names.
func CoverSlug(eventName, key string) string {
	slug := Slugify(eventName)
	if strings.TrimSpace(key) == "" {
		return slug
	}
	return slug + "-" + Slugify(key)
}

// FormatImageName builds the stored file name for a cover.
// The source file's extension is kept unless ext overrides it.
func FormatImageName(sourceFileName, slug, ext string) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		slug = fallbackSlug
	}

	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" {
		ext = strings.ToLower(strings.TrimPrefix(path.Ext(strings.TrimSpace(sourceFileName)), "."))
	}
	if ext == "" {
		return slug
	}
	return slug + "." + ext
}
