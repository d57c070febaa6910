package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// normalizeKeyPart canonicalizes one fingerprint segment: lower case, accents
// stripped, slashes and dash variants treated as separators, all other
// punctuation removed, separator runs collapsed to a single dash.
func normalizeKeyPart(s string) string {
	s = strings.ToLower(stripAccents(s))
	var b strings.Builder
	pendingSep := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingSep = false
			b.WriteRune(r)
		case r == ' ' || r == '/' || r == '-' || r == '–' || r == '—' || r == '_':
			pendingSep = true
		}
	}
	return b.String()
}

// splitAuthors splits a bibliographic author string on its "and" separators.
func splitAuthors(authors string) []string {
	parts := strings.Split(authors, " and ")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// surname extracts the family name of a single author entry, which is either
// the part before the comma or the last whitespace-separated token.
func surname(author string) string {
	if i := strings.Index(author, ","); i >= 0 {
		return strings.TrimSpace(author[:i])
	}
	fields := strings.Fields(author)
	if len(fields) == 0 {
		return ""
	}
	return fields[len(fields)-1]
}

// surnameKey joins the normalized surnames of all authors with dashes, the
// form used inside fingerprints.
func surnameKey(authors string) string {
	var parts []string
	for _, a := range splitAuthors(authors) {
		if s := normalizeKeyPart(surname(a)); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}

// formatAuthors renders an author string as lowercase "surname initials"
// pairs, the canonical form compared by the similarity measure:
// "Webster, Jane and Watson, Rick" -> "webster j watson r".
func formatAuthors(authors string) string {
	var parts []string
	for _, a := range splitAuthors(authors) {
		sur := surname(a)
		var given string
		if i := strings.Index(a, ","); i >= 0 {
			given = a[i+1:]
		} else if fields := strings.Fields(a); len(fields) > 1 {
			given = strings.Join(fields[:len(fields)-1], " ")
		}

		entry := strings.ToLower(stripAccents(sur))
		for _, g := range strings.Fields(given) {
			r := []rune(strings.ToLower(stripAccents(g)))
			if len(r) > 0 && unicode.IsLetter(r[0]) {
				entry += " " + string(r[0])
			}
		}
		parts = append(parts, strings.TrimSpace(entry))
	}
	return strings.Join(parts, " ")
}
