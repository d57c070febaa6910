package model

import (
	"regexp"
	"strings"
	"unicode"
)

var partSuffixRe = regexp.MustCompile(`part\s+([0-9ivx]+)\b`)

// incompatibleTitles reports whether two title strings belong to distinct
// works that must never be merged, with the offending marker.
func incompatibleTitles(a, b string) (string, bool) {
	la, lb := strings.ToLower(a), strings.ToLower(b)

	pa := partSuffixRe.FindStringSubmatch(la)
	pb := partSuffixRe.FindStringSubmatch(lb)
	if pa != nil && pb != nil && pa[1] != pb[1] {
		return "mismatched part suffix", true
	}

	for _, marker := range []string{"erratum", "corrigendum", "commentary"} {
		if strings.Contains(la, marker) != strings.Contains(lb, marker) {
			return "one-sided " + marker + " marker", true
		}
	}
	return "", false
}

// mostlyUpper reports whether letters in s are predominantly upper case.
func mostlyUpper(s string) bool {
	var upper, letters int
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	return letters > 0 && float64(upper)/float64(letters) > 0.8
}

// preferValue picks the better of two non-empty values for a field: proper
// casing beats all-caps, and for authors the more complete form wins.
func preferValue(key, mine, theirs string) string {
	if mine == ValueUnknown {
		return theirs
	}
	if theirs == ValueUnknown {
		return mine
	}
	if mostlyUpper(mine) && !mostlyUpper(theirs) {
		return theirs
	}
	if mostlyUpper(theirs) && !mostlyUpper(mine) {
		return mine
	}
	if key == FieldAuthor && !strings.EqualFold(mine, theirs) {
		// A longer author string usually spells out given names.
		if len(theirs) > len(mine) && strings.HasPrefix(strings.ToLower(theirs), authorPrefix(mine)) {
			return theirs
		}
	}
	return mine
}

func authorPrefix(author string) string {
	lower := strings.ToLower(author)
	if i := strings.Index(lower, ","); i >= 0 {
		return lower[:i]
	}
	return lower
}

// Merge folds other into r: origins are unioned preserving first occurrence,
// fields are fused preferring the better-cased or more complete value, and
// fields r lacks are copied with the incoming provenance. defaultSource is
// used when the incoming side has no provenance for a field.
func (r *Record) Merge(other *Record, defaultSource string) error {
	if reason, bad := incompatibleTitles(r.Fields[FieldTitle], other.Fields[FieldTitle]); bad {
		return &InvalidMergeError{IDA: r.ID, IDB: other.ID, Reason: reason}
	}

	for _, origin := range other.Origins {
		r.AddOrigin(origin)
	}
	for _, id := range other.Fingerprints() {
		r.AddFingerprint(id)
	}

	for key, theirs := range other.Fields {
		if key == FieldFingerprint {
			continue
		}
		source := defaultSource
		if p, ok := other.provenanceMap(key)[key]; ok && p.Source != "" {
			source = p.Source
		}

		mine, ok := r.Fields[key]
		if !ok || mine == "" || mine == ValueUnknown {
			r.UpdateField(key, theirs, source, UpdateOptions{KeepSourceIfEqual: true})
			continue
		}
		fused := preferValue(key, mine, theirs)
		if fused != mine {
			r.UpdateField(key, fused, source, UpdateOptions{KeepSourceIfEqual: true})
		}
	}
	return nil
}
