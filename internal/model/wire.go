package model

import (
	"sort"
	"strconv"
	"strings"
)

// Provenance wire grammar: items of the form "key:source;note;" joined with
// a space after each item terminator, giving
//
//	key1:source1;note1;; key2:source2;note2;;
//
// A curated masterdata map collapses to the single item "CURATED:<source>;;".
// Keys are emitted in sorted order so encoding is deterministic.

// EncodeProvenance serializes a provenance map to its wire form. Empty maps
// encode to the empty string.
func EncodeProvenance(m map[string]Provenance) string {
	if len(m) == 0 {
		return ""
	}
	if p, ok := m[CuratedKey]; ok {
		return CuratedKey + ":" + p.Source + ";;"
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	items := make([]string, 0, len(keys))
	for _, k := range keys {
		p := m[k]
		items = append(items, k+":"+p.Source+";"+p.Note+";;")
	}
	return strings.Join(items, " ")
}

// ParseProvenance deserializes the wire form back into a provenance map.
// A nil map is returned for the empty string, so encode/parse round-trips
// distinguish "never populated" from "populated but empty".
func ParseProvenance(encoded string) (map[string]Provenance, error) {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil, nil
	}

	out := map[string]Provenance{}
	for _, item := range strings.Split(encoded, ";; ") {
		// The final item (and a single-item string) keeps its terminator.
		item = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(item), ";;"))
		if item == "" {
			continue
		}
		if source, ok := strings.CutPrefix(item, CuratedKey+":"); ok {
			// Curated sources may themselves contain separators; the rest of
			// the item is the source verbatim.
			out[CuratedKey] = Provenance{Source: source}
			continue
		}
		key, rest, ok := strings.Cut(item, ":")
		if !ok || key == "" {
			return nil, &StructuralError{Detail: "malformed provenance item " + strconv.Quote(item)}
		}
		source, note, _ := strings.Cut(rest, ";")
		out[key] = Provenance{Source: source, Note: note}
	}
	return out, nil
}
