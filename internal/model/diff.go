package model

import "sort"

// Diff operation kinds.
const (
	DiffAdd    = "add"
	DiffRemove = "remove"
	DiffChange = "change"
)

// Diff scopes.
const (
	ScopeFields         = "fields"
	ScopeMasterdataProv = "md_prov"
	ScopeDataProv       = "d_prov"
)

// DiffEntry describes one difference between two records.
type DiffEntry struct {
	Op    string `json:"op"`
	Scope string `json:"scope"`
	Key   string `json:"key"`
	Old   string `json:"old,omitempty"`
	New   string `json:"new,omitempty"`
}

// Diff compares r against other and returns the differences as additions,
// then removals, then changes, each sorted by field key. With identifyingOnly,
// only masterdata content fields are compared and provenance is ignored.
func (r *Record) Diff(other *Record, identifyingOnly bool) []DiffEntry {
	var out []DiffEntry

	include := func(key string) bool {
		return !identifyingOnly || IsIdentifying(key)
	}
	out = append(out, diffStrings(ScopeFields, r.Fields, other.Fields, include)...)

	if !identifyingOnly {
		out = append(out, diffProv(ScopeMasterdataProv, r.MDProv, other.MDProv)...)
		out = append(out, diffProv(ScopeDataProv, r.DProv, other.DProv)...)
	}
	return out
}

func diffStrings(scope string, a, b map[string]string, include func(string) bool) []DiffEntry {
	var adds, removes, changes []DiffEntry
	for _, key := range sortedKeys(a, b) {
		if !include(key) {
			continue
		}
		va, inA := a[key]
		vb, inB := b[key]
		switch {
		case !inA:
			adds = append(adds, DiffEntry{Op: DiffAdd, Scope: scope, Key: key, New: vb})
		case !inB:
			removes = append(removes, DiffEntry{Op: DiffRemove, Scope: scope, Key: key, Old: va})
		case va != vb:
			changes = append(changes, DiffEntry{Op: DiffChange, Scope: scope, Key: key, Old: va, New: vb})
		}
	}
	return append(append(adds, removes...), changes...)
}

func diffProv(scope string, a, b map[string]Provenance) []DiffEntry {
	as := make(map[string]string, len(a))
	bs := make(map[string]string, len(b))
	for k, p := range a {
		as[k] = p.Source + ";" + p.Note
	}
	for k, p := range b {
		bs[k] = p.Source + ";" + p.Note
	}
	return diffStrings(scope, as, bs, func(string) bool { return true })
}

func sortedKeys(a, b map[string]string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	for k := range a {
		seen[k] = true
	}
	for k := range b {
		seen[k] = true
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
