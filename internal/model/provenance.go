package model

import (
	"sort"
	"strings"
)

// Provenance records where a field value came from and which defect notes
// currently apply to it.
type Provenance struct {
	Source string `json:"source"`
	Note   string `json:"note"`
}

// noteSet parses a comma-joined note string into its codes.
func noteSet(note string) []string {
	if note == "" {
		return nil
	}
	parts := strings.Split(note, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// addNote inserts a code into a comma-joined note set, keeping it sorted and
// duplicate-free.
func addNote(existing, code string) string {
	codes := noteSet(existing)
	for _, c := range codes {
		if c == code {
			return existing
		}
	}
	codes = append(codes, code)
	sort.Strings(codes)
	return strings.Join(codes, ",")
}

// removeNote drops a code from a comma-joined note set.
func removeNote(existing, code string) string {
	codes := noteSet(existing)
	out := codes[:0]
	for _, c := range codes {
		if c != code {
			out = append(out, c)
		}
	}
	return strings.Join(out, ",")
}

func hasNote(existing, code string) bool {
	for _, c := range noteSet(existing) {
		if c == code {
			return true
		}
	}
	return false
}

// FieldProvenance returns the provenance entry for key, falling back to a
// synthetic entry when none is recorded: source ORIGINAL when the relevant
// map was never populated, NA when the map exists but lacks the key.
func (r *Record) FieldProvenance(key string) Provenance {
	m := r.provenanceMap(key)
	if p, ok := m[key]; ok {
		return p
	}
	if len(m) == 0 {
		return Provenance{Source: SourceOriginal}
	}
	return Provenance{Source: SourceNA}
}

// AddProvenance sets the provenance entry for key, routing identifying fields
// to the masterdata map and everything else to the data map.
func (r *Record) AddProvenance(key, source, note string) {
	if IsIdentifying(key) {
		if r.MDProv == nil {
			r.MDProv = map[string]Provenance{}
		}
		r.MDProv[key] = Provenance{Source: source, Note: note}
		return
	}
	if r.DProv == nil {
		r.DProv = map[string]Provenance{}
	}
	r.DProv[key] = Provenance{Source: source, Note: note}
}

// AddProvenanceNote appends a defect code to the note set of key. The append
// is idempotent. A missing entry is created with the ORIGINAL source. Notes on
// identifying fields of curated records are suppressed.
func (r *Record) AddProvenanceNote(key, code string) {
	if IsIdentifying(key) && r.IsCurated() {
		return
	}
	m := r.provenanceMap(key)
	p, ok := m[key]
	if !ok {
		r.AddProvenance(key, SourceOriginal, code)
		return
	}
	p.Note = addNote(p.Note, code)
	m[key] = p
}

// RemoveProvenanceNote drops a defect code from the note set of key. The note
// becomes the empty string when the set empties.
func (r *Record) RemoveProvenanceNote(key, code string) {
	m := r.provenanceMap(key)
	p, ok := m[key]
	if !ok {
		return
	}
	p.Note = removeNote(p.Note, code)
	m[key] = p
}

// HasProvenanceNote reports whether key carries the given defect code.
func (r *Record) HasProvenanceNote(key, code string) bool {
	p, ok := r.provenanceMap(key)[key]
	return ok && hasNote(p.Note, code)
}

// DefectIgnored reports whether the user waived a defect code for key.
func (r *Record) DefectIgnored(key, code string) bool {
	return r.HasProvenanceNote(key, NoteIgnorePrefix+code)
}

// IsCurated reports whether the record's masterdata is externally curated.
func (r *Record) IsCurated() bool {
	_, ok := r.MDProv[CuratedKey]
	return ok
}

// MasterdataDefects returns the active (non-ignored) defect codes across all
// masterdata provenance entries, sorted.
func (r *Record) MasterdataDefects() []string {
	seen := map[string]bool{}
	for key, p := range r.MDProv {
		if key == CuratedKey {
			continue
		}
		for _, c := range noteSet(p.Note) {
			if !strings.HasPrefix(c, NoteIgnorePrefix) {
				seen[c] = true
			}
		}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// SetMasterdataCurated marks the whole masterdata map as curated by source.
func (r *Record) SetMasterdataCurated(source string) {
	r.MDProv = map[string]Provenance{CuratedKey: {Source: source}}
}

// SetMasterdataConsistent removes inconsistent-with-entrytype notes from all
// masterdata entries, e.g. after an entry-type change resolved them.
func (r *Record) SetMasterdataConsistent() {
	for key, p := range r.MDProv {
		if key == CuratedKey {
			continue
		}
		p.Note = removeNote(p.Note, DefectInconsistentWithType)
		r.MDProv[key] = p
	}
}

// SetMasterdataComplete reconciles the provenance of required fields with the
// record content: UNKNOWN placeholders are removed and marked IGNORE:missing,
// absent fields get an IGNORE:missing entry, and stale missing notes on
// populated fields are cleared.
func (r *Record) SetMasterdataComplete(source string, curatedMasterdata bool) {
	if r.IsCurated() || curatedMasterdata {
		return
	}
	for _, key := range RequiredFields(r.EntryType) {
		if !IsIdentifying(key) {
			continue
		}
		val, present := r.Fields[key]
		switch {
		case present && val == ValueUnknown:
			delete(r.Fields, key)
			r.AddProvenance(key, source, NoteIgnorePrefix+DefectMissing)
		case !present:
			if _, ok := r.MDProv[key]; !ok {
				r.AddProvenance(key, source, NoteIgnorePrefix+DefectMissing)
			}
		default:
			r.RemoveProvenanceNote(key, DefectMissing)
		}
	}
}

// AddProvenanceAll backfills provenance entries for every tracked attribute
// that lacks one: content fields by identifying-set routing, plus the ID and
// origin attributes in the data map.
func (r *Record) AddProvenanceAll(source string) {
	for key := range r.Fields {
		if _, ok := r.provenanceMap(key)[key]; !ok {
			r.AddProvenance(key, source, "")
		}
	}
	for _, key := range []string{FieldID, FieldOrigin} {
		if _, ok := r.DProv[key]; !ok {
			r.AddProvenance(key, source, "")
		}
	}
}

// CompleteProvenance backfills provenance for content fields only. It returns
// false if any field remains without provenance afterwards.
func (r *Record) CompleteProvenance(source string) bool {
	for key := range r.Fields {
		if _, ok := r.provenanceMap(key)[key]; !ok {
			r.AddProvenance(key, source, "")
		}
	}
	for key := range r.Fields {
		if _, ok := r.provenanceMap(key)[key]; !ok {
			return false
		}
	}
	return true
}

func (r *Record) provenanceMap(key string) map[string]Provenance {
	if IsIdentifying(key) {
		return r.MDProv
	}
	return r.DProv
}
