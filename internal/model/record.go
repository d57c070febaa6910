package model

import (
	"context"
	"strings"
)

// Record is a single bibliographic entry: content fields, the two provenance
// maps, origin tags of the search results it was imported from, and its
// lifecycle status.
type Record struct {
	ID        string                `json:"id"`
	EntryType string                `json:"entrytype"`
	Status    Status                `json:"status"`
	Origins   []string              `json:"origins"`
	Fields    map[string]string     `json:"fields"`
	MDProv    map[string]Provenance `json:"md_prov"`
	DProv     map[string]Provenance `json:"d_prov"`
}

// NewRecord creates an empty record with initialized maps.
func NewRecord(id, entryType string) *Record {
	return &Record{
		ID:        id,
		EntryType: entryType,
		Fields:    map[string]string{},
		MDProv:    map[string]Provenance{},
		DProv:     map[string]Provenance{},
	}
}

// Copy returns a deep copy. Workers mutate copies; the live set is only
// replaced by the orchestrator.
func (r *Record) Copy() *Record {
	c := &Record{
		ID:        r.ID,
		EntryType: r.EntryType,
		Status:    r.Status,
		Origins:   append([]string(nil), r.Origins...),
		Fields:    make(map[string]string, len(r.Fields)),
		MDProv:    make(map[string]Provenance, len(r.MDProv)),
		DProv:     make(map[string]Provenance, len(r.DProv)),
	}
	for k, v := range r.Fields {
		c.Fields[k] = v
	}
	for k, v := range r.MDProv {
		c.MDProv[k] = v
	}
	for k, v := range r.DProv {
		c.DProv[k] = v
	}
	return c
}

// GetValue returns the content value for key, or the empty string.
func (r *Record) GetValue(key string) string {
	return r.Fields[key]
}

// Has reports whether the record carries a content value for key.
func (r *Record) Has(key string) bool {
	_, ok := r.Fields[key]
	return ok
}

// SharesOrigins reports whether both records were imported from at least one
// common search-result entry.
func (r *Record) SharesOrigins(other *Record) bool {
	for _, a := range r.Origins {
		for _, b := range other.Origins {
			if a == b {
				return true
			}
		}
	}
	return false
}

// AddOrigin appends an origin tag, preserving first-occurrence order.
func (r *Record) AddOrigin(origin string) {
	for _, o := range r.Origins {
		if o == origin {
			return
		}
	}
	r.Origins = append(r.Origins, origin)
}

// ContainerTitle returns the publication container for the entry type:
// journal for articles, booktitle for proceedings papers, the title itself
// for books, series for monographs.
func (r *Record) ContainerTitle() string {
	switch r.EntryType {
	case EntryTypeArticle:
		return r.Fields[FieldJournal]
	case EntryTypeInProceedings, EntryTypeProceedings, EntryTypeInBook:
		return r.Fields[FieldBooktitle]
	case EntryTypeBook:
		return r.Fields[FieldTitle]
	case EntryTypeMonograph:
		return r.Fields[FieldSeries]
	default:
		if v := r.Fields[FieldJournal]; v != "" {
			return v
		}
		return r.Fields[FieldBooktitle]
	}
}

// Fingerprints returns the cached identity keys, most recent last.
func (r *Record) Fingerprints() []string {
	raw := r.Fields[FieldFingerprint]
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// AddFingerprint caches an identity key on the record, deduplicating while
// preserving order. Merged records accumulate the keys of both sides.
func (r *Record) AddFingerprint(id string) {
	if id == "" {
		return
	}
	ids := r.Fingerprints()
	for _, existing := range ids {
		if existing == id {
			return
		}
	}
	ids = append(ids, id)
	r.Fields[FieldFingerprint] = strings.Join(ids, ";")
}

// UpdateOptions control provenance handling in UpdateField.
type UpdateOptions struct {
	// Note is attached to the new provenance entry.
	Note string
	// AppendEdit chains the new source onto the previous one with "|" when
	// the field already had a value. Fields that predate provenance tracking
	// get an "original|" prefix.
	AppendEdit bool
	// KeepSourceIfEqual leaves the provenance untouched when the value does
	// not change.
	KeepSourceIfEqual bool
}

// UpdateField sets a content field and records where the value came from.
func (r *Record) UpdateField(key, value, source string, opts UpdateOptions) {
	prev, hadField := r.Fields[key]
	if opts.KeepSourceIfEqual && hadField && prev == value {
		return
	}
	r.Fields[key] = value

	if opts.AppendEdit && hadField {
		if p, ok := r.provenanceMap(key)[key]; ok {
			source = p.Source + "|" + source
		} else {
			source = "original|" + source
		}
	}
	r.AddProvenance(key, source, opts.Note)
}

// RenameField moves a content value to a new key, carrying the provenance
// along with a rename marker appended to the source chain.
func (r *Record) RenameField(oldKey, newKey string) {
	value, ok := r.Fields[oldKey]
	if !ok {
		return
	}

	source := "original"
	note := ""
	if p, found := r.provenanceMap(oldKey)[oldKey]; found {
		source = p.Source
		note = p.Note
	}
	source += "|rename-from:" + oldKey

	delete(r.Fields, oldKey)
	delete(r.MDProv, oldKey)
	delete(r.DProv, oldKey)

	r.Fields[newKey] = value
	r.AddProvenance(newKey, source, note)
}

// RemoveField deletes a content field. With retainNote, the provenance entry
// is kept with an IGNORE:missing note so quality checks stop reporting the
// field; otherwise the provenance entry is deleted too.
func (r *Record) RemoveField(key string, retainNote bool, source string) {
	delete(r.Fields, key)
	if retainNote {
		r.AddProvenance(key, source, NoteIgnorePrefix+DefectMissing)
		return
	}
	delete(r.MDProv, key)
	delete(r.DProv, key)
}

// QualityRunner re-evaluates defect notes after a structural change.
type QualityRunner interface {
	Run(ctx context.Context, r *Record) error
}

// entryTypeRemap lists field renames to apply when switching to a type.
var entryTypeRemap = map[string][2]string{
	EntryTypeArticle:       {FieldBooktitle, FieldJournal},
	EntryTypeInProceedings: {FieldJournal, FieldBooktitle},
}

// ChangeEntryType switches the record to a new entry type, remapping container
// fields, inserting UNKNOWN placeholders for newly required fields, and
// re-running the quality model. Records that end up with masterdata defects
// drop back to md_needs_manual_preparation.
func (r *Record) ChangeEntryType(ctx context.Context, newType string, qm QualityRunner) error {
	if !KnownEntryType(newType) {
		return &MissingQualityRuleError{EntryType: newType}
	}

	if remap, ok := entryTypeRemap[newType]; ok {
		// Placeholders for fields the new type does not require are dropped
		// outright rather than remapped.
		for _, key := range []string{FieldVolume, FieldNumber} {
			if newType != EntryTypeArticle && r.Fields[key] == ValueUnknown {
				r.RemoveField(key, false, "")
			}
		}
		if r.Has(remap[0]) {
			r.RenameField(remap[0], remap[1])
		}
	}
	r.EntryType = newType

	for _, key := range RequiredFields(newType) {
		if r.Has(key) {
			continue
		}
		if p, ok := r.provenanceMap(key)[key]; ok && hasNote(p.Note, NoteIgnorePrefix+DefectMissing) {
			continue
		}
		r.Fields[key] = ValueUnknown
		r.AddProvenance(key, SourceFieldRequirements, DefectMissing)
	}
	r.SetMasterdataConsistent()

	if qm != nil {
		if err := qm.Run(ctx, r); err != nil {
			return err
		}
	}
	if len(r.MasterdataDefects()) > 0 {
		r.Status = StatusNeedsManualPrep
	}
	return nil
}

// PrescreenExclude marks the record as excluded from the review, stripping
// UNKNOWN placeholder fields and recording the exclusion reason.
func (r *Record) PrescreenExclude(reason string) {
	for key, val := range r.Fields {
		if val == ValueUnknown {
			r.RemoveField(key, false, "")
		}
	}
	r.Fields[FieldPrescreenExclusion] = reason
	r.Status = StatusPrescreenExcl
}
