package model

// Entry types recognized by the field-requirement and identity rules.
const (
	EntryTypeArticle       = "article"
	EntryTypeInProceedings = "inproceedings"
	EntryTypeProceedings   = "proceedings"
	EntryTypeBook          = "book"
	EntryTypeInBook        = "inbook"
	EntryTypePhdThesis     = "phdthesis"
	EntryTypeMastersThesis = "mastersthesis"
	EntryTypeTechReport    = "techreport"
	EntryTypeOnline        = "online"
	EntryTypeMonograph     = "monogr"
	EntryTypeMisc          = "misc"
)

// Content field keys.
const (
	FieldAuthor      = "author"
	FieldTitle       = "title"
	FieldChapter     = "chapter"
	FieldJournal     = "journal"
	FieldBooktitle   = "booktitle"
	FieldVolume      = "volume"
	FieldNumber      = "number"
	FieldPages       = "pages"
	FieldEditor      = "editor"
	FieldPublisher   = "publisher"
	FieldYear        = "year"
	FieldSchool      = "school"
	FieldInstitution = "institution"
	FieldSeries      = "series"
	FieldURL         = "url"
	FieldDOI         = "doi"
	FieldAbstract    = "abstract"
	FieldKeywords    = "keywords"
	FieldFile        = "file"
	FieldFingerprint = "colrev_id"

	// FieldPrescreenExclusion records why a record was excluded at prescreen.
	FieldPrescreenExclusion = "prescreen_exclusion"

	// Synthetic provenance keys for record attributes that are not content
	// fields but still carry a data-provenance entry.
	FieldID     = "ID"
	FieldOrigin = "colrev_origin"
)

// Sentinel field values and provenance-note markers.
const (
	// ValueUnknown marks a required field whose value could not be determined.
	ValueUnknown = "UNKNOWN"

	// CuratedKey in the masterdata provenance map marks the whole record's
	// masterdata as externally curated.
	CuratedKey = "CURATED"

	// NoteIgnorePrefix prefixes defect codes that a user decided to waive.
	NoteIgnorePrefix = "IGNORE:"

	// SourceOriginal is the synthetic source reported for fields that predate
	// provenance tracking.
	SourceOriginal = "ORIGINAL"

	// SourceNA is the synthetic source reported for fields that have no
	// provenance entry in an otherwise populated map.
	SourceNA = "NA"

	// SourceFieldRequirements is attached to UNKNOWN placeholders inserted to
	// satisfy the field requirements of an entry type.
	SourceFieldRequirements = "generic_field_requirements"
)

// Defect codes attached to provenance notes by the quality model.
const (
	DefectMissing              = "missing"
	DefectMostlyAllCaps        = "mostly-all-caps"
	DefectInconsistentWithType = "inconsistent-with-entrytype"
	DefectYearFormat           = "year-format"
	DefectNotInTOC             = "record-not-in-toc"
)

// identifyingFields lists, in canonical order, the fields whose provenance is
// tracked in the masterdata map. Everything else routes to data provenance.
var identifyingFields = []string{
	FieldAuthor,
	FieldTitle,
	FieldChapter,
	FieldJournal,
	FieldBooktitle,
	FieldVolume,
	FieldNumber,
	FieldPages,
	FieldEditor,
	FieldPublisher,
	FieldYear,
	FieldSchool,
	FieldInstitution,
	FieldSeries,
}

var identifyingFieldSet = func() map[string]bool {
	m := make(map[string]bool, len(identifyingFields))
	for _, f := range identifyingFields {
		m[f] = true
	}
	return m
}()

// IsIdentifying reports whether key belongs to the masterdata field set.
func IsIdentifying(key string) bool {
	return identifyingFieldSet[key]
}

// IdentifyingFields returns the masterdata field keys in canonical order.
func IdentifyingFields() []string {
	out := make([]string, len(identifyingFields))
	copy(out, identifyingFields)
	return out
}

// requiredFields maps entry types to the fields a complete record must carry.
var requiredFields = map[string][]string{
	EntryTypeArticle:       {FieldAuthor, FieldTitle, FieldJournal, FieldYear, FieldVolume, FieldNumber},
	EntryTypeInProceedings: {FieldAuthor, FieldTitle, FieldBooktitle, FieldYear},
	EntryTypeProceedings:   {FieldBooktitle, FieldEditor, FieldYear},
	EntryTypeBook:          {FieldAuthor, FieldTitle, FieldPublisher, FieldYear},
	EntryTypeInBook:        {FieldAuthor, FieldTitle, FieldChapter, FieldPublisher, FieldYear},
	EntryTypePhdThesis:     {FieldAuthor, FieldTitle, FieldSchool, FieldYear},
	EntryTypeMastersThesis: {FieldAuthor, FieldTitle, FieldSchool, FieldYear},
	EntryTypeTechReport:    {FieldAuthor, FieldTitle, FieldInstitution, FieldYear},
	EntryTypeOnline:        {FieldAuthor, FieldTitle, FieldURL, FieldYear},
	EntryTypeMonograph:     {FieldAuthor, FieldTitle, FieldSeries, FieldYear},
	EntryTypeMisc:          {FieldAuthor, FieldTitle, FieldYear},
}

// RequiredFields returns the complete-record field set for an entry type.
// Unknown entry types fall back to the misc requirements.
func RequiredFields(entryType string) []string {
	if req, ok := requiredFields[entryType]; ok {
		return req
	}
	return requiredFields[EntryTypeMisc]
}

// KnownEntryType reports whether a field-requirement rule exists for the type.
func KnownEntryType(entryType string) bool {
	_, ok := requiredFields[entryType]
	return ok
}

// inconsistentFields maps entry types to fields that should not appear on them.
var inconsistentFields = map[string][]string{
	EntryTypeArticle:       {FieldBooktitle, FieldSchool, FieldInstitution},
	EntryTypeInProceedings: {FieldJournal, FieldSchool, FieldInstitution},
	EntryTypeBook:          {FieldJournal, FieldBooktitle},
	EntryTypePhdThesis:     {FieldJournal, FieldBooktitle, FieldVolume, FieldNumber},
	EntryTypeMastersThesis: {FieldJournal, FieldBooktitle, FieldVolume, FieldNumber},
	EntryTypeTechReport:    {FieldJournal, FieldBooktitle},
	EntryTypeOnline:        {FieldJournal, FieldBooktitle},
}

// InconsistentFields returns the fields that contradict the given entry type.
func InconsistentFields(entryType string) []string {
	return inconsistentFields[entryType]
}
